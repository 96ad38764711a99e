package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/littup/forge/internal/controller"
	"github.com/littup/forge/internal/sandbox"
	"github.com/spf13/cobra"
)

// printResult는 실행 결과를 출력하고, 0이 아닌 종료 코드는 에러로 반환합니다.
func printResult(result sandbox.Result) error {
	if result.Output != "" {
		fmt.Println(result.Output)
	}
	fmt.Printf("--- run %s: exit %d (%s)\n", result.RunID, result.ExitCode, result.Duration.Round(time.Millisecond))
	if !result.Succeeded() {
		return fmt.Errorf("command exited with code %d", result.ExitCode)
	}
	return nil
}

func buildRunCommands(a *app) []*cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <project-id> [command...]",
		Short: "샌드박스에서 명령 실행 (기본: python main.py)",
		Long:  "프로젝트 복사본에서 허용된 명령(python, pytest, bash, sh)을 실행합니다.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			command := controller.DefaultRunCommand
			if len(args) > 1 {
				command = strings.Join(args[1:], " ")
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				result, err := ctrl.RunCommand(ctx, id, command)
				if err != nil {
					return fmt.Errorf("실행 실패: %w", err)
				}
				return printResult(result)
			})
		},
	}

	testCmd := &cobra.Command{
		Use:   "test <project-id>",
		Short: "샌드박스에서 pytest -q 실행",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				result, err := ctrl.TestProject(ctx, id)
				if err != nil {
					return fmt.Errorf("테스트 실행 실패: %w", err)
				}
				return printResult(result)
			})
		},
	}

	return []*cobra.Command{runCmd, testCmd}
}
