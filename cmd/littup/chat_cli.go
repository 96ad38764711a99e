package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/littup/forge/internal/controller"
	"github.com/spf13/cobra"
)

func buildChatCommands(a *app) *cobra.Command {
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "에이전트 채팅 명령어",
		Long:  "프로젝트 채팅 기록, 브리프 전송, 로드맵 진화, Memory 로그 조회 기능을 제공합니다.",
	}

	chatSendCmd := &cobra.Command{
		Use:   "send <project-id> <role> <message...>",
		Short: "채팅 메시지 하나 추가",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			content := strings.Join(args[2:], " ")
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				if _, err := ctrl.AddMessage(ctx, id, args[1], content); err != nil {
					return fmt.Errorf("메시지 추가 실패: %w", err)
				}
				fmt.Println("✓ 메시지가 추가되었습니다.")
				return nil
			})
		},
	}

	chatBriefCmd := &cobra.Command{
		Use:   "brief <project-id> <brief...>",
		Short: "브리프를 보내고 팀 응답 받기",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			brief := strings.Join(args[1:], " ")
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				messages, err := ctrl.Chat(ctx, id, brief)
				if err != nil {
					return fmt.Errorf("브리프 전송 실패: %w", err)
				}
				for _, m := range messages {
					fmt.Printf("[%s] %s\n", m.Role, m.Content)
				}
				return nil
			})
		},
	}

	chatListCmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "채팅 기록 조회",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				messages, err := ctrl.ListMessages(ctx, id)
				if err != nil {
					return fmt.Errorf("채팅 기록 조회 실패: %w", err)
				}
				if len(messages) == 0 {
					fmt.Println("채팅 기록이 없습니다.")
					return nil
				}
				for _, m := range messages {
					fmt.Printf("%s [%s] %s\n", m.CreatedAt.Local().Format("15:04:05"), m.Role, m.Content)
				}
				return nil
			})
		},
	}

	var feedback string
	chatEvolveCmd := &cobra.Command{
		Use:   "evolve <project-id>",
		Short: "피드백으로 로드맵 진화",
		Long:  "피드백을 Memory에 기록하고 Reviewer 메시지와 스냅샷을 추가합니다.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				reply, err := ctrl.Evolve(ctx, id, controller.FeedbackOrDefault(feedback))
				if err != nil {
					return fmt.Errorf("evolve 실패: %w", err)
				}
				fmt.Println(reply)
				return nil
			})
		},
	}
	chatEvolveCmd.Flags().StringVarP(&feedback, "feedback", "f", "", "feedback text")

	chatMemoriesCmd := &cobra.Command{
		Use:   "memories <project-id>",
		Short: "Memory 로그 조회",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				memories, err := ctrl.ListMemories(ctx, id)
				if err != nil {
					return fmt.Errorf("Memory 조회 실패: %w", err)
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "TIME\tSOURCE\tCONTENT")
				_, _ = fmt.Fprintln(w, "----\t------\t-------")
				for _, m := range memories {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Source, m.Content)
				}
				return w.Flush()
			})
		},
	}

	chatRolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "역할과 기본 팀 배정 조회",
		RunE: func(cmd *cobra.Command, args []string) error {
			assignment := controller.DefaultTeamAssignment()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ROLE\tTEAM")
			for _, role := range controller.Roles() {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", role, assignment[role])
			}
			return w.Flush()
		},
	}

	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatBriefCmd)
	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatEvolveCmd)
	chatCmd.AddCommand(chatMemoriesCmd)
	chatCmd.AddCommand(chatRolesCmd)

	return chatCmd
}
