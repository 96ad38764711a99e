package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/littup/forge/internal/controller"
	"github.com/littup/forge/internal/storage"
	"github.com/spf13/cobra"
)

// parseProjectID는 CLI 인자를 프로젝트 ID로 변환합니다.
func parseProjectID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("잘못된 프로젝트 ID: %s", arg)
	}
	return id, nil
}

func buildProjectCommands(a *app) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "프로젝트 관리 명령어",
		Long:  "프로젝트 생성, 조회, 수정, 삭제 기능을 제공합니다.",
	}

	var template, team string
	projectCreateCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "새 프로젝트 생성",
		Long:  "템플릿으로 시드된 새 프로젝트를 만들고 초기 스냅샷을 저장합니다.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				project, err := ctrl.CreateProject(ctx, args[0], template, team)
				if err != nil {
					return fmt.Errorf("프로젝트 생성 실패: %w", err)
				}
				fmt.Printf("✓ 프로젝트 '%s' 생성 완료 (ID: %d, template: %s)\n", project.Name, project.ID, project.Template)
				return nil
			})
		},
	}
	projectCreateCmd.Flags().StringVar(&template, "template", storage.DefaultTemplate, "seed template")
	projectCreateCmd.Flags().StringVar(&team, "team", storage.DefaultTeamName, "team name")

	projectListCmd := &cobra.Command{
		Use:   "list",
		Short: "프로젝트 목록 조회",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				projects, err := ctrl.ListProjects(ctx)
				if err != nil {
					return fmt.Errorf("프로젝트 목록 조회 실패: %w", err)
				}
				if len(projects) == 0 {
					fmt.Println("등록된 프로젝트가 없습니다.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATUS\tTEMPLATE\tTEAM\tUPDATED")
				_, _ = fmt.Fprintln(w, "--\t----\t------\t--------\t----\t-------")
				for _, p := range projects {
					_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						p.ID, p.Name, p.Status, p.Template, p.TeamName,
						p.UpdatedAt.Local().Format("2006-01-02 15:04"),
					)
				}
				return w.Flush()
			})
		},
	}

	projectViewCmd := &cobra.Command{
		Use:   "view <project-id>",
		Short: "프로젝트 상세 정보 조회",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				p, err := ctrl.GetProject(ctx, id)
				if err != nil {
					return fmt.Errorf("프로젝트 조회 실패: %w", err)
				}
				files, err := ctrl.ListFiles(ctx, id)
				if err != nil {
					return fmt.Errorf("파일 목록 조회 실패: %w", err)
				}

				fmt.Printf("=== Project #%d ===\n\n", p.ID)
				fmt.Printf("이름:       %s\n", p.Name)
				fmt.Printf("상태:       %s\n", p.Status)
				fmt.Printf("템플릿:     %s\n", p.Template)
				fmt.Printf("팀:         %s\n", p.TeamName)
				if p.Summary != "" {
					fmt.Printf("요약:       %s\n", p.Summary)
				}
				fmt.Printf("파일:       %d개\n", len(files))
				fmt.Printf("생성일:     %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Printf("수정일:     %s\n", p.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}

	var status, summary, teamName string
	projectUpdateCmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "프로젝트 상태/요약/팀 수정",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			var changes controller.ProjectChanges
			if cmd.Flags().Changed("status") {
				changes.Status = &status
			}
			if cmd.Flags().Changed("summary") {
				changes.Summary = &summary
			}
			if cmd.Flags().Changed("team") {
				changes.TeamName = &teamName
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				p, err := ctrl.UpdateProject(ctx, id, changes)
				if err != nil {
					return fmt.Errorf("프로젝트 수정 실패: %w", err)
				}
				fmt.Printf("✓ 프로젝트 '%s' 수정 완료 (status: %s)\n", p.Name, p.Status)
				return nil
			})
		},
	}
	projectUpdateCmd.Flags().StringVar(&status, "status", "", "active | archived")
	projectUpdateCmd.Flags().StringVar(&summary, "summary", "", "project summary")
	projectUpdateCmd.Flags().StringVar(&teamName, "team", "", "team name")

	projectDeleteCmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "프로젝트 삭제",
		Long:  "프로젝트 레코드와 메시지, Memory, 스냅샷, 파일 트리를 모두 삭제합니다.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				if err := ctrl.DeleteProject(ctx, id); err != nil {
					return fmt.Errorf("프로젝트 삭제 실패: %w", err)
				}
				fmt.Printf("✓ 프로젝트 #%d 삭제 완료\n", id)
				return nil
			})
		},
	}

	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "사용 가능한 템플릿 목록",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				names, err := ctrl.Templates()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Println(name)
				}
				return nil
			})
		},
	}

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectViewCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(templatesCmd)

	return projectCmd
}

func buildIntegrationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "integrations",
		Short: "연동 서비스 안내",
		RunE: func(cmd *cobra.Command, args []string) error {
			integrations := controller.Integrations()
			names := make([]string, 0, len(integrations))
			for name := range integrations {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range names {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", name, integrations[name])
			}
			return w.Flush()
		},
	}
}
