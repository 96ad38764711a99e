package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/littup/forge/internal/controller"
	"github.com/spf13/cobra"
)

func parseSnapshotID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("잘못된 스냅샷 ID: %s", arg)
	}
	return id, nil
}

func buildSnapshotCommands(a *app) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"history"},
		Short:   "스냅샷 명령어",
		Long:    "프로젝트 파일 트리 스냅샷 저장, 조회, 복원 기능을 제공합니다.",
	}

	var note string
	snapshotSaveCmd := &cobra.Command{
		Use:   "save <project-id>",
		Short: "현재 파일 트리 스냅샷 저장",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				snap, err := ctrl.SaveSnapshot(ctx, id, note)
				if err != nil {
					return fmt.Errorf("스냅샷 저장 실패: %w", err)
				}
				fmt.Printf("✓ 스냅샷 #%d 저장 완료 (%s)\n", snap.ID, snap.Note)
				return nil
			})
		},
	}
	snapshotSaveCmd.Flags().StringVarP(&note, "note", "n", "", "snapshot note")

	var limit int
	snapshotListCmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "스냅샷 목록 조회 (최신순)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				snaps, err := ctrl.ListSnapshots(ctx, id, limit)
				if err != nil {
					return fmt.Errorf("스냅샷 목록 조회 실패: %w", err)
				}
				if len(snaps) == 0 {
					fmt.Println("저장된 스냅샷이 없습니다.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "ID\tNOTE\tCREATED")
				_, _ = fmt.Fprintln(w, "--\t----\t-------")
				for _, s := range snaps {
					_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Note, s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				}
				return w.Flush()
			})
		},
	}
	snapshotListCmd.Flags().IntVar(&limit, "limit", controller.HistoryWindow, "max snapshots (0 = all)")

	snapshotViewCmd := &cobra.Command{
		Use:   "view <project-id> <snapshot-id>",
		Short: "스냅샷 파일 목록 조회",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			snapshotID, err := parseSnapshotID(args[1])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				snap, files, err := ctrl.GetSnapshot(ctx, id, snapshotID)
				if err != nil {
					return fmt.Errorf("스냅샷 조회 실패: %w", err)
				}

				fmt.Printf("=== Snapshot #%d ===\n\n", snap.ID)
				fmt.Printf("메모:   %s\n", snap.Note)
				fmt.Printf("생성일: %s\n\n", snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))

				paths := make([]string, 0, len(files))
				for path := range files {
					paths = append(paths, path)
				}
				sort.Strings(paths)
				for _, path := range paths {
					fmt.Printf("  %s (%d bytes)\n", path, len(files[path]))
				}
				return nil
			})
		},
	}

	snapshotRestoreCmd := &cobra.Command{
		Use:   "restore <project-id> <snapshot-id>",
		Short: "파일 트리를 스냅샷 시점으로 복원",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			snapshotID, err := parseSnapshotID(args[1])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				snap, err := ctrl.RestoreSnapshot(ctx, id, snapshotID)
				if err != nil {
					return fmt.Errorf("스냅샷 복원 실패: %w", err)
				}
				fmt.Printf("✓ 복원 완료 (새 스냅샷 #%d: %s)\n", snap.ID, snap.Note)
				return nil
			})
		},
	}

	snapshotCmd.AddCommand(snapshotSaveCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotViewCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)

	return snapshotCmd
}

func buildFileCommands(a *app) *cobra.Command {
	fileCmd := &cobra.Command{
		Use:   "file",
		Short: "프로젝트 파일 명령어",
	}

	fileListCmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "프로젝트 파일 목록",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				files, err := ctrl.ListFiles(ctx, id)
				if err != nil {
					return fmt.Errorf("파일 목록 조회 실패: %w", err)
				}
				for _, f := range files {
					fmt.Println(f)
				}
				return nil
			})
		},
	}

	fileReadCmd := &cobra.Command{
		Use:   "read <project-id> <path>",
		Short: "파일 내용 출력",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				content, err := ctrl.ReadFile(ctx, id, args[1])
				if err != nil {
					return fmt.Errorf("파일 읽기 실패: %w", err)
				}
				fmt.Print(content)
				if content != "" && !strings.HasSuffix(content, "\n") {
					fmt.Println()
				}
				return nil
			})
		},
	}

	var (
		fromFile string
		snapshot bool
	)
	fileWriteCmd := &cobra.Command{
		Use:   "write <project-id> <path> [content...]",
		Short: "파일 쓰기",
		Long:  "인자 또는 --from 로컬 파일의 내용을 프로젝트 파일로 씁니다. --snapshot이면 \"Edited <path>\" 스냅샷을 함께 저장합니다.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			content := strings.Join(args[2:], " ")
			if fromFile != "" {
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("입력 파일 읽기 실패: %w", err)
				}
				content = string(data)
			}
			return a.withController(func(ctx context.Context, ctrl *controller.Controller) error {
				if !snapshot {
					if err := ctrl.WriteFile(ctx, id, args[1], content); err != nil {
						return fmt.Errorf("파일 쓰기 실패: %w", err)
					}
					fmt.Printf("✓ %s 저장 완료\n", args[1])
					return nil
				}
				snap, err := ctrl.SaveFile(ctx, id, args[1], content)
				if err != nil {
					return fmt.Errorf("파일 저장 실패: %w", err)
				}
				fmt.Printf("✓ %s 저장 완료 (스냅샷 #%d)\n", args[1], snap.ID)
				return nil
			})
		},
	}
	fileWriteCmd.Flags().StringVar(&fromFile, "from", "", "read content from a local file")
	fileWriteCmd.Flags().BoolVar(&snapshot, "snapshot", false, "save a snapshot after writing")

	fileCmd.AddCommand(fileListCmd)
	fileCmd.AddCommand(fileReadCmd)
	fileCmd.AddCommand(fileWriteCmd)

	return fileCmd
}
