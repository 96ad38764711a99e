package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/littup/forge/internal/api"
	"github.com/littup/forge/internal/common"
	"github.com/littup/forge/internal/connector"
	"github.com/littup/forge/internal/controller"
	"github.com/littup/forge/internal/sandbox"
	"github.com/littup/forge/internal/storage"
	"github.com/littup/forge/internal/workspace"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// app은 모든 하위 명령어가 공유하는 설정과 로거입니다.
type app struct {
	configPath string
	cfg        *common.Config
	logger     *zap.Logger
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "littup",
		Short:   "LittUp - local-first project forge",
		Long:    `LittUp manages local projects, scripted agent chat, snapshots and sandboxed runs.`,
		Version: fmt.Sprintf("%s (built at %s)", Version, BuildTime),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: $LITTUP_DATA_DIR/config.yaml)")

	// serve 명령어
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server (and Discord connector when configured)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe()
		},
	}

	// health 명령어
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check API server health status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHealth()
		},
	}

	// init 명령어
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create data directories and install bundled templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit()
		},
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(buildProjectCommands(a))
	rootCmd.AddCommand(buildChatCommands(a))
	rootCmd.AddCommand(buildSnapshotCommands(a))
	rootCmd.AddCommand(buildFileCommands(a))
	rootCmd.AddCommand(buildRunCommands(a)...)
	rootCmd.AddCommand(buildIntegrationsCommand())

	if err := rootCmd.Execute(); err != nil {
		if a.logger != nil {
			a.logger.Error("Command execution failed", zap.Error(err))
			_ = a.logger.Sync()
		}
		os.Exit(1)
	}
}

// load는 설정을 읽고 로거를 초기화합니다.
func (a *app) load() error {
	cfg, err := common.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("설정 로드 실패: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("설정 검증 실패: %w", err)
	}

	logger, err := common.NewLogger("", cfg)
	if err != nil {
		return fmt.Errorf("로거 초기화 실패: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// newController는 저장소, 파일 시스템, 샌드박스를 순서대로 초기화하고 Controller를 조립합니다.
func (a *app) newController(ctx context.Context) (*controller.Controller, func(), error) {
	cfg := a.cfg
	if err := common.EnsureStoragePaths(cfg); err != nil {
		return nil, func() {}, err
	}

	db, err := storage.Open(storage.ConfigFrom(cfg))
	if err != nil {
		return nil, func() {}, err
	}
	closeDB := func() {
		if err := storage.Close(db); err != nil {
			a.logger.Warn("Failed to close storage", zap.Error(err))
		}
	}

	if err := storage.AutoMigrate(db); err != nil {
		closeDB()
		return nil, func() {}, err
	}

	repo, err := storage.NewRepository(db)
	if err != nil {
		closeDB()
		return nil, func() {}, err
	}

	if _, err := workspace.InstallTemplates(cfg.Directory.TemplatesDir); err != nil {
		closeDB()
		return nil, func() {}, err
	}
	files := workspace.NewManager(a.logger.Named("workspace"), workspace.Config{
		ProjectsDir:  cfg.Directory.ProjectsDir,
		TemplatesDir: cfg.Directory.TemplatesDir,
	})

	sb, closeSandbox, err := sandbox.NewFromConfig(ctx, a.logger.Named("sandbox"), sandbox.Config{
		Mode:    cfg.Sandbox.Mode,
		Timeout: cfg.Sandbox.Timeout,
		Image:   cfg.Sandbox.Image,
	})
	if err != nil {
		closeDB()
		return nil, func() {}, err
	}

	cleanup := func() {
		if err := closeSandbox(); err != nil {
			a.logger.Warn("Failed to close sandbox", zap.Error(err))
		}
		closeDB()
	}

	ctrl := controller.NewController(a.logger.Named("controller"), repo, files, sb)
	return ctrl, cleanup, nil
}

// runServe는 API 서버와 (설정된 경우) Discord connector를 실행합니다.
func (a *app) runServe() error {
	a.logger.Info("Starting LittUp",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("env", a.cfg.App.ENV),
	)

	// Graceful shutdown을 위한 signal 처리
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl, cleanup, err := a.newController(ctx)
	if err != nil {
		a.logger.Error("Failed to initialize controller", zap.Error(err))
		return err
	}
	defer cleanup()

	server := api.NewServer(a.logger, ctrl, api.Options{
		Addr: a.cfg.API.Addr(),
		Env:  a.cfg.App.ENV,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if a.cfg.Discord.Enabled() {
		conn := connector.NewConnector(a.logger, ctrl, connector.Config{
			Token:     a.cfg.Discord.Token,
			ChannelID: a.cfg.Discord.ChannelID,
		})
		ctrl.SetNotifier(conn)
		g.Go(func() error {
			if err := conn.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("connector error: %w", err)
			}
			return nil
		})
	} else {
		a.logger.Info("Discord connector disabled")
	}

	if err := g.Wait(); err != nil {
		a.logger.Error("Server error", zap.Error(err))
		return err
	}

	a.logger.Info("Servers stopped gracefully")
	return nil
}

func (a *app) runHealth() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := api.NewClient(a.cfg.API.BaseURL(), api.WithLogger(a.logger))
	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check 실패: %w", err)
	}

	fmt.Printf("%s (mode=%s, env=%s)\n", health.Status, health.Mode, health.Env)
	return nil
}

func (a *app) runInit() error {
	if err := common.EnsureStoragePaths(a.cfg); err != nil {
		return err
	}
	written, err := workspace.InstallTemplates(a.cfg.Directory.TemplatesDir)
	if err != nil {
		return fmt.Errorf("템플릿 설치 실패: %w", err)
	}

	fmt.Printf("✓ 데이터 디렉토리: %s\n", a.cfg.Directory.DataDir)
	fmt.Printf("✓ 템플릿 파일 %d개 설치됨: %s\n", written, a.cfg.Directory.TemplatesDir)
	return nil
}

// withController는 CLI 단일 실행용 Controller를 만들어 fn을 실행합니다.
func (a *app) withController(fn func(ctx context.Context, ctrl *controller.Controller) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctrl, cleanup, err := a.newController(ctx)
	if err != nil {
		return fmt.Errorf("컨트롤러 초기화 실패: %w", err)
	}
	defer cleanup()

	return fn(ctx, ctrl)
}
