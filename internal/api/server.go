// Package api exposes the forge controller over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/littup/forge/internal/controller"
	"go.uber.org/zap"
)

const (
	// HealthMode는 /health 응답의 mode 값입니다.
	HealthMode = "local-first"

	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Options는 API 서버 설정입니다.
type Options struct {
	Addr string // host:port
	Env  string // /health 응답의 env 값
}

// Server는 gin 기반 HTTP API 서버입니다.
type Server struct {
	logger     *zap.Logger
	controller *controller.Controller
	options    Options
	engine     *gin.Engine
	httpServer *http.Server
}

// NewServer는 라우트가 등록된 API 서버를 생성합니다.
func NewServer(logger *zap.Logger, ctrl *controller.Controller, options Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")

	engine := gin.New()
	engine.Use(requestID(), requestLogger(logger), recovery(logger))

	s := &Server{
		logger:     logger,
		controller: ctrl,
		options:    options,
		engine:     engine,
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:              options.Addr,
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler는 테스트 등에서 사용할 http.Handler를 반환합니다.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start는 HTTP 서버를 시작하고 ctx가 취소되면 종료합니다.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server", zap.String("addr", s.options.Addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Stop(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Stop은 진행 중인 요청을 마친 뒤 서버를 종료합니다.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Error shutting down API server", zap.Error(err))
		return err
	}
	s.logger.Info("API server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	r := s.engine
	r.GET("/health", s.health)
	r.GET("/integrations", s.integrations)
	r.GET("/roles", s.roles)
	r.GET("/templates", s.templates)
	r.GET("/metrics/sandbox", s.sandboxMetrics)

	r.GET("/projects", s.listProjects)
	r.POST("/projects", s.createProject)

	p := r.Group("/projects/:id")
	p.GET("", s.getProject)
	p.PATCH("", s.updateProject)
	p.DELETE("", s.deleteProject)

	p.GET("/chat", s.listMessages)
	p.POST("/chat", s.addMessage)
	p.POST("/brief", s.sendBrief)
	p.GET("/memories", s.listMemories)
	p.POST("/evolve", s.evolve)

	p.GET("/history", s.listSnapshots)
	p.POST("/history", s.saveSnapshot)
	p.GET("/history/:snapshot_id", s.getSnapshot)
	p.POST("/history/:snapshot_id/restore", s.restoreSnapshot)

	p.GET("/files", s.listFiles)
	p.GET("/file", s.readFile)
	p.PUT("/file", s.writeFile)

	p.POST("/run", s.run)
	p.POST("/test", s.test)
}
