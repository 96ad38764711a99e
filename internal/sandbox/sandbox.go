// Package sandbox runs allow-listed shell commands against a throwaway copy of
// a project tree.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/littup/forge/internal/sandbox/docker"
	"github.com/littup/forge/internal/workspace"
	"go.uber.org/zap"
)

const (
	// ModeLocal은 호스트 프로세스로 실행합니다.
	ModeLocal = "local"
	// ModeDocker는 일회용 컨테이너에서 실행합니다.
	ModeDocker = "docker"

	// DefaultTimeout은 명령 실행 기본 제한 시간입니다.
	DefaultTimeout = 30 * time.Second

	// RejectedExitCode는 정책 거부 시 반환되는 종료 코드입니다.
	RejectedExitCode = 1
	// TimeoutExitCode는 타임아웃 시 반환되는 종료 코드입니다.
	TimeoutExitCode = 124

	// TempDirPattern은 실행마다 만들어지는 임시 디렉토리 이름 패턴입니다.
	TempDirPattern = "littup-run-*"
	// CopyDirName은 임시 디렉토리 안의 프로젝트 복사본 이름입니다.
	CopyDirName = "project"
)

// Result는 명령 실행 결과입니다. 정책 거부와 타임아웃도 Result로 표현됩니다.
type Result struct {
	RunID    string        `json:"run_id"`
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Output   string        `json:"output"`
	Rejected bool          `json:"rejected"`
	TimedOut bool          `json:"timed_out"`
	Duration time.Duration `json:"duration"`
}

// Succeeded는 명령이 0으로 종료했는지 반환합니다.
func (r Result) Succeeded() bool {
	return !r.Rejected && !r.TimedOut && r.ExitCode == 0
}

// Config는 Sandbox 설정입니다.
type Config struct {
	Mode    string        // local | docker
	Timeout time.Duration // 0 이하이면 DefaultTimeout
	Image   string        // docker 모드 이미지
	TempDir string        // 임시 디렉토리 루트 (빈 값이면 os.TempDir)
}

// Sandbox는 프로젝트 복사본에서 허용된 명령을 실행합니다.
type Sandbox struct {
	executor Executor
	timeout  time.Duration
	tempDir  string
	metrics  *Metrics
	logger   *zap.Logger
}

// New는 주어진 실행기를 사용하는 Sandbox를 생성합니다.
func New(logger *zap.Logger, executor Executor, config Config) *Sandbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sandbox{
		executor: executor,
		timeout:  timeout,
		tempDir:  config.TempDir,
		metrics:  &Metrics{},
		logger:   logger,
	}
}

// NewFromConfig는 설정의 모드에 맞는 실행기를 골라 Sandbox를 생성합니다.
// docker 모드는 daemon 연결을 확인하고, 반환된 close 함수로 클라이언트를 정리해야 합니다.
func NewFromConfig(ctx context.Context, logger *zap.Logger, config Config) (*Sandbox, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch config.Mode {
	case "", ModeLocal:
		return New(logger, NewLocalExecutor(logger), config), func() error { return nil }, nil
	case ModeDocker:
		client, err := docker.NewClient()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrExecutorUnavailable, err)
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("%w: %v", ErrExecutorUnavailable, err)
		}
		logger.Info("Docker sandbox 사용", zap.String("image", config.Image))
		return New(logger, NewDockerExecutor(logger, client, config.Image), config), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownMode, config.Mode)
	}
}

// Timeout은 명령 실행 제한 시간을 반환합니다.
func (s *Sandbox) Timeout() time.Duration {
	return s.timeout
}

// Metrics는 실행 메트릭 스냅샷을 반환합니다.
func (s *Sandbox) Metrics() MetricsSnapshot {
	return s.metrics.GetSnapshot()
}

// Run은 sourceDir을 임시 디렉토리로 복사한 뒤 그 안에서 command를 실행합니다.
// 임시 디렉토리는 모든 경로(정상 종료, 실패, 타임아웃, 취소)에서 삭제됩니다.
func (s *Sandbox) Run(ctx context.Context, projectID int64, sourceDir, command string) (Result, error) {
	result := Result{
		RunID:   uuid.NewString()[:8],
		Command: command,
	}

	if !Allowed(command) {
		result.ExitCode = RejectedExitCode
		result.Output = PolicyMessage
		result.Rejected = true
		s.metrics.RecordRejected()
		s.logger.Warn("명령 거부됨",
			zap.Int64("project_id", projectID),
			zap.String("run_id", result.RunID),
			zap.String("program", Program(command)),
		)
		return result, nil
	}

	tmp, err := os.MkdirTemp(s.tempDir, TempDirPattern)
	if err != nil {
		s.metrics.RecordError()
		return result, NewRunError("mkdtemp", projectID, fmt.Errorf("%w: %v", ErrSandboxSetup, err))
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			s.logger.Error("임시 디렉토리 삭제 실패", zap.String("path", tmp), zap.Error(err))
		}
	}()

	workDir := filepath.Join(tmp, CopyDirName)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		s.metrics.RecordError()
		return result, NewRunError("copy", projectID, fmt.Errorf("%w: %v", ErrSandboxSetup, err))
	}
	if err := workspace.CopyTree(sourceDir, workDir); err != nil {
		s.metrics.RecordError()
		return result, NewRunError("copy", projectID, fmt.Errorf("%w: %v", ErrSandboxSetup, err))
	}

	s.logger.Info("명령 실행 시작",
		zap.Int64("project_id", projectID),
		zap.String("run_id", result.RunID),
		zap.String("command", command),
		zap.String("executor", s.executor.Name()),
		zap.Duration("timeout", s.timeout),
	)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, execErr := s.executor.Execute(runCtx, Request{
		RunID:   result.RunID,
		WorkDir: workDir,
		Command: command,
	})
	result.Duration = time.Since(start)
	combined := strings.TrimSpace(out.Stdout + "\n" + out.Stderr)

	switch {
	case ctx.Err() != nil:
		// 호출자 취소는 타임아웃이 아니라 에러
		s.metrics.RecordError()
		return result, NewRunError("execute", projectID, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = TimeoutExitCode
		result.TimedOut = true
		result.Output = strings.TrimSpace(combined + "\n" + fmt.Sprintf("Command timed out after %s", s.timeout))
	case execErr != nil:
		s.metrics.RecordError()
		return result, NewRunError("execute", projectID, execErr)
	default:
		result.ExitCode = out.ExitCode
		result.Output = combined
	}

	s.metrics.RecordExecution(result)
	s.logger.Info("명령 실행 완료",
		zap.Int64("project_id", projectID),
		zap.String("run_id", result.RunID),
		zap.Int("exit_code", result.ExitCode),
		zap.Bool("timed_out", result.TimedOut),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}
