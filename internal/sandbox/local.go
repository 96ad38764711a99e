package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// localWaitDelay는 종료 신호 후 출력 파이프를 기다리는 최대 시간입니다.
const localWaitDelay = 2 * time.Second

// LocalExecutor는 호스트에서 sh -c 로 명령을 실행합니다.
type LocalExecutor struct {
	shell  string
	logger *zap.Logger
}

// NewLocalExecutor는 새 LocalExecutor를 생성합니다.
func NewLocalExecutor(logger *zap.Logger) *LocalExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalExecutor{
		shell:  "sh",
		logger: logger,
	}
}

// Name implements Executor.
func (e *LocalExecutor) Name() string {
	return ModeLocal
}

// Execute implements Executor.
func (e *LocalExecutor) Execute(ctx context.Context, req Request) (Output, error) {
	cmd := exec.CommandContext(ctx, e.shell, "-c", req.Command)
	cmd.Dir = req.WorkDir
	cmd.WaitDelay = localWaitDelay
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	case ctx.Err() != nil:
		out.ExitCode = -1
		return out, ctx.Err()
	default:
		e.logger.Error("프로세스 시작 실패",
			zap.String("run_id", req.RunID),
			zap.Error(err),
		)
		return out, fmt.Errorf("%w: %v", ErrExecutorUnavailable, err)
	}
}

var _ Executor = (*LocalExecutor)(nil)
