package controller

import (
	"context"
	"fmt"

	"github.com/littup/forge/internal/sandbox"
)

// 프로젝트 실행/테스트 기본 명령
const (
	DefaultRunCommand  = "python main.py"
	DefaultTestCommand = "pytest -q"
)

// RunCommand는 프로젝트 복사본에서 명령을 실행합니다.
// 정책 거부와 타임아웃은 에러가 아니라 Result로 반환됩니다.
func (c *Controller) RunCommand(ctx context.Context, projectID int64, command string) (sandbox.Result, error) {
	if c.sandbox == nil {
		return sandbox.Result{}, fmt.Errorf("controller: sandbox is not configured")
	}
	if err := c.requireProject(ctx, projectID); err != nil {
		return sandbox.Result{}, err
	}

	dir, err := c.files.PathFor(projectID)
	if err != nil {
		return sandbox.Result{}, err
	}
	return c.sandbox.Run(ctx, projectID, dir, command)
}

// RunProject는 python main.py 를 실행합니다.
func (c *Controller) RunProject(ctx context.Context, projectID int64) (sandbox.Result, error) {
	return c.RunCommand(ctx, projectID, DefaultRunCommand)
}

// TestProject는 pytest -q 를 실행합니다.
func (c *Controller) TestProject(ctx context.Context, projectID int64) (sandbox.Result, error) {
	return c.RunCommand(ctx, projectID, DefaultTestCommand)
}

// SandboxMetrics는 명령 실행 메트릭을 반환합니다.
func (c *Controller) SandboxMetrics() sandbox.MetricsSnapshot {
	if c.sandbox == nil {
		return sandbox.MetricsSnapshot{}
	}
	return c.sandbox.Metrics()
}
