package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/littup/forge/internal/sandbox"
	"github.com/littup/forge/internal/snapshot"
	"github.com/littup/forge/internal/storage"
	"github.com/littup/forge/internal/workspace"
	"go.uber.org/zap"
)

// ErrInvalidInput은 비어 있거나 형식이 잘못된 입력에 대해 반환됩니다.
var ErrInvalidInput = errors.New("controller: invalid input")

// Controller는 프로젝트 생명주기, 에이전트 채팅, 스냅샷, 명령 실행을 조율합니다.
// HTTP API, CLI, Discord connector가 모두 이 타입을 통해 core에 접근합니다.
type Controller struct {
	logger   *zap.Logger
	repo     *storage.Repository
	files    workspace.Manager
	snaps    *snapshot.Engine
	sandbox  *sandbox.Sandbox
	notifier Notifier
}

// NewController는 새로운 Controller를 생성합니다.
func NewController(logger *zap.Logger, repo *storage.Repository, files workspace.Manager, sb *sandbox.Sandbox) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		logger:   logger,
		repo:     repo,
		files:    files,
		snaps:    snapshot.NewEngine(logger.Named("snapshot"), repo, files),
		sandbox:  sb,
		notifier: NopNotifier{},
	}
}

// SetNotifier는 메모리 이벤트를 받을 Notifier를 설정합니다. nil이면 이벤트를 버립니다.
func (c *Controller) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	c.notifier = n
}

// requireProject는 프로젝트가 존재하지 않으면 storage.ErrProjectNotFound를 반환합니다.
func (c *Controller) requireProject(ctx context.Context, projectID int64) error {
	if c.repo == nil {
		return fmt.Errorf("controller: repository is not configured")
	}
	exists, err := c.repo.ProjectExists(ctx, projectID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %d", storage.ErrProjectNotFound, projectID)
	}
	return nil
}
