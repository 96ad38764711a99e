package controller

import (
	"context"
	"strings"

	"github.com/littup/forge/internal/storage"
	"go.uber.org/zap"
)

// ListFiles는 프로젝트 파일 목록을 반환합니다.
func (c *Controller) ListFiles(ctx context.Context, projectID int64) ([]string, error) {
	if err := c.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return c.files.ListFiles(projectID)
}

// ReadFile은 프로젝트 파일 내용을 반환합니다. 파일이 없으면 빈 문자열입니다.
func (c *Controller) ReadFile(ctx context.Context, projectID int64, relPath string) (string, error) {
	if err := c.requireProject(ctx, projectID); err != nil {
		return "", err
	}
	return c.files.ReadFile(projectID, relPath)
}

// WriteFile은 프로젝트 파일을 쓰고 프로젝트 수정 시각을 갱신합니다. 스냅샷은 만들지 않습니다.
func (c *Controller) WriteFile(ctx context.Context, projectID int64, relPath, content string) error {
	if err := c.requireProject(ctx, projectID); err != nil {
		return err
	}
	if err := c.files.WriteFile(projectID, relPath, content); err != nil {
		return err
	}
	return c.repo.TouchProject(ctx, projectID)
}

// SaveFile은 파일을 쓰고 "Edited <path>" 스냅샷을 저장합니다.
func (c *Controller) SaveFile(ctx context.Context, projectID int64, relPath, content string) (*storage.Snapshot, error) {
	if err := c.WriteFile(ctx, projectID, relPath, content); err != nil {
		return nil, err
	}

	snap, err := c.SaveSnapshot(ctx, projectID, "Edited "+strings.TrimSpace(relPath))
	if err != nil {
		return nil, err
	}

	c.logger.Info("File saved",
		zap.Int64("project_id", projectID),
		zap.String("path", relPath),
		zap.Int64("snapshot_id", snap.ID),
	)
	return snap, nil
}
