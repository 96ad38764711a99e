package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/littup/forge/internal/storage"
	"github.com/littup/forge/internal/workspace"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// InitialSnapshotNote는 프로젝트 생성 직후 저장되는 스냅샷 메모입니다.
const InitialSnapshotNote = "Initial template scaffold"

// normalizeInput은 사용자 입력 문자열을 NFC로 정규화하고 앞뒤 공백을 제거합니다.
func normalizeInput(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// CreateProject는 프로젝트 레코드를 만들고, 템플릿 파일을 복사하고, 초기 스냅샷을 저장합니다.
// 레코드 저장 이후 단계가 실패하면 레코드와 디렉토리를 삭제해 고아 프로젝트를 남기지 않습니다.
func (c *Controller) CreateProject(ctx context.Context, name, template, teamName string) (*storage.Project, error) {
	name = normalizeInput(name)
	template = strings.TrimSpace(template)
	teamName = normalizeInput(teamName)

	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	if template == "" {
		template = storage.DefaultTemplate
	}
	if !workspace.ValidTemplateName(template) {
		return nil, fmt.Errorf("%w: template %q", ErrInvalidInput, template)
	}

	c.logger.Info("Creating project",
		zap.String("name", name),
		zap.String("template", template),
		zap.String("team_name", teamName),
	)

	project := &storage.Project{
		Name:     name,
		Template: template,
		TeamName: teamName,
		Status:   storage.ProjectStatusActive,
	}
	if err := c.repo.CreateProject(ctx, project); err != nil {
		c.logger.Error("Failed to persist project", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	if _, err := c.files.Seed(project.ID, template); err != nil {
		c.rollbackCreate(ctx, project.ID)
		return nil, fmt.Errorf("controller: seed project files: %w", err)
	}

	snap, err := c.snaps.Save(ctx, project.ID, InitialSnapshotNote)
	if err != nil {
		c.rollbackCreate(ctx, project.ID)
		return nil, fmt.Errorf("controller: initial snapshot: %w", err)
	}
	c.notifySnapshot(ctx, snap)

	created, err := c.repo.GetProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Project created successfully",
		zap.Int64("project_id", created.ID),
		zap.String("name", created.Name),
	)
	return created, nil
}

// rollbackCreate는 실패한 프로젝트 생성의 부분 결과를 정리합니다.
func (c *Controller) rollbackCreate(ctx context.Context, projectID int64) {
	cleanupCtx := context.WithoutCancel(ctx)
	if err := c.repo.DeleteProject(cleanupCtx, projectID); err != nil {
		c.logger.Error("Failed to roll back project row", zap.Int64("project_id", projectID), zap.Error(err))
	}
	if err := c.files.Remove(projectID); err != nil {
		c.logger.Error("Failed to roll back project directory", zap.Int64("project_id", projectID), zap.Error(err))
	}
	c.logger.Warn("Project creation rolled back", zap.Int64("project_id", projectID))
}

// GetProject는 프로젝트 하나를 조회합니다.
func (c *Controller) GetProject(ctx context.Context, projectID int64) (*storage.Project, error) {
	return c.repo.GetProject(ctx, projectID)
}

// ListProjects는 최근 수정된 순서로 프로젝트 목록을 반환합니다.
func (c *Controller) ListProjects(ctx context.Context) ([]storage.Project, error) {
	return c.repo.ListProjects(ctx)
}

// ProjectChanges는 UpdateProject에서 변경할 필드입니다. nil 필드는 유지됩니다.
type ProjectChanges struct {
	Status   *string
	Summary  *string
	TeamName *string
}

// UpdateProject는 프로젝트 상태, 요약, 팀 이름을 부분 갱신합니다.
func (c *Controller) UpdateProject(ctx context.Context, projectID int64, changes ProjectChanges) (*storage.Project, error) {
	update := storage.ProjectUpdate{Summary: changes.Summary}

	if changes.Status != nil {
		status := strings.TrimSpace(*changes.Status)
		if status != storage.ProjectStatusActive && status != storage.ProjectStatusArchived {
			return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
		}
		update.Status = &status
	}
	if changes.TeamName != nil {
		team := normalizeInput(*changes.TeamName)
		if team == "" {
			return nil, fmt.Errorf("%w: team name is required", ErrInvalidInput)
		}
		update.TeamName = &team
	}

	if err := c.repo.UpdateProject(ctx, projectID, update); err != nil {
		return nil, err
	}

	c.logger.Info("Project updated", zap.Int64("project_id", projectID))
	return c.repo.GetProject(ctx, projectID)
}

// DeleteProject는 프로젝트 레코드(하위 레코드 포함)와 파일 디렉토리를 삭제합니다.
func (c *Controller) DeleteProject(ctx context.Context, projectID int64) error {
	c.logger.Info("Deleting project", zap.Int64("project_id", projectID))

	if err := c.repo.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	if err := c.files.Remove(projectID); err != nil {
		return err
	}

	c.logger.Info("Project deleted successfully", zap.Int64("project_id", projectID))
	return nil
}

// Templates는 사용 가능한 템플릿 이름을 반환합니다.
func (c *Controller) Templates() ([]string, error) {
	return c.files.Templates()
}
