// Package snapshot captures whole project file trees into single store records.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/littup/forge/internal/storage"
	"github.com/littup/forge/internal/workspace"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Engine은 프로젝트 파일 트리 전체를 스냅샷으로 저장하고 복원합니다.
type Engine struct {
	repo   *storage.Repository
	files  workspace.Manager
	logger *zap.Logger
}

// NewEngine은 새 Engine을 생성합니다.
func NewEngine(logger *zap.Logger, repo *storage.Repository, files workspace.Manager) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		repo:   repo,
		files:  files,
		logger: logger,
	}
}

// Encode는 경로→내용 맵을 스냅샷 content로 직렬화합니다.
func Encode(tree map[string]string) (datatypes.JSON, error) {
	if tree == nil {
		tree = map[string]string{}
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode tree: %w", err)
	}
	return datatypes.JSON(data), nil
}

// Decode는 스냅샷 content를 경로→내용 맵으로 복원합니다.
func Decode(snap *storage.Snapshot) (map[string]string, error) {
	tree := map[string]string{}
	if snap == nil || len(snap.Content) == 0 {
		return tree, nil
	}
	if err := json.Unmarshal(snap.Content, &tree); err != nil {
		return nil, fmt.Errorf("snapshot: decode #%d: %w", snap.ID, err)
	}
	return tree, nil
}

// Save는 현재 프로젝트 파일 전체를 읽어 스냅샷 하나를 추가합니다.
// 파일 읽기는 트랜잭션 밖에서, 레코드 추가와 프로젝트 갱신은 한 트랜잭션에서 수행합니다.
func (e *Engine) Save(ctx context.Context, projectID int64, note string) (*storage.Snapshot, error) {
	// 없는 프로젝트의 디렉토리가 생기지 않도록 트리를 읽기 전에 확인
	exists, err := e.repo.ProjectExists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrProjectNotFound
	}

	tree, err := e.files.ReadTree(projectID)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read project tree: %w", err)
	}

	content, err := Encode(tree)
	if err != nil {
		return nil, err
	}

	snap := &storage.Snapshot{
		ProjectID: projectID,
		Note:      note,
		Content:   content,
	}
	err = e.repo.Transaction(ctx, func(tx *storage.Repository) error {
		if err := tx.CreateSnapshot(ctx, snap); err != nil {
			return err
		}
		return tx.TouchProject(ctx, projectID)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Snapshot saved",
		zap.Int64("project_id", projectID),
		zap.Int64("snapshot_id", snap.ID),
		zap.String("note", snap.Note),
		zap.Int("files", len(tree)),
		zap.Int("bytes", len(content)),
	)
	return snap, nil
}

// List는 프로젝트 스냅샷을 최신순으로 반환합니다. limit이 0 이하이면 전체를 반환합니다.
func (e *Engine) List(ctx context.Context, projectID int64, limit int) ([]storage.Snapshot, error) {
	return e.repo.ListSnapshots(ctx, projectID, limit)
}

// Get은 스냅샷 하나를 조회합니다.
func (e *Engine) Get(ctx context.Context, projectID, snapshotID int64) (*storage.Snapshot, error) {
	return e.repo.GetSnapshot(ctx, projectID, snapshotID)
}

// Restore는 프로젝트 파일 트리를 스냅샷 시점으로 되돌리고, 복원 결과를 새 스냅샷으로 기록합니다.
func (e *Engine) Restore(ctx context.Context, projectID, snapshotID int64) (*storage.Snapshot, error) {
	snap, err := e.repo.GetSnapshot(ctx, projectID, snapshotID)
	if err != nil {
		return nil, err
	}

	tree, err := Decode(snap)
	if err != nil {
		return nil, err
	}

	if err := e.files.RestoreTree(projectID, tree); err != nil {
		return nil, fmt.Errorf("snapshot: restore tree: %w", err)
	}

	e.logger.Info("Snapshot restored",
		zap.Int64("project_id", projectID),
		zap.Int64("snapshot_id", snapshotID),
		zap.Int("files", len(tree)),
	)
	return e.Save(ctx, projectID, fmt.Sprintf("Restored #%d", snapshotID))
}
