package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/littup/forge/internal/snapshot"
	"github.com/littup/forge/internal/storage"
)

// HistoryWindow는 화면에 표시하는 최근 스냅샷 개수입니다.
const HistoryWindow = 10

// maxNoteLength는 스냅샷 메모의 최대 글자 수입니다 (snapshots.note 컬럼 길이).
const maxNoteLength = 255

// SaveSnapshot은 현재 파일 트리 전체를 스냅샷으로 저장합니다.
func (c *Controller) SaveSnapshot(ctx context.Context, projectID int64, note string) (*storage.Snapshot, error) {
	if err := c.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	snap, err := c.snaps.Save(ctx, projectID, truncateRunes(strings.TrimSpace(note), maxNoteLength))
	if err != nil {
		return nil, err
	}
	c.notifySnapshot(ctx, snap)
	return snap, nil
}

// ListSnapshots는 최신순 스냅샷을 반환합니다. limit이 0 이하이면 전체를 반환합니다.
func (c *Controller) ListSnapshots(ctx context.Context, projectID int64, limit int) ([]storage.Snapshot, error) {
	if err := c.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return c.snaps.List(ctx, projectID, limit)
}

// GetSnapshot은 스냅샷과 그 파일 트리를 반환합니다.
func (c *Controller) GetSnapshot(ctx context.Context, projectID, snapshotID int64) (*storage.Snapshot, map[string]string, error) {
	if err := c.requireProject(ctx, projectID); err != nil {
		return nil, nil, err
	}

	snap, err := c.snaps.Get(ctx, projectID, snapshotID)
	if err != nil {
		return nil, nil, err
	}
	tree, err := snapshot.Decode(snap)
	if err != nil {
		return nil, nil, err
	}
	return snap, tree, nil
}

// RestoreSnapshot은 파일 트리를 스냅샷 시점으로 되돌리고 새로 기록된 스냅샷을 반환합니다.
func (c *Controller) RestoreSnapshot(ctx context.Context, projectID, snapshotID int64) (*storage.Snapshot, error) {
	if err := c.requireProject(ctx, projectID); err != nil {
		return nil, err
	}

	snap, err := c.snaps.Restore(ctx, projectID, snapshotID)
	if err != nil {
		return nil, err
	}
	c.notifySnapshot(ctx, snap)
	return snap, nil
}

// notifySnapshot은 스냅샷 요약을 Notifier로 전달합니다.
func (c *Controller) notifySnapshot(ctx context.Context, snap *storage.Snapshot) {
	if snap == nil {
		return
	}
	c.notifier.Notify(ctx, Event{
		Kind:      EventSnapshot,
		ProjectID: snap.ProjectID,
		Source:    storage.MemorySourceMemoria,
		Content:   fmt.Sprintf("Snapshot #%d: %s", snap.ID, snap.Note),
		CreatedAt: snap.CreatedAt,
	})
}
