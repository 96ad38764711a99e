package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrProjectNotFound는 존재하지 않는 프로젝트를 참조할 때 반환됩니다.
	ErrProjectNotFound = errors.New("storage: project not found")
	// ErrProjectNameTaken은 같은 이름의 프로젝트가 이미 있을 때 반환됩니다.
	ErrProjectNameTaken = errors.New("storage: project name already exists")
	// ErrSnapshotNotFound는 존재하지 않는 스냅샷을 참조할 때 반환됩니다.
	ErrSnapshotNotFound = errors.New("storage: snapshot not found")
)

// Repository는 LittUp 도메인 객체를 위한 영속성 헬퍼를 제공합니다.
// Transaction 안에서 받은 Repository는 같은 트랜잭션에 묶입니다.
type Repository struct {
	db *gorm.DB
}

// NewRepository는 전달된 gorm DB를 이용해 Repository를 생성합니다.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: repository requires a non-nil db handle")
	}
	return &Repository{db: db}, nil
}

// DB는 내부 gorm DB 참조를 반환합니다.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Transaction은 하나의 작업 단위를 실행합니다.
// fn이 nil을 반환하면 commit, 에러를 반환하거나 panic이 발생하면 rollback 후 그대로 전파합니다.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// CreateProject는 새로운 프로젝트 레코드를 저장합니다.
func (r *Repository) CreateProject(ctx context.Context, project *Project) error {
	if project == nil {
		return fmt.Errorf("storage: nil project payload")
	}
	if project.Name == "" {
		return fmt.Errorf("storage: empty project name")
	}
	if project.Template == "" {
		project.Template = DefaultTemplate
	}
	if project.Status == "" {
		project.Status = ProjectStatusActive
	}
	if project.TeamName == "" {
		project.TeamName = DefaultTeamName
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrProjectNameTaken, project.Name)
		}
		return err
	}
	return nil
}

// GetProject는 식별자로 프로젝트를 조회합니다.
func (r *Repository) GetProject(ctx context.Context, id int64) (*Project, error) {
	var project Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrProjectNotFound, id)
		}
		return nil, err
	}
	return &project, nil
}

// ProjectExists는 프로젝트 존재 여부를 확인합니다.
func (r *Repository) ProjectExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&Project{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListProjects는 최근 수정된 순서로 프로젝트 목록을 반환합니다.
func (r *Repository) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// TouchProject는 프로젝트의 updated_at을 현재 시각으로 갱신합니다.
func (r *Repository) TouchProject(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&Project{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrProjectNotFound, id)
	}
	return nil
}

// ProjectUpdate는 변경할 필드만 채운 부분 갱신 요청입니다.
type ProjectUpdate struct {
	Status   *string
	Summary  *string
	TeamName *string
}

// UpdateProject는 지정된 필드를 갱신하고 updated_at을 함께 바꿉니다.
func (r *Repository) UpdateProject(ctx context.Context, id int64, update ProjectUpdate) error {
	fields := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.Summary != nil {
		fields["summary"] = *update.Summary
	}
	if update.TeamName != nil {
		fields["team_name"] = *update.TeamName
	}

	res := r.db.WithContext(ctx).
		Model(&Project{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrProjectNotFound, id)
	}
	return nil
}

// DeleteProject는 프로젝트와 하위 레코드를 모두 삭제합니다.
// foreign key CASCADE가 꺼진 연결에서도 동일하게 동작하도록 하위 테이블을 먼저 비웁니다.
func (r *Repository) DeleteProject(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&AgentMessage{}, &Memory{}, &Snapshot{}} {
			if err := tx.Where("project_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&Project{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrProjectNotFound, id)
		}
		return nil
	})
}

// nextSeq는 프로젝트별 다음 순번을 계산합니다.
func (r *Repository) nextSeq(ctx context.Context, model interface{}, projectID int64) (int64, error) {
	var maxSeq struct {
		MaxSeq *int64
	}
	if err := r.db.WithContext(ctx).
		Model(model).
		Select("MAX(seq) as max_seq").
		Where("project_id = ?", projectID).
		Scan(&maxSeq).Error; err != nil {
		return 0, err
	}
	if maxSeq.MaxSeq == nil {
		return 1, nil
	}
	return *maxSeq.MaxSeq + 1, nil
}

// AppendMessage는 프로젝트 대화 로그에 메시지를 추가합니다 (Seq 자동 증가).
// role은 자유 문자열이며 빈 값도 그대로 저장합니다.
func (r *Repository) AppendMessage(ctx context.Context, projectID int64, role, content string) (*AgentMessage, error) {
	seq, err := r.nextSeq(ctx, &AgentMessage{}, projectID)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to get next message seq: %w", err)
	}

	payload := &AgentMessage{
		ProjectID: projectID,
		Seq:       seq,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(payload).Error; err != nil {
		return nil, err
	}
	return payload, nil
}

// ListMessages는 프로젝트 메시지를 작성 순서대로 반환합니다.
func (r *Repository) ListMessages(ctx context.Context, projectID int64) ([]AgentMessage, error) {
	var rows []AgentMessage
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendMemory는 Memory 로그에 한 줄을 추가합니다.
func (r *Repository) AppendMemory(ctx context.Context, projectID int64, source, content string) (*Memory, error) {
	if source == "" {
		source = MemorySourceMemoria
	}

	seq, err := r.nextSeq(ctx, &Memory{}, projectID)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to get next memory seq: %w", err)
	}

	payload := &Memory{
		ProjectID: projectID,
		Seq:       seq,
		Source:    source,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(payload).Error; err != nil {
		return nil, err
	}
	return payload, nil
}

// ListMemories는 프로젝트 Memory를 작성 순서대로 반환합니다.
func (r *Repository) ListMemories(ctx context.Context, projectID int64) ([]Memory, error) {
	var rows []Memory
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateSnapshot은 스냅샷 레코드를 저장합니다.
func (r *Repository) CreateSnapshot(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("storage: nil snapshot payload")
	}
	if snapshot.Note == "" {
		snapshot.Note = DefaultSnapshotNote
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(snapshot).Error
}

// GetSnapshot은 프로젝트에 속한 스냅샷 하나를 조회합니다.
func (r *Repository) GetSnapshot(ctx context.Context, projectID, snapshotID int64) (*Snapshot, error) {
	var snapshot Snapshot
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND id = ?", projectID, snapshotID).
		First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrSnapshotNotFound, snapshotID)
		}
		return nil, err
	}
	return &snapshot, nil
}

// ListSnapshots는 최신 스냅샷부터 반환합니다. limit이 0 이하이면 전체를 반환합니다.
func (r *Repository) ListSnapshots(ctx context.Context, projectID int64, limit int) ([]Snapshot, error) {
	q := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var snapshots []Snapshot
	if err := q.Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// CountSnapshots는 프로젝트의 스냅샷 개수를 반환합니다.
func (r *Repository) CountSnapshots(ctx context.Context, projectID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&Snapshot{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
