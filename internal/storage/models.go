package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Project는 projects 테이블 레코드를 나타냅니다.
type Project struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:varchar(120);not null;uniqueIndex:idx_projects_name"`
	Template  string    `gorm:"column:template;type:varchar(40);not null;default:'python_script'"`
	Status    string    `gorm:"column:status;type:varchar(40);not null;default:'active'"`
	TeamName  string    `gorm:"column:team_name;type:varchar(120);not null;default:'Core Team'"`
	Summary   string    `gorm:"column:summary;type:text;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime;index:idx_projects_updated_at"`

	Messages  []AgentMessage `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Snapshots []Snapshot     `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	Memories  []Memory       `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (Project) TableName() string {
	return "projects"
}

// AgentMessage는 agent_messages 테이블 레코드를 나타냅니다.
// Seq는 프로젝트별로 단조 증가하며 같은 created_at 사이의 순서를 결정합니다.
type AgentMessage struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID int64     `gorm:"column:project_id;not null;index:idx_agent_messages_project;uniqueIndex:idx_agent_messages_project_seq,priority:1"`
	Seq       int64     `gorm:"column:seq;not null;uniqueIndex:idx_agent_messages_project_seq,priority:2"`
	Role      string    `gorm:"column:role;type:varchar(40);not null"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (AgentMessage) TableName() string {
	return "agent_messages"
}

// Snapshot은 프로젝트 파일 트리 전체를 하나의 JSON 레코드로 보관합니다.
type Snapshot struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID int64          `gorm:"column:project_id;not null;index:idx_snapshots_project"`
	Note      string         `gorm:"column:note;type:varchar(255);not null;default:'Checkpoint'"`
	Content   datatypes.JSON `gorm:"column:content;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (Snapshot) TableName() string {
	return "snapshots"
}

// Memory는 채팅 메시지의 비정규화된 사본입니다.
type Memory struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProjectID int64     `gorm:"column:project_id;not null;index:idx_memories_project;uniqueIndex:idx_memories_project_seq,priority:1"`
	Seq       int64     `gorm:"column:seq;not null;uniqueIndex:idx_memories_project_seq,priority:2"`
	Source    string    `gorm:"column:source;type:varchar(80);not null;default:'Memoria'"`
	Content   string    `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

// TableName은 gorm Tabler 인터페이스를 구현합니다.
func (Memory) TableName() string {
	return "memories"
}
