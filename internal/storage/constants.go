package storage

const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"

	DefaultTemplate = "python_script"
	DefaultTeamName = "Core Team"

	DefaultSnapshotNote = "Checkpoint"

	// MemorySourceMemoria는 채팅 미러링으로 생성된 Memory의 source 값입니다.
	MemorySourceMemoria = "Memoria"
)
