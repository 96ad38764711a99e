package api

import (
	"time"

	"github.com/littup/forge/internal/sandbox"
	"github.com/littup/forge/internal/storage"
)

// HealthResponse는 GET /health 응답입니다.
type HealthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
	Env    string `json:"env"`
}

// ProjectSummary는 프로젝트 목록 항목입니다.
type ProjectSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Template  string `json:"template"`
	UpdatedAt string `json:"updated_at"`
	TeamName  string `json:"team_name"`
}

// ProjectDetail은 단일 프로젝트 응답입니다.
type ProjectDetail struct {
	ProjectSummary
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

// CreateProjectRequest는 POST /projects 요청입니다.
type CreateProjectRequest struct {
	Name     string `json:"name" binding:"required"`
	Template string `json:"template"`
	TeamName string `json:"team_name"`
}

// CreateProjectResponse는 POST /projects 응답입니다.
type CreateProjectResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UpdateProjectRequest는 PATCH /projects/{id} 요청입니다.
type UpdateProjectRequest struct {
	Status   *string `json:"status"`
	Summary  *string `json:"summary"`
	TeamName *string `json:"team_name"`
}

// MessageRequest는 POST /projects/{id}/chat 요청입니다.
type MessageRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// BriefRequest는 POST /projects/{id}/brief 요청입니다.
type BriefRequest struct {
	Content string `json:"content" binding:"required"`
}

// MessageResponse는 채팅 메시지 항목입니다.
type MessageResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// MemoryResponse는 Memory 로그 항목입니다.
type MemoryResponse struct {
	Source    string `json:"source"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// EvolveRequest는 POST /projects/{id}/evolve 요청입니다.
type EvolveRequest struct {
	Feedback string `json:"feedback"`
}

// EvolveResponse는 POST /projects/{id}/evolve 응답입니다.
type EvolveResponse struct {
	Message string `json:"message"`
}

// SnapshotRequest는 POST /projects/{id}/history 요청입니다.
type SnapshotRequest struct {
	Note string `json:"note"`
}

// SnapshotResponse는 스냅샷 목록 항목입니다.
type SnapshotResponse struct {
	ID        int64  `json:"id"`
	Note      string `json:"note"`
	CreatedAt string `json:"created_at"`
}

// SnapshotDetail은 파일 트리를 포함한 스냅샷 응답입니다.
type SnapshotDetail struct {
	SnapshotResponse
	Files map[string]string `json:"files"`
}

// FileResponse는 GET /projects/{id}/file 응답입니다.
type FileResponse struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileWriteRequest는 PUT /projects/{id}/file 요청입니다.
// Snapshot이 true이면 "Edited <path>" 스냅샷을 함께 저장합니다.
type FileWriteRequest struct {
	Path     string `json:"path" binding:"required"`
	Content  string `json:"content"`
	Snapshot bool   `json:"snapshot"`
}

// RunRequest는 POST /projects/{id}/run 요청입니다. 명령이 비어 있으면 python main.py 입니다.
type RunRequest struct {
	Command string `json:"command"`
}

// RunResponse는 명령 실행 결과입니다.
type RunResponse struct {
	RunID      string `json:"run_id"`
	Command    string `json:"command"`
	ExitCode   int    `json:"exit_code"`
	Output     string `json:"output"`
	Rejected   bool   `json:"rejected"`
	TimedOut   bool   `json:"timed_out"`
	DurationMs int64  `json:"duration_ms"`
}

// OKResponse는 본문이 없는 성공 응답입니다.
type OKResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse는 모든 에러 응답 본문입니다.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RolesResponse는 GET /roles 응답입니다.
type RolesResponse struct {
	Roles       []string          `json:"roles"`
	DefaultTeam map[string]string `json:"default_team"`
}

// timestamp는 ISO-8601 UTC 문자열을 반환합니다.
func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toProjectSummary(p storage.Project) ProjectSummary {
	return ProjectSummary{
		ID:        p.ID,
		Name:      p.Name,
		Status:    p.Status,
		Template:  p.Template,
		UpdatedAt: timestamp(p.UpdatedAt),
		TeamName:  p.TeamName,
	}
}

func toProjectDetail(p *storage.Project) ProjectDetail {
	return ProjectDetail{
		ProjectSummary: toProjectSummary(*p),
		Summary:        p.Summary,
		CreatedAt:      timestamp(p.CreatedAt),
	}
}

func toSnapshotResponse(s storage.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:        s.ID,
		Note:      s.Note,
		CreatedAt: timestamp(s.CreatedAt),
	}
}

func toRunResponse(r sandbox.Result) RunResponse {
	return RunResponse{
		RunID:      r.RunID,
		Command:    r.Command,
		ExitCode:   r.ExitCode,
		Output:     r.Output,
		Rejected:   r.Rejected,
		TimedOut:   r.TimedOut,
		DurationMs: r.Duration.Milliseconds(),
	}
}
