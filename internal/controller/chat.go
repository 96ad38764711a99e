package controller

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/littup/forge/internal/storage"
	"go.uber.org/zap"
)

// 역할 이름
const (
	RolePlanner    = "Planner"
	RoleCoder      = "Coder"
	RoleTester     = "Tester"
	RoleReviewer   = "Reviewer"
	RoleDocumenter = "Documenter"
)

const (
	// EvolutionNoteLimit은 진화 스냅샷 메모에 포함되는 피드백의 최대 글자 수입니다.
	EvolutionNoteLimit = 60

	// DefaultFeedback은 피드백이 비어 있을 때 사용하는 문구입니다.
	DefaultFeedback = "General improvements"

	reviewerEvolveReply = "Requested another quality and architecture pass."
)

var roles = []string{RolePlanner, RoleCoder, RoleTester, RoleReviewer, RoleDocumenter}

var defaultTeamAssignment = map[string]string{
	RolePlanner:    "Strategos",
	RoleCoder:      "Builder-01",
	RoleTester:     "Guardian-QA",
	RoleReviewer:   "Eagle-Eye",
	RoleDocumenter: "Lorekeeper",
}

// scriptedReplies는 사용자 브리프 하나에 이어지는 고정 응답입니다.
var scriptedReplies = []struct {
	role    string
	content string
}{
	{RoleCoder, "Drafted initial implementation path based on planner brief."},
	{RoleTester, "Prepared sanity checks and regression plan."},
	{RoleReviewer, "Will evaluate quality gate once commit-ready."},
	{RoleDocumenter, "README updates queued for latest architecture."},
}

// Roles는 에이전트 역할 목록을 순서대로 반환합니다.
func Roles() []string {
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}

// DefaultTeamAssignment는 역할별 기본 에이전트 이름을 반환합니다.
func DefaultTeamAssignment() map[string]string {
	out := make(map[string]string, len(defaultTeamAssignment))
	for role, agent := range defaultTeamAssignment {
		out[role] = agent
	}
	return out
}

// MemoryLine은 메시지에 대응하는 Memory 내용입니다.
func MemoryLine(role, content string) string {
	return fmt.Sprintf("%s: %s", role, content)
}

type chatEntry struct {
	role    string
	content string
}

// appendMessages는 메시지와 Memory를 쌍으로 하나의 트랜잭션에 기록하고 프로젝트를 갱신합니다.
func (c *Controller) appendMessages(ctx context.Context, projectID int64, entries []chatEntry) ([]storage.AgentMessage, error) {
	messages := make([]storage.AgentMessage, 0, len(entries))
	memories := make([]storage.Memory, 0, len(entries))

	err := c.repo.Transaction(ctx, func(tx *storage.Repository) error {
		// 존재하지 않는 프로젝트는 FK 에러 대신 not found로 보고
		if err := tx.TouchProject(ctx, projectID); err != nil {
			return err
		}
		for _, entry := range entries {
			msg, err := tx.AppendMessage(ctx, projectID, entry.role, entry.content)
			if err != nil {
				return err
			}
			mem, err := tx.AppendMemory(ctx, projectID, storage.MemorySourceMemoria, MemoryLine(entry.role, entry.content))
			if err != nil {
				return err
			}
			messages = append(messages, *msg)
			memories = append(memories, *mem)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, mem := range memories {
		c.notifier.Notify(ctx, Event{
			Kind:      EventMemory,
			ProjectID: projectID,
			Source:    mem.Source,
			Content:   mem.Content,
			CreatedAt: mem.CreatedAt,
		})
	}
	return messages, nil
}

// AddMessage는 메시지 하나와 그에 대응하는 Memory 하나를 함께 기록합니다.
func (c *Controller) AddMessage(ctx context.Context, projectID int64, role, content string) (*storage.AgentMessage, error) {
	messages, err := c.appendMessages(ctx, projectID, []chatEntry{{role: role, content: content}})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Message added",
		zap.Int64("project_id", projectID),
		zap.String("role", role),
		zap.Int64("seq", messages[0].Seq),
	)
	return &messages[0], nil
}

// Chat은 사용자 브리프를 Planner 메시지로 기록하고, 나머지 네 역할의 고정 응답을 이어서 기록합니다.
// 다섯 메시지는 하나의 트랜잭션으로 저장됩니다.
func (c *Controller) Chat(ctx context.Context, projectID int64, brief string) ([]storage.AgentMessage, error) {
	if strings.TrimSpace(brief) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	entries := make([]chatEntry, 0, len(scriptedReplies)+1)
	entries = append(entries, chatEntry{role: RolePlanner, content: brief})
	for _, reply := range scriptedReplies {
		entries = append(entries, chatEntry{role: reply.role, content: reply.content})
	}

	messages, err := c.appendMessages(ctx, projectID, entries)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Chat turn recorded",
		zap.Int64("project_id", projectID),
		zap.Int("messages", len(messages)),
	)
	return messages, nil
}

// ListMessages는 프로젝트 메시지를 오래된 순서로 반환합니다.
func (c *Controller) ListMessages(ctx context.Context, projectID int64) ([]storage.AgentMessage, error) {
	if err := c.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return c.repo.ListMessages(ctx, projectID)
}

// ListMemories는 프로젝트 Memory 로그를 오래된 순서로 반환합니다.
func (c *Controller) ListMemories(ctx context.Context, projectID int64) ([]storage.Memory, error) {
	if err := c.requireProject(ctx, projectID); err != nil {
		return nil, err
	}
	return c.repo.ListMemories(ctx, projectID)
}

// truncateRunes는 s를 최대 limit 글자(rune)로 자릅니다.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// EvolutionNote는 피드백으로 만든 진화 스냅샷 메모입니다.
func EvolutionNote(feedback string) string {
	return "Evolution: " + truncateRunes(feedback, EvolutionNoteLimit)
}

// FeedbackOrDefault는 비어 있는 피드백을 DefaultFeedback으로 바꿉니다. CLI와 Discord 입력에서 사용합니다.
func FeedbackOrDefault(feedback string) string {
	if strings.TrimSpace(feedback) == "" {
		return DefaultFeedback
	}
	return feedback
}

// Evolve는 Planner/Reviewer 메시지를 추가하고 진화 스냅샷을 저장한 뒤 Planner 메시지를 반환합니다.
// feedback은 빈 문자열을 포함해 받은 그대로 기록됩니다.
func (c *Controller) Evolve(ctx context.Context, projectID int64, feedback string) (string, error) {
	plannerUpdate := "Roadmap evolved with feedback: " + feedback
	if _, err := c.appendMessages(ctx, projectID, []chatEntry{
		{role: RolePlanner, content: plannerUpdate},
		{role: RoleReviewer, content: reviewerEvolveReply},
	}); err != nil {
		return "", err
	}

	snap, err := c.snaps.Save(ctx, projectID, EvolutionNote(feedback))
	if err != nil {
		return "", err
	}
	c.notifySnapshot(ctx, snap)

	c.logger.Info("Project evolved",
		zap.Int64("project_id", projectID),
		zap.Int64("snapshot_id", snap.ID),
	)
	return plannerUpdate, nil
}
