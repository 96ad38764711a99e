package connector

import (
	"fmt"
	"strings"
	"time"

	"github.com/littup/forge/internal/controller"
	"github.com/littup/forge/internal/storage"
)

// truncate는 문자열을 최대 길이(rune)로 자르고 "..."을 추가합니다.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatEvent는 Memory 이벤트를 채널 메시지 한 줄로 만듭니다.
func FormatEvent(event controller.Event) string {
	var b strings.Builder
	switch event.Kind {
	case controller.EventSnapshot:
		b.WriteString("📸 ")
	default:
		b.WriteString("🧠 ")
	}
	fmt.Fprintf(&b, "[project #%d] %s", event.ProjectID, event.Content)
	return truncate(b.String(), maxMessageLength)
}

// formatProjectList는 /forge projects 응답 본문입니다.
func formatProjectList(projects []storage.Project) string {
	if len(projects) == 0 {
		return "아직 프로젝트가 없어요. `littup project create`로 먼저 만들어주세요!"
	}

	var b strings.Builder
	b.WriteString("**프로젝트 목록**\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "• #%d **%s** · %s · %s · %s\n",
			p.ID, p.Name, p.Template, p.Status, p.UpdatedAt.UTC().Format(time.RFC3339))
	}
	return truncate(b.String(), maxMessageLength)
}

// formatHistory는 /forge history 응답 본문입니다.
func formatHistory(project *storage.Project, snapshots []storage.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** 최근 스냅샷\n", project.Name)
	if len(snapshots) == 0 {
		b.WriteString("(스냅샷 없음)")
		return b.String()
	}
	for _, s := range snapshots {
		fmt.Fprintf(&b, "• #%d %s — %s\n", s.ID, s.CreatedAt.UTC().Format(time.RFC3339), s.Note)
	}
	return truncate(b.String(), maxMessageLength)
}

// formatChat은 /forge chat 응답 본문입니다.
func formatChat(messages []storage.AgentMessage) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "**%s**: %s\n", m.Role, m.Content)
	}
	return truncate(b.String(), maxMessageLength)
}
