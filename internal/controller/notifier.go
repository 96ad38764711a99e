package controller

import (
	"context"
	"time"
)

// EventKind는 Notifier로 전달되는 이벤트 종류입니다.
type EventKind string

const (
	// EventMemory는 채팅 메시지가 메모리 로그에 기록되었을 때 발생합니다.
	EventMemory EventKind = "memory"
	// EventSnapshot은 스냅샷이 저장되었을 때 발생합니다.
	EventSnapshot EventKind = "snapshot"
)

// Event는 외부로 동기화되는 메모리/스냅샷 요약입니다.
type Event struct {
	Kind      EventKind
	ProjectID int64
	Source    string
	Content   string
	CreatedAt time.Time
}

// Notifier는 메모리 이벤트를 외부 채널로 전달합니다.
// 구현체는 블로킹하지 않아야 하며 실패를 호출자에게 전파하지 않습니다.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NopNotifier는 모든 이벤트를 버립니다.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) {}
