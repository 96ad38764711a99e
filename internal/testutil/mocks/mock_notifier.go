package mocks

import (
	"context"
	"sync"

	"github.com/littup/forge/internal/controller"
)

// MockNotifier는 받은 이벤트를 기록하는 controller.Notifier 구현입니다.
type MockNotifier struct {
	mu     sync.Mutex
	events []controller.Event
}

// ensure MockNotifier implements Notifier
var _ controller.Notifier = (*MockNotifier)(nil)

// Notify implements controller.Notifier.
func (m *MockNotifier) Notify(_ context.Context, event controller.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events는 기록된 모든 이벤트를 반환합니다.
func (m *MockNotifier) Events() []controller.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]controller.Event(nil), m.events...)
}

// Kind는 특정 종류의 이벤트만 반환합니다.
func (m *MockNotifier) Kind(kind controller.EventKind) []controller.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []controller.Event
	for _, e := range m.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
