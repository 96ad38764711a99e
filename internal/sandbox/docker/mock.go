package docker

import (
	"context"
	"io"
	"strings"
)

// MockClient는 테스트용 Client 구현입니다. Func 필드가 nil이면 성공 값을 반환합니다.
type MockClient struct {
	CreateContainerFunc func(ctx context.Context, config ContainerConfig) (string, error)
	StartContainerFunc  func(ctx context.Context, containerID string) error
	WaitContainerFunc   func(ctx context.Context, containerID string) (int64, error)
	ContainerLogsFunc   func(ctx context.Context, containerID string) (io.ReadCloser, error)
	RemoveContainerFunc func(ctx context.Context, containerID string) error
	PingFunc            func(ctx context.Context) error
	CloseFunc           func() error
}

func (m *MockClient) CreateContainer(ctx context.Context, config ContainerConfig) (string, error) {
	if m.CreateContainerFunc != nil {
		return m.CreateContainerFunc(ctx, config)
	}
	return "mock-container-id", nil
}

func (m *MockClient) StartContainer(ctx context.Context, containerID string) error {
	if m.StartContainerFunc != nil {
		return m.StartContainerFunc(ctx, containerID)
	}
	return nil
}

func (m *MockClient) WaitContainer(ctx context.Context, containerID string) (int64, error) {
	if m.WaitContainerFunc != nil {
		return m.WaitContainerFunc(ctx, containerID)
	}
	return 0, nil
}

func (m *MockClient) ContainerLogs(ctx context.Context, containerID string) (io.ReadCloser, error) {
	if m.ContainerLogsFunc != nil {
		return m.ContainerLogsFunc(ctx, containerID)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *MockClient) RemoveContainer(ctx context.Context, containerID string) error {
	if m.RemoveContainerFunc != nil {
		return m.RemoveContainerFunc(ctx, containerID)
	}
	return nil
}

func (m *MockClient) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var _ Client = (*MockClient)(nil)
