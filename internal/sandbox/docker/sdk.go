package docker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// SDKClient는 실제 Docker SDK를 사용하는 Client 구현체입니다.
type SDKClient struct {
	client *client.Client
}

// NewClient는 환경 변수(DOCKER_HOST 등)로 설정된 SDKClient를 생성합니다.
func NewClient() (Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("Docker 클라이언트 생성 실패: %w", err)
	}

	return &SDKClient{client: cli}, nil
}

// CreateContainer implements Client.
func (d *SDKClient) CreateContainer(ctx context.Context, config ContainerConfig) (string, error) {
	containerConfig := &container.Config{
		Image:           config.Image,
		Cmd:             config.Cmd,
		WorkingDir:      config.WorkingDir,
		Env:             config.Env,
		User:            config.User,
		Labels:          config.Labels,
		NetworkDisabled: config.NetworkDisabled,
	}

	hostConfig := &container.HostConfig{
		AutoRemove: false,
	}
	if config.NetworkDisabled {
		hostConfig.NetworkMode = "none"
	}

	// 볼륨 마운트 설정
	if len(config.Mounts) > 0 {
		binds := make([]string, 0, len(config.Mounts))
		for _, m := range config.Mounts {
			binds = append(binds, fmt.Sprintf("%s:%s", m.Source, m.Target))
		}
		hostConfig.Binds = binds
	}

	resp, err := d.client.ContainerCreate(
		ctx,
		containerConfig,
		hostConfig,
		nil, // networkingConfig
		nil, // platform
		config.Name,
	)
	if err != nil {
		return "", fmt.Errorf("Container 생성 실패: %w", err)
	}

	return resp.ID, nil
}

// StartContainer implements Client.
func (d *SDKClient) StartContainer(ctx context.Context, containerID string) error {
	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("Container 시작 실패: %w", err)
	}
	return nil
}

// WaitContainer implements Client.
func (d *SDKClient) WaitContainer(ctx context.Context, containerID string) (int64, error) {
	statusCh, errCh := d.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err == nil {
			return 0, errors.New("Container 대기 중 알 수 없는 오류")
		}
		return 0, fmt.Errorf("Container 대기 실패: %w", err)
	case status := <-statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return status.StatusCode, fmt.Errorf("Container 종료 오류: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ContainerLogs implements Client.
func (d *SDKClient) ContainerLogs(ctx context.Context, containerID string) (io.ReadCloser, error) {
	options := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     false,
		Timestamps: false,
	}

	logs, err := d.client.ContainerLogs(ctx, containerID, options)
	if err != nil {
		return nil, fmt.Errorf("Container 로그 조회 실패: %w", err)
	}
	return logs, nil
}

// RemoveContainer implements Client.
func (d *SDKClient) RemoveContainer(ctx context.Context, containerID string) error {
	removeOptions := container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	}

	if err := d.client.ContainerRemove(ctx, containerID, removeOptions); err != nil {
		return fmt.Errorf("Container 삭제 실패: %w", err)
	}
	return nil
}

// Ping implements Client.
func (d *SDKClient) Ping(ctx context.Context) error {
	if _, err := d.client.Ping(ctx); err != nil {
		return fmt.Errorf("Docker daemon 연결 실패: %w", err)
	}
	return nil
}

// Close implements Client.
func (d *SDKClient) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// 인터페이스 구현 확인
var _ Client = (*SDKClient)(nil)
