package docker

import (
	"context"
	"io"
)

// Client는 샌드박스 실행에 필요한 Docker Container 조작만 추린 인터페이스입니다.
// 테스트 시 mock 구현을 주입할 수 있도록 인터페이스로 정의합니다.
type Client interface {
	// CreateContainer는 새로운 Container를 생성합니다.
	CreateContainer(ctx context.Context, config ContainerConfig) (containerID string, err error)

	// StartContainer는 Container를 시작합니다.
	StartContainer(ctx context.Context, containerID string) error

	// WaitContainer는 Container가 종료될 때까지 기다린 뒤 종료 코드를 반환합니다.
	WaitContainer(ctx context.Context, containerID string) (exitCode int64, err error)

	// ContainerLogs는 stdout/stderr가 multiplex된 로그 스트림을 반환합니다.
	ContainerLogs(ctx context.Context, containerID string) (io.ReadCloser, error)

	// RemoveContainer는 실행 중이어도 Container를 강제로 삭제합니다.
	RemoveContainer(ctx context.Context, containerID string) error

	// Ping은 Docker daemon과의 연결을 확인합니다.
	Ping(ctx context.Context) error

	// Close는 클라이언트 연결을 종료합니다.
	Close() error
}

// ContainerConfig는 Container 생성 설정입니다.
type ContainerConfig struct {
	Image           string            // 이미지 이름 (python:3.12-slim)
	Name            string            // 컨테이너 이름
	Cmd             []string          // 실행할 명령
	WorkingDir      string            // 컨테이너 안의 작업 디렉토리
	Env             []string          // 환경 변수
	User            string            // 실행 사용자 (uid:gid), 비어 있으면 이미지 기본값
	Mounts          []MountConfig     // 볼륨 마운트
	Labels          map[string]string // 라벨
	NetworkDisabled bool              // 네트워크 차단 여부
}

// MountConfig는 볼륨 마운트 설정입니다.
type MountConfig struct {
	Source string // 호스트 경로
	Target string // 컨테이너 경로
}
