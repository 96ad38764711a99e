package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/littup/forge/internal/sandbox/docker"
	"go.uber.org/zap"
)

const (
	// ContainerWorkDir는 프로젝트 복사본이 마운트되는 컨테이너 경로입니다.
	ContainerWorkDir = "/workspace"

	// ContainerNamePrefix는 실행 컨테이너 이름 접두사입니다.
	ContainerNamePrefix = "littup-run-"

	// LabelRunID는 실행 컨테이너에 붙는 라벨 키입니다.
	LabelRunID = "littup.run"

	cleanupTimeout = 10 * time.Second
)

// DockerExecutor는 일회용 컨테이너 안에서 명령을 실행합니다.
// 프로젝트 복사본은 /workspace 에 bind mount 되고 네트워크는 차단됩니다.
type DockerExecutor struct {
	client docker.Client
	image  string
	logger *zap.Logger
}

// NewDockerExecutor는 새 DockerExecutor를 생성합니다.
func NewDockerExecutor(logger *zap.Logger, client docker.Client, image string) *DockerExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DockerExecutor{
		client: client,
		image:  image,
		logger: logger,
	}
}

// Name implements Executor.
func (e *DockerExecutor) Name() string {
	return ModeDocker
}

// Execute implements Executor.
func (e *DockerExecutor) Execute(ctx context.Context, req Request) (Output, error) {
	containerID, err := e.client.CreateContainer(ctx, docker.ContainerConfig{
		Image:      e.image,
		Name:       ContainerNamePrefix + req.RunID,
		Cmd:        []string{"sh", "-c", req.Command},
		WorkingDir: ContainerWorkDir,
		User:       containerUser(),
		Mounts: []docker.MountConfig{
			{Source: req.WorkDir, Target: ContainerWorkDir},
		},
		Labels:          map[string]string{LabelRunID: req.RunID},
		NetworkDisabled: true,
	})
	if err != nil {
		return Output{ExitCode: -1}, fmt.Errorf("%w: %v", ErrExecutorUnavailable, err)
	}

	// 타임아웃/취소 후에도 컨테이너는 반드시 정리
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err := e.client.RemoveContainer(cleanupCtx, containerID); err != nil {
			e.logger.Warn("실행 컨테이너 삭제 실패",
				zap.String("run_id", req.RunID),
				zap.String("container_id", containerID),
				zap.Error(err),
			)
		}
	}()

	if err := e.client.StartContainer(ctx, containerID); err != nil {
		return Output{ExitCode: -1}, fmt.Errorf("%w: %v", ErrExecutorUnavailable, err)
	}

	exitCode, err := e.client.WaitContainer(ctx, containerID)
	if ctx.Err() != nil {
		// 타임아웃/취소여도 그때까지의 출력은 남김
		logsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		out := Output{ExitCode: -1}
		stdout, stderr, logErr := e.collectLogs(logsCtx, containerID)
		if logErr != nil {
			e.logger.Warn("중단된 컨테이너 로그 수집 실패",
				zap.String("run_id", req.RunID),
				zap.Error(logErr),
			)
			return out, ctx.Err()
		}
		out.Stdout = stdout
		out.Stderr = stderr
		return out, ctx.Err()
	}
	if err != nil {
		return Output{ExitCode: -1}, err
	}

	out := Output{ExitCode: int(exitCode)}
	stdout, stderr, err := e.collectLogs(ctx, containerID)
	if err != nil {
		e.logger.Warn("컨테이너 로그 수집 실패",
			zap.String("run_id", req.RunID),
			zap.Error(err),
		)
		return out, nil
	}
	out.Stdout = stdout
	out.Stderr = stderr
	return out, nil
}

// containerUser는 bind mount에 root 소유 파일이 남지 않도록 호스트 uid:gid를 반환합니다.
// uid를 알 수 없는 플랫폼(windows)에서는 이미지 기본 사용자를 씁니다.
func containerUser() string {
	uid, gid := os.Getuid(), os.Getgid()
	if uid < 0 || gid < 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", uid, gid)
}

// collectLogs는 multiplex된 로그 스트림을 stdout/stderr로 분리합니다.
func (e *DockerExecutor) collectLogs(ctx context.Context, containerID string) (string, string, error) {
	logs, err := e.client.ContainerLogs(ctx, containerID)
	if err != nil {
		return "", "", err
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return "", "", fmt.Errorf("로그 스트림 분리 실패: %w", err)
	}
	return stdout.String(), stderr.String(), nil
}

var _ Executor = (*DockerExecutor)(nil)
