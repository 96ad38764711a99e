package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/littup/forge/internal/sandbox/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// multiplexed는 Docker 로그 스트림 형식으로 stdout/stderr를 인코딩합니다.
func multiplexed(t *testing.T, stdout, stderr string) io.ReadCloser {
	t.Helper()
	var buf bytes.Buffer
	_, err := stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(stdout))
	require.NoError(t, err)
	_, err = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(stderr))
	require.NoError(t, err)
	return io.NopCloser(&buf)
}

func TestDockerExecutor_Run(t *testing.T) {
	var created docker.ContainerConfig
	removed := ""
	client := &docker.MockClient{
		CreateContainerFunc: func(ctx context.Context, config docker.ContainerConfig) (string, error) {
			created = config
			return "c-1", nil
		},
		WaitContainerFunc: func(ctx context.Context, containerID string) (int64, error) {
			return 2, nil
		},
		ContainerLogsFunc: func(ctx context.Context, containerID string) (io.ReadCloser, error) {
			return multiplexed(t, "collected 1 item\n", "1 failed\n"), nil
		},
		RemoveContainerFunc: func(ctx context.Context, containerID string) error {
			removed = containerID
			return nil
		},
	}

	tempRoot := t.TempDir()
	sb := New(zaptest.NewLogger(t), NewDockerExecutor(zaptest.NewLogger(t), client, "python:3.12-slim"), Config{TempDir: tempRoot})

	result, err := sb.Run(context.Background(), 9, newProjectDir(t, map[string]string{"test_main.py": "def test(): pass"}), "pytest -q")
	require.NoError(t, err)

	assert.Equal(t, 2, result.ExitCode)
	assert.Equal(t, "collected 1 item\n\n1 failed", result.Output)
	assert.Equal(t, "c-1", removed, "container must be force-removed")

	assert.Equal(t, "python:3.12-slim", created.Image)
	assert.Equal(t, []string{"sh", "-c", "pytest -q"}, created.Cmd)
	assert.Equal(t, ContainerWorkDir, created.WorkingDir)
	assert.True(t, created.NetworkDisabled)
	assert.Equal(t, fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()), created.User, "container must not run as root")
	require.Len(t, created.Mounts, 1)
	assert.Equal(t, ContainerWorkDir, created.Mounts[0].Target)
	assert.Equal(t, ContainerNamePrefix+result.RunID, created.Name)
	assert.Equal(t, result.RunID, created.Labels[LabelRunID])
	assertEmptyDir(t, tempRoot)
}

func TestDockerExecutor_TimeoutRemovesContainer(t *testing.T) {
	removed := false
	client := &docker.MockClient{
		WaitContainerFunc: func(ctx context.Context, containerID string) (int64, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
		RemoveContainerFunc: func(ctx context.Context, containerID string) error {
			// 정리 컨텍스트는 실행 타임아웃과 무관해야 함
			if ctx.Err() != nil {
				return ctx.Err()
			}
			removed = true
			return nil
		},
	}

	tempRoot := t.TempDir()
	sb := New(zaptest.NewLogger(t), NewDockerExecutor(nil, client, "python:3.12-slim"), Config{
		TempDir: tempRoot,
		Timeout: 100 * time.Millisecond,
	})

	result, err := sb.Run(context.Background(), 9, newProjectDir(t, nil), "python -c 'import time; time.sleep(60)'")
	require.NoError(t, err)

	assert.True(t, result.TimedOut)
	assert.Equal(t, TimeoutExitCode, result.ExitCode)
	assert.Equal(t, "Command timed out after 100ms", result.Output)
	assert.True(t, removed)
	assertEmptyDir(t, tempRoot)
}

func TestDockerExecutor_TimeoutKeepsPartialOutput(t *testing.T) {
	client := &docker.MockClient{
		WaitContainerFunc: func(ctx context.Context, containerID string) (int64, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
		ContainerLogsFunc: func(ctx context.Context, containerID string) (io.ReadCloser, error) {
			// 로그 수집은 만료된 실행 컨텍스트가 아니라 정리 컨텍스트로 해야 함
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return multiplexed(t, "step 1 done\n", "warning: slow\n"), nil
		},
	}

	sb := New(zaptest.NewLogger(t), NewDockerExecutor(nil, client, "python:3.12-slim"), Config{
		TempDir: t.TempDir(),
		Timeout: 50 * time.Millisecond,
	})

	result, err := sb.Run(context.Background(), 3, newProjectDir(t, nil), "python slow.py")
	require.NoError(t, err)

	assert.True(t, result.TimedOut)
	assert.Equal(t, TimeoutExitCode, result.ExitCode)
	assert.Equal(t, "step 1 done\n\nwarning: slow\nCommand timed out after 50ms", result.Output)
}

func TestDockerExecutor_CreateFailure(t *testing.T) {
	client := &docker.MockClient{
		CreateContainerFunc: func(ctx context.Context, config docker.ContainerConfig) (string, error) {
			return "", errors.New("no such image")
		},
	}
	sb := New(zaptest.NewLogger(t), NewDockerExecutor(nil, client, "missing:latest"), Config{TempDir: t.TempDir()})

	_, err := sb.Run(context.Background(), 1, newProjectDir(t, nil), "python main.py")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecutorUnavailable)
}

func TestMetrics_SnapshotAndReset(t *testing.T) {
	m := &Metrics{}
	m.RecordRejected()
	m.RecordExecution(Result{ExitCode: 0, Duration: 10 * time.Millisecond})
	m.RecordExecution(Result{ExitCode: 1, Duration: 30 * time.Millisecond})
	m.RecordExecution(Result{ExitCode: TimeoutExitCode, TimedOut: true, Duration: 20 * time.Millisecond})
	m.RecordError()

	snap := m.GetSnapshot()
	assert.Equal(t, int64(5), snap.RunsTotal)
	assert.Equal(t, int64(1), snap.RunsRejected)
	assert.Equal(t, int64(1), snap.RunsSucceeded)
	assert.Equal(t, int64(1), snap.RunsFailed)
	assert.Equal(t, int64(1), snap.RunsTimedOut)
	assert.Equal(t, int64(1), snap.ErrorsTotal)
	assert.InDelta(t, 20.0, snap.AvgExecutionTimeMs, 0.001)

	m.Reset()
	assert.Equal(t, MetricsSnapshot{}, m.GetSnapshot())
}
