// Package mocks provides test doubles shared across package tests.
package mocks

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/littup/forge/internal/sandbox"
)

// MockExecutor는 테스트용 sandbox.Executor 구현입니다.
// 실제 프로세스를 만들지 않고, 명령별로 미리 정한 출력을 돌려줍니다.
type MockExecutor struct {
	mu sync.Mutex

	// Responses는 명령별 출력을 정의합니다.
	Responses map[string]sandbox.Output

	// Errors는 명령별 에러를 정의합니다.
	Errors map[string]error

	// Calls는 Execute 호출 기록입니다.
	Calls []sandbox.Request

	// Files는 호출마다 작업 디렉토리에서 본 파일 이름입니다.
	Files [][]string

	// DefaultOutput은 Responses에 없는 명령의 출력입니다.
	DefaultOutput sandbox.Output
}

// NewMockExecutor는 새로운 MockExecutor를 생성합니다.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Responses:     make(map[string]sandbox.Output),
		Errors:        make(map[string]error),
		Calls:         make([]sandbox.Request, 0),
		DefaultOutput: sandbox.Output{Stdout: "Mock output"},
	}
}

// ensure MockExecutor implements Executor
var _ sandbox.Executor = (*MockExecutor)(nil)

// Name implements sandbox.Executor.
func (m *MockExecutor) Name() string { return "mock" }

// Execute implements sandbox.Executor.
func (m *MockExecutor) Execute(ctx context.Context, req sandbox.Request) (sandbox.Output, error) {
	names := listDir(req.WorkDir)

	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.Files = append(m.Files, names)
	err, failing := m.Errors[req.Command]
	out, ok := m.Responses[req.Command]
	if !ok {
		out = m.DefaultOutput
	}
	m.mu.Unlock()

	if failing {
		return sandbox.Output{ExitCode: -1}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return sandbox.Output{ExitCode: -1}, ctxErr
	}
	return out, nil
}

// SetResponse는 특정 명령에 대한 출력을 설정합니다.
func (m *MockExecutor) SetResponse(command string, out sandbox.Output) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[command] = out
}

// SetError는 특정 명령에 대한 에러를 설정합니다.
func (m *MockExecutor) SetError(command string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[command] = err
}

// SetErrorMessage는 특정 명령에 대한 에러 메시지를 설정합니다.
func (m *MockExecutor) SetErrorMessage(command, message string) {
	m.SetError(command, fmt.Errorf("%s", message))
}

// GetCallCount는 Execute 호출 횟수를 반환합니다.
func (m *MockExecutor) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// GetLastCall은 마지막 Execute 호출을 반환합니다.
func (m *MockExecutor) GetLastCall() *sandbox.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	last := m.Calls[len(m.Calls)-1]
	return &last
}

// Reset은 모든 호출 기록을 초기화합니다.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]sandbox.Request, 0)
	m.Files = nil
}

func listDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
