package sandbox

import "context"

// Request는 실행기에 전달되는 단일 명령 실행 요청입니다.
type Request struct {
	RunID   string // 실행 식별자
	WorkDir string // 프로젝트 복사본 경로
	Command string // sh -c 로 실행할 명령
}

// Output은 실행기가 수집한 프로세스 결과입니다.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor는 준비된 작업 디렉토리에서 명령을 실행합니다.
// ctx가 만료되면 실행 중인 프로세스를 종료하고 반환해야 합니다.
type Executor interface {
	Name() string
	Execute(ctx context.Context, req Request) (Output, error)
}
