package sandbox

import (
	"errors"
	"fmt"
)

// 기본 에러 타입
var (
	// ErrSandboxSetup은 임시 작업 공간 준비에 실패했을 때 반환됩니다.
	ErrSandboxSetup = errors.New("sandbox 작업 공간 준비 실패")

	// ErrExecutorUnavailable은 실행기를 사용할 수 없을 때 반환됩니다 (예: Docker daemon 미실행).
	ErrExecutorUnavailable = errors.New("sandbox 실행기를 사용할 수 없음")

	// ErrUnknownMode는 지원하지 않는 실행 모드입니다.
	ErrUnknownMode = errors.New("지원하지 않는 sandbox 모드")
)

// RunError는 명령 실행 인프라 에러를 래핑합니다.
// 정책 거부와 타임아웃은 에러가 아니라 Result로 표현됩니다.
type RunError struct {
	Op        string // 작업명 (예: "mkdtemp", "copy", "execute")
	ProjectID int64  // 프로젝트 ID
	Err       error  // 원본 에러
}

func (e *RunError) Error() string {
	if e.ProjectID != 0 {
		return fmt.Sprintf("sandbox[project_%d] %s: %v", e.ProjectID, e.Op, e.Err)
	}
	return fmt.Sprintf("sandbox %s: %v", e.Op, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError는 새 RunError를 생성합니다.
func NewRunError(op string, projectID int64, err error) *RunError {
	return &RunError{
		Op:        op,
		ProjectID: projectID,
		Err:       err,
	}
}

// IsSetupError는 작업 공간 준비 단계의 에러인지 확인합니다.
func IsSetupError(err error) bool {
	return errors.Is(err, ErrSandboxSetup)
}
