//go:build !unix

package sandbox

import "os/exec"

// setProcessGroup은 프로세스 그룹이 없는 플랫폼에서는 기본 종료 동작을 사용합니다.
func setProcessGroup(cmd *exec.Cmd) {}
