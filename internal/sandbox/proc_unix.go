//go:build unix

package sandbox

import (
	"os/exec"
	"syscall"
)

// setProcessGroup은 명령을 새 프로세스 그룹에서 실행하고,
// 취소 시 그룹 전체(sh 와 자식 프로세스)를 종료하도록 설정합니다.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
