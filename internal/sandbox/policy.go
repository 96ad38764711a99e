package sandbox

import "strings"

// PolicyMessage는 허용되지 않은 명령에 대한 응답 메시지입니다.
const PolicyMessage = "Command blocked by local sandbox policy."

// AllowedPrograms는 실행을 허용하는 명령 이름 목록입니다.
// 첫 번째 토큰만 검사하며 나머지 인자와 셸 메타문자는 검사하지 않습니다.
var AllowedPrograms = []string{"python", "pytest", "bash", "sh"}

// Program은 명령 문자열의 첫 번째 공백 구분 토큰을 반환합니다.
func Program(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Allowed는 명령이 허용 목록에 있는 프로그램으로 시작하는지 확인합니다.
func Allowed(command string) bool {
	program := Program(command)
	if program == "" {
		return false
	}
	for _, allowed := range AllowedPrograms {
		if program == allowed {
			return true
		}
	}
	return false
}
