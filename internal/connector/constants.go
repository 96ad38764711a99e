package connector

// Discord 명령어 및 UI 요소에 사용될 상수들을 정의합니다.
const (
	cmdForge       = "forge"
	subCmdProjects = "projects"
	subCmdChat     = "chat"
	subCmdHistory  = "history"
	subCmdEvolve   = "evolve"
	optProject     = "project"
	optMessage     = "message"
	optFeedback    = "feedback"

	// maxMessageLength는 Discord 메시지 본문 최대 길이입니다.
	maxMessageLength = 2000

	// defaultQueueSize는 전송 대기 이벤트 버퍼 크기입니다.
	defaultQueueSize = 128

	colorInfo = 0x0099ff
)
