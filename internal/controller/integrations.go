package controller

var integrations = map[string]string{
	"Agentora":  "Agent roster can be imported and mapped to Forge roles.",
	"Memoria":   "Every chat turn and snapshot summary is auto-synced as local memory.",
	"Launchpad": "Package project folder + metadata manifest for one-click registration.",
}

// Integrations는 연동 이름과 설명을 반환합니다.
func Integrations() map[string]string {
	out := make(map[string]string, len(integrations))
	for name, desc := range integrations {
		out[name] = desc
	}
	return out
}
