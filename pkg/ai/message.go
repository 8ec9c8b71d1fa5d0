package ai

// Message roles understood by every chat backend
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to an LLM backend
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
