package chat

// HistoryMessage is a previous conversation turn
type HistoryMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// AskRequest asks a question about one lecture
type AskRequest struct {
	Question string           `json:"question" validate:"required,min=1,max=2000"`
	History  []HistoryMessage `json:"history,omitempty" validate:"omitempty,dive"`
}

// GlobalAskRequest asks a question across the user's lectures
type GlobalAskRequest struct {
	Question  string           `json:"question" validate:"required,min=1,max=2000"`
	History   []HistoryMessage `json:"history,omitempty" validate:"omitempty,dive"`
	Subject   string           `json:"subject,omitempty"`
	GroupName string           `json:"group_name,omitempty"`
}
