package domain

// Limits enforced on inbound chat requests
const (
	MaxMessageLength = 2000
	MaxHistoryTurns  = 50
)

// ChatRequest is the inbound chat turn
type ChatRequest struct {
	Message   string         `json:"message" validate:"required,max=2000"`
	History   []Turn         `json:"history" validate:"max=50,dive"`
	SessionID string         `json:"sessionId,omitempty" validate:"omitempty,sessionid"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ChatResponse is returned for a successful turn
type ChatResponse struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
	Emergency bool   `json:"emergency,omitempty"`
}
