package llm

import (
	"context"

	"github.com/Rrens/clinic-assistant/internal/domain"
)

// Request is one generation call: fixed policy, prior turns and the new message
type Request struct {
	SystemPrompt string
	History      []domain.Turn
	Message      string
}

// Backend defines the interface for generative-language backends.
// Complete performs exactly one attempt; retries belong to Client.
type Backend interface {
	// Name returns the backend identifier
	Name() string

	// IsConfigured checks if backend has valid credentials
	IsConfigured() bool

	// Complete generates a reply for req
	Complete(ctx context.Context, req Request) (string, error)
}
