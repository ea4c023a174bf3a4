package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Rrens/clinic-assistant/internal/chat"
	"github.com/Rrens/clinic-assistant/internal/llm"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	validation := &chat.ValidationError{Fields: []chat.FieldError{
		{Field: "message", Message: "is required"},
		{Field: "sessionId", Message: "must be a valid UUID"},
	}}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", &TurnError{Err: validation}, http.StatusBadRequest, "message: is required, sessionId: must be a valid UUID"},
		{"safety", &llm.BackendError{Kind: llm.KindSafety, Err: errors.New("HARM_CATEGORY_DANGEROUS")}, http.StatusBadRequest, MsgSafetyBlock},
		{"transient", fmt.Errorf("wrapped: %w", llm.NewStatusError(http.StatusServiceUnavailable, errors.New("x"))), http.StatusTooManyRequests, MsgBusy},
		{"timeout", ErrTimeout, http.StatusGatewayTimeout, MsgTimeout},
		{"context deadline", &TurnError{Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, MsgTimeout},
		{"not configured", llm.ErrNotConfigured, http.StatusInternalServerError, MsgConfiguration},
		{"auth failure", llm.NewStatusError(http.StatusUnauthorized, errors.New("key sk-secret")), http.StatusInternalServerError, MsgConfiguration},
		{"invalid request", llm.NewStatusError(http.StatusBadRequest, errors.New("bad")), http.StatusInternalServerError, MsgInternal},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := StatusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
			assert.NotContains(t, msg, "sk-secret")
		})
	}
}
