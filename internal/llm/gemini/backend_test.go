package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Rrens/clinic-assistant/internal/config"
	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/Rrens/clinic-assistant/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

func TestNewBackend_WithoutKeyIsUnconfigured(t *testing.T) {
	b, err := NewBackend(context.Background(), config.GeminiConfig{})
	require.NoError(t, err)

	assert.False(t, b.IsConfigured())
	assert.Equal(t, defaultModel, b.model)
	assert.NoError(t, b.Close())

	_, err = b.Complete(context.Background(), llm.Request{Message: "hola"})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestSafetySettings(t *testing.T) {
	settings := SafetySettings()
	require.Len(t, settings, 4)

	seen := map[genai.HarmCategory]bool{}
	for _, s := range settings {
		assert.Equal(t, genai.HarmBlockMediumAndAbove, s.Threshold)
		seen[s.Category] = true
	}
	assert.True(t, seen[genai.HarmCategoryHarassment])
	assert.True(t, seen[genai.HarmCategoryHateSpeech])
	assert.True(t, seen[genai.HarmCategorySexuallyExplicit])
	assert.True(t, seen[genai.HarmCategoryDangerousContent])
}

func TestToContents_MapsRoles(t *testing.T) {
	contents := toContents([]domain.Turn{
		{Role: domain.RoleUser, Text: "hola"},
		{Role: domain.RoleAssistant, Text: "¿en qué te ayudo?"},
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, genai.Text("hola"), contents[0].Parts[0])
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hola, "), genai.Text("¿cómo estás?")}},
		}},
	}

	text, err := extractText(resp)
	require.NoError(t, err)
	assert.Equal(t, "Hola, ¿cómo estás?", text)
}

func TestExtractText_Failures(t *testing.T) {
	_, err := extractText(&genai.GenerateContentResponse{})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)

	_, err = extractText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	})
	assert.Equal(t, llm.KindSafety, llm.KindOf(err))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want llm.ErrorKind
	}{
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests}, llm.KindTransient},
		{"googleapi 503", &googleapi.Error{Code: http.StatusServiceUnavailable}, llm.KindTransient},
		{"googleapi 400", &googleapi.Error{Code: http.StatusBadRequest}, llm.KindInvalidRequest},
		{"googleapi 403", &googleapi.Error{Code: http.StatusForbidden}, llm.KindConfiguration},
		{"blocked prompt", &genai.BlockedError{}, llm.KindSafety},
		{"message 429", errors.New("googleapi: Error 429: Resource has been exhausted"), llm.KindTransient},
		{"message overloaded", errors.New("The model is overloaded. Please try again later."), llm.KindTransient},
		{"message api key", errors.New("API key not valid. Please pass a valid API key."), llm.KindConfiguration},
		{"other", errors.New("connection reset by peer"), llm.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.KindOf(classifyError(tt.err)))
		})
	}
}

func TestClassifyError_KeepsContextErrors(t *testing.T) {
	err := classifyError(fmt.Errorf("rpc: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, llm.KindUnknown, llm.KindOf(err))
}

func TestStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, statusForCode(codes.ResourceExhausted))
	assert.Equal(t, http.StatusServiceUnavailable, statusForCode(codes.Unavailable))
	assert.Equal(t, http.StatusBadRequest, statusForCode(codes.InvalidArgument))
	assert.Equal(t, http.StatusInternalServerError, statusForCode(codes.Internal))
}
