package llm_test

import (
	"strings"
	"testing"

	"github.com/Rrens/clinic-assistant/internal/llm"
)

func TestEnsureDisclaimer(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			"appends when missing",
			"La próstata es una glándula.",
			"La próstata es una glándula.\n\n" + llm.Disclaimer,
		},
		{
			"keeps trailing disclaimer",
			"La próstata es una glándula.\n\n" + llm.Disclaimer,
			"La próstata es una glándula.\n\n" + llm.Disclaimer,
		},
		{
			"keeps disclaimer in the middle",
			"Inicio. " + llm.Disclaimer + " Fin.",
			"Inicio. " + llm.Disclaimer + " Fin.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := llm.EnsureDisclaimer(tt.content)
			if result != tt.expected {
				t.Errorf("EnsureDisclaimer() = %q, want %q", result, tt.expected)
			}
			if n := strings.Count(result, llm.Disclaimer); n != 1 {
				t.Errorf("expected exactly one disclaimer, got %d", n)
			}
		})
	}
}

func TestEnsureDisclaimer_Idempotent(t *testing.T) {
	once := llm.EnsureDisclaimer("respuesta")
	twice := llm.EnsureDisclaimer(once)

	if once != twice {
		t.Errorf("expected idempotent result, got %q then %q", once, twice)
	}
}

func TestSystemPolicy_MentionsDisclaimer(t *testing.T) {
	if !strings.Contains(llm.SystemPolicy, llm.Disclaimer) {
		t.Error("system policy should instruct the model to close with the disclaimer")
	}
}
