package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/clinic-assistant/internal/config"
	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/Rrens/clinic-assistant/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

// Backend implements llm.Backend for Google Gemini
type Backend struct {
	client          *genai.Client
	model           string
	temperature     float32
	topP            float32
	maxOutputTokens int32
}

// NewBackend creates the Gemini client once for reuse across requests.
// A missing API key yields an unconfigured backend rather than an error.
func NewBackend(ctx context.Context, cfg config.GeminiConfig) (*Backend, error) {
	b := &Backend{
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		topP:            cfg.TopP,
		maxOutputTokens: cfg.MaxOutputTokens,
	}
	if b.model == "" {
		b.model = defaultModel
	}

	if cfg.APIKey == "" {
		return b, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	b.client = client

	return b, nil
}

func (b *Backend) Name() string {
	return "gemini"
}

func (b *Backend) IsConfigured() bool {
	return b.client != nil
}

// Close releases the underlying client
func (b *Backend) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// SafetySettings blocks medium and higher severity in all four harm categories
func SafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}

	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockMediumAndAbove,
		})
	}
	return settings
}

func (b *Backend) Complete(ctx context.Context, req llm.Request) (string, error) {
	if !b.IsConfigured() {
		return "", llm.ErrNotConfigured
	}

	model := b.client.GenerativeModel(b.model)
	model.SetTemperature(b.temperature)
	model.SetTopP(b.topP)
	model.SetMaxOutputTokens(b.maxOutputTokens)
	model.SafetySettings = SafetySettings()
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.SystemPrompt)},
	}

	session := model.StartChat()
	session.History = toContents(req.History)

	resp, err := session.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return "", classifyError(err)
	}

	return extractText(resp)
}

// toContents maps conversation turns onto Gemini's user/model roles
func toContents(history []domain.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Role == domain.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}
	return contents
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", llm.ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", &llm.BackendError{Kind: llm.KindSafety, Err: fmt.Errorf("response blocked by safety filters")}
	}
	if candidate.Content == nil {
		return "", llm.ErrEmptyResponse
	}

	var output strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			output.WriteString(string(text))
		}
	}

	return output.String(), nil
}
