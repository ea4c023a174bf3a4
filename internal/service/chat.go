package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/clinic-assistant/internal/chat"
	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/Rrens/clinic-assistant/internal/llm"
	"github.com/Rrens/clinic-assistant/internal/security"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultRequestTimeout is the end-to-end budget for one chat turn
const DefaultRequestTimeout = 30 * time.Second

// ErrTimeout is returned when a turn exceeds its deadline
var ErrTimeout = errors.New("request deadline exceeded")

// Generator produces the assistant reply for a turn
type Generator interface {
	Generate(ctx context.Context, history []domain.Turn, message string) (string, error)
}

// TurnError carries the session a failed turn belongs to
type TurnError struct {
	SessionID string
	Err       error
}

func (e *TurnError) Error() string {
	return e.Err.Error()
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// SessionOf returns the session attached to err, if any
func SessionOf(err error) string {
	var te *TurnError
	if errors.As(err, &te) {
		return te.SessionID
	}
	return ""
}

// ChatConfig holds the supervisor's tunables
type ChatConfig struct {
	Timeout    time.Duration
	MaxHistory int
}

// ChatService runs one chat turn: validate, classify, generate, shape and
// hand the exchange to the recorder, all under a single deadline.
type ChatService struct {
	classifier *security.RedFlagClassifier
	generator  Generator
	recorder   *Recorder
	cfg        ChatConfig
	now        func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(classifier *security.RedFlagClassifier, generator Generator, recorder *Recorder, cfg ChatConfig) *ChatService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = domain.MaxHistoryTurns
	}
	if classifier == nil {
		classifier = security.NewRedFlagClassifier()
	}
	if generator == nil {
		generator = unconfiguredGenerator{}
	}
	return &ChatService{
		classifier: classifier,
		generator:  generator,
		recorder:   recorder,
		cfg:        cfg,
		now:        time.Now,
	}
}

// unconfiguredGenerator stands in for a missing generator so every
// non-urgent turn fails with a configuration error.
type unconfiguredGenerator struct{}

func (unconfiguredGenerator) Generate(ctx context.Context, history []domain.Turn, message string) (string, error) {
	return "", llm.ErrNotConfigured
}

type turnResult struct {
	resp *domain.ChatResponse
	err  error
}

// Handle processes a raw request body. The turn races the deadline; when the
// deadline wins the in-flight work is cancelled and abandoned.
// Errors are *TurnError values once a session is known.
func (s *ChatService) Handle(ctx context.Context, body []byte) (*domain.ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	done := make(chan turnResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				log.Error().Interface("panic", p).Msg("chat turn panicked")
				done <- turnResult{err: fmt.Errorf("chat turn panicked: %v", p)}
			}
		}()
		resp, err := s.process(ctx, body)
		done <- turnResult{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		return res.resp, res.err
	case <-ctx.Done():
		// a turn that finished at the same instant still wins
		select {
		case res := <-done:
			return res.resp, res.err
		default:
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn().Dur("timeout", s.cfg.Timeout).Msg("chat turn exceeded deadline")
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

func (s *ChatService) process(ctx context.Context, body []byte) (*domain.ChatResponse, error) {
	req, err := chat.ParseRequest(body)
	if err != nil {
		var sessionID string
		if req != nil {
			if id, perr := uuid.Parse(req.SessionID); perr == nil && id != uuid.Nil {
				sessionID = id.String()
			}
		}
		return nil, &TurnError{SessionID: sessionID, Err: err}
	}

	sessionID := uuid.New()
	if req.SessionID != "" {
		sessionID = uuid.MustParse(req.SessionID)
	}

	emergency := false
	var text string
	if phrase, urgent := s.classifier.Match(req.Message); urgent {
		log.Warn().
			Str("session_id", sessionID.String()).
			Str("red_flag", phrase).
			Msg("urgent message detected, skipping generation")
		emergency = true
		text = security.EmergencyMessage
	} else {
		text, err = s.generator.Generate(ctx, req.History, req.Message)
		if err != nil {
			return nil, &TurnError{SessionID: sessionID.String(), Err: err}
		}
	}

	// the caller already received a timeout; do not persist a reply nobody saw
	if ctx.Err() != nil {
		return nil, &TurnError{SessionID: sessionID.String(), Err: ctx.Err()}
	}

	s.recordExchange(ctx, sessionID, req, text, emergency)

	return &domain.ChatResponse{
		Text:      text,
		SessionID: sessionID.String(),
		Emergency: emergency,
	}, nil
}

func (s *ChatService) recordExchange(ctx context.Context, sessionID uuid.UUID, req *domain.ChatRequest, reply string, emergency bool) {
	if s.recorder == nil {
		return
	}

	now := s.now()
	conv := domain.NewConversation(sessionID, req.History, now)
	conv.AppendExchange(
		domain.NewTurn(domain.RoleUser, req.Message, now),
		domain.NewTurn(domain.RoleAssistant, reply, now),
		s.cfg.MaxHistory,
		now,
	)

	if len(req.Metadata) > 0 || emergency {
		conv.UserMetadata = make(map[string]any, len(req.Metadata)+1)
		for k, v := range req.Metadata {
			conv.UserMetadata[k] = v
		}
		if emergency {
			conv.UserMetadata["emergency"] = true
		}
	}

	s.recorder.RecordExchange(ctx, conv)
}
