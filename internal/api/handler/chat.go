package handler

import (
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Rrens/clinic-assistant/internal/api/response"
	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/Rrens/clinic-assistant/internal/metrics"
	"github.com/Rrens/clinic-assistant/internal/security"
	"github.com/Rrens/clinic-assistant/internal/service"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultMaxBodyBytes = 1 << 20

// ChatHandler serves the chat endpoint
type ChatHandler struct {
	chatService  *service.ChatService
	recorder     *service.Recorder
	anonymizer   *security.IPAnonymizer
	maxBodyBytes int64
	production   bool
}

// ChatHandlerConfig holds the chat handler tunables
type ChatHandlerConfig struct {
	MaxBodyBytes int64
	Production   bool
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, recorder *service.Recorder, anonymizer *security.IPAnonymizer, cfg ChatHandlerConfig) *ChatHandler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &ChatHandler{
		chatService:  chatService,
		recorder:     recorder,
		anonymizer:   anonymizer,
		maxBodyBytes: cfg.MaxBodyBytes,
		production:   cfg.Production,
	}
}

// outcome is what the finalizer records about a request
type outcome struct {
	status    int
	sessionID string
	errMsg    string
	branch    string
}

// Chat handles one chat turn. Every request, whatever its result, produces
// exactly one operation log entry.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	out := outcome{status: http.StatusInternalServerError, branch: metrics.BranchRejected}
	defer func() {
		h.finalize(r, out, time.Since(start))
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			out.status, out.errMsg = http.StatusRequestEntityTooLarge, "request body too large"
		} else {
			out.status, out.errMsg = http.StatusBadRequest, "invalid request body"
		}
		response.Error(w, out.status, response.ErrorBody{Error: out.errMsg})
		return
	}

	resp, err := h.chatService.Handle(r.Context(), body)
	if err != nil {
		status, message := service.StatusFor(err)
		out.status = status
		out.sessionID = service.SessionOf(err)
		out.errMsg = err.Error()

		errBody := response.ErrorBody{Error: message, SessionID: out.sessionID}
		if status >= http.StatusInternalServerError && !h.production {
			errBody.Details = err.Error()
		}
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("session_id", out.sessionID).Int("status", status).Msg("chat turn failed")
		}
		response.Error(w, status, errBody)
		return
	}

	out.status = http.StatusOK
	out.sessionID = resp.SessionID
	out.branch = metrics.BranchNormal
	if resp.Emergency {
		out.branch = metrics.BranchEmergency
	}
	response.OK(w, resp)
}

// RecordRejected writes the operation log for a chat request that was
// turned away before reaching Chat.
func (h *ChatHandler) RecordRejected(r *http.Request, status int, message string, elapsed time.Duration) {
	h.finalize(r, outcome{status: status, errMsg: message, branch: metrics.BranchRejected}, elapsed)
}

func (h *ChatHandler) finalize(r *http.Request, out outcome, elapsed time.Duration) {
	metrics.ObserveChat(out.status, out.branch, elapsed)

	entry := &domain.OperationLog{
		Endpoint:       r.URL.Path,
		Method:         r.Method,
		StatusCode:     out.status,
		ResponseTimeMs: elapsed.Milliseconds(),
		IPAddress:      h.anonymizer.Anonymize(clientIP(r)),
		UserAgent:      r.UserAgent(),
		ErrorMessage:   out.errMsg,
		Timestamp:      time.Now().UTC(),
	}
	if id, err := uuid.Parse(out.sessionID); err == nil {
		entry.SessionID = &id
	}

	h.recorder.RecordOperation(r.Context(), entry)
}

// clientIP strips the port from RemoteAddr. RealIP has already applied
// forwarding headers by the time handlers run.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
