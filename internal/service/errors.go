package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/Rrens/clinic-assistant/internal/chat"
	"github.com/Rrens/clinic-assistant/internal/llm"
)

// Client-facing messages. They never include backend or credential details.
const (
	MsgSafetyBlock   = "No pudimos procesar tu pregunta. Por favor, reformúlala e inténtalo de nuevo."
	MsgBusy          = "El asistente está recibiendo muchas consultas. Por favor, inténtalo de nuevo en unos momentos."
	MsgTimeout       = "La respuesta está tardando demasiado. Por favor, inténtalo de nuevo."
	MsgConfiguration = "El asistente no está disponible por un error de configuración."
	MsgInternal      = "Ocurrió un error inesperado. Por favor, inténtalo de nuevo más tarde."
)

// StatusFor maps a turn failure onto a stable status code and message.
// Validation failures return the field list; everything else a fixed message.
func StatusFor(err error) (int, string) {
	var verr *chat.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, MsgTimeout
	}

	switch llm.KindOf(err) {
	case llm.KindSafety:
		return http.StatusBadRequest, MsgSafetyBlock
	case llm.KindTransient:
		return http.StatusTooManyRequests, MsgBusy
	case llm.KindConfiguration:
		return http.StatusInternalServerError, MsgConfiguration
	}

	return http.StatusInternalServerError, MsgInternal
}
