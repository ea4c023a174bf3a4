package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Rrens/clinic-assistant/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

// classifyError maps SDK errors onto llm error kinds
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &llm.BackendError{Kind: llm.KindSafety, Err: err}
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Reason() == "API_KEY_INVALID" {
			return &llm.BackendError{Kind: llm.KindConfiguration, StatusCode: apiErr.HTTPCode(), Err: err}
		}
		if code := apiErr.HTTPCode(); code > 0 {
			return llm.NewStatusError(code, err)
		}
		if s := apiErr.GRPCStatus(); s != nil {
			return llm.NewStatusError(statusForCode(s.Code()), err)
		}
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return llm.NewStatusError(gErr.Code, err)
	}

	return classifyMessage(err)
}

// classifyMessage falls back to the error text when the SDK gives no status
func classifyMessage(err error) error {
	msg := err.Error()
	upper := strings.ToUpper(msg)

	switch {
	case strings.Contains(msg, "429") || strings.Contains(upper, "RESOURCE_EXHAUSTED") || strings.Contains(upper, "RATE LIMIT"):
		return llm.NewStatusError(http.StatusTooManyRequests, err)
	case strings.Contains(msg, "503") || strings.Contains(upper, "UNAVAILABLE") || strings.Contains(upper, "OVERLOADED"):
		return llm.NewStatusError(http.StatusServiceUnavailable, err)
	case strings.Contains(upper, "API_KEY_INVALID") || strings.Contains(upper, "API KEY"):
		return &llm.BackendError{Kind: llm.KindConfiguration, Err: err}
	case strings.Contains(upper, "SAFETY"):
		return &llm.BackendError{Kind: llm.KindSafety, Err: err}
	default:
		return err
	}
}

func statusForCode(code codes.Code) int {
	switch code {
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
