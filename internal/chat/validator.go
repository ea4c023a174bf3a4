package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("sessionid", func(fl validator.FieldLevel) bool {
		id, err := uuid.Parse(fl.Field().String())
		return err == nil && id != uuid.Nil
	})
	return v
}

// FieldError describes one violated field constraint
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every constraint an inbound request violated
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

type rawRequest struct {
	Message   json.RawMessage `json:"message"`
	History   json.RawMessage `json:"history"`
	SessionID json.RawMessage `json:"sessionId"`
	Metadata  json.RawMessage `json:"metadata"`
}

// ParseRequest decodes and validates a raw chat request body.
//
// When the body is a JSON object the decoded request is returned even if
// validation fails, so callers can still read a well-formed session ID.
// The error is then a *ValidationError naming every violated field.
func ParseRequest(body []byte) (*domain.ChatRequest, error) {
	var raw rawRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		verr := &ValidationError{}
		verr.add("body", "invalid request body")
		return nil, verr
	}

	verr := &ValidationError{}
	req := &domain.ChatRequest{}

	if !isNull(raw.Message) {
		if err := json.Unmarshal(raw.Message, &req.Message); err != nil {
			verr.add("message", "must be a string")
		}
	}

	if !isNull(raw.History) {
		if err := decodeHistory(raw.History, req, verr); err != nil {
			verr.add("history", "must be an array of turns")
		}
	}

	if !isNull(raw.SessionID) {
		if err := json.Unmarshal(raw.SessionID, &req.SessionID); err != nil {
			verr.add("sessionId", "must be a string")
		}
	}

	if !isNull(raw.Metadata) {
		if err := json.Unmarshal(raw.Metadata, &req.Metadata); err != nil {
			verr.add("metadata", "must be an object")
		}
	}

	if err := validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				verr.add(fieldPath(e.Namespace()), describe(e))
			}
		} else {
			verr.add("body", err.Error())
		}
	}

	if len(verr.Fields) > 0 {
		return req, verr
	}
	if req.History == nil {
		req.History = []domain.Turn{}
	}
	return req, nil
}

// decodeHistory keeps the array shape check separate from per-entry checks
// so a single bad entry does not hide the others.
func decodeHistory(data json.RawMessage, req *domain.ChatRequest, verr *ValidationError) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	req.History = make([]domain.Turn, 0, len(entries))
	for i, entry := range entries {
		var fields struct {
			Role      json.RawMessage `json:"role"`
			Text      json.RawMessage `json:"text"`
			Timestamp json.RawMessage `json:"timestamp"`
		}
		var turn domain.Turn
		prefix := fmt.Sprintf("history[%d]", i)

		if err := json.Unmarshal(entry, &fields); err != nil {
			verr.add(prefix, "must be an object")
			req.History = append(req.History, turn)
			continue
		}
		var role string
		if err := json.Unmarshal(fields.Role, &role); err != nil {
			// reported by the oneof tag below
			role = ""
		}
		turn.Role = domain.Role(role)
		if isNull(fields.Text) || json.Unmarshal(fields.Text, &turn.Text) != nil {
			verr.add(prefix+".text", "must be a string")
		}
		if !isNull(fields.Timestamp) {
			_ = json.Unmarshal(fields.Timestamp, &turn.Timestamp)
		}
		req.History = append(req.History, turn)
	}
	return nil
}

func isNull(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}

// fieldPath strips the root struct name: "ChatRequest.history[2].role" -> "history[2].role"
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		if e.Kind() == reflect.Slice {
			return "must contain at most " + e.Param() + " entries"
		}
		return "must be at most " + e.Param() + " characters"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "sessionid":
		return "must be a valid UUID"
	default:
		return "validation failed on " + e.Tag()
	}
}
