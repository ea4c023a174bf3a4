package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OperationLog is an append-only record of one inbound request
type OperationLog struct {
	SessionID      *uuid.UUID `json:"session_id,omitempty"`
	Endpoint       string     `json:"endpoint"`
	Method         string     `json:"method"`
	StatusCode     int        `json:"status_code"`
	ResponseTimeMs int64      `json:"response_time_ms"`
	IPAddress      string     `json:"ip_address"`
	UserAgent      string     `json:"user_agent,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

// OperationLogRepository appends operation logs
type OperationLogRepository interface {
	Insert(ctx context.Context, entry *OperationLog) error
}
