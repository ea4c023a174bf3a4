package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OperationLogRepository implements domain.OperationLogRepository
type OperationLogRepository struct {
	pool *pgxpool.Pool
}

// NewOperationLogRepository creates a new operation log repository
func NewOperationLogRepository(db *DB) *OperationLogRepository {
	return &OperationLogRepository{pool: db.Pool}
}

// Insert appends a log entry
func (r *OperationLogRepository) Insert(ctx context.Context, entry *domain.OperationLog) error {
	query := `
		INSERT INTO api_logs (session_id, endpoint, method, status_code, response_time_ms, ip_address, user_agent, error_message, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		entry.SessionID,
		entry.Endpoint,
		entry.Method,
		entry.StatusCode,
		entry.ResponseTimeMs,
		entry.IPAddress,
		nullable(entry.UserAgent),
		nullable(entry.ErrorMessage),
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation log: %w", err)
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
