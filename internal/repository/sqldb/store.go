// Package sqldb stores conversations in SQLite or MySQL through database/sql.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Rrens/clinic-assistant/internal/config"
	"github.com/Rrens/clinic-assistant/internal/domain"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Store implements the conversation and operation log repositories on a SQL database
type Store struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens (creating if needed) the SQLite file at cfg.Path
func OpenSQLite(ctx context.Context, cfg config.SQLiteConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Path)
	s, err := open(ctx, "sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer
	s.db.SetMaxOpenConns(1)
	return s, nil
}

// OpenMySQL connects to the MySQL server described by cfg
func OpenMySQL(ctx context.Context, cfg config.MySQLConfig) (*Store, error) {
	s, err := open(ctx, "mysql", cfg.DSN())
	if err != nil {
		return nil, err
	}
	s.db.SetMaxOpenConns(10)
	s.db.SetMaxIdleConns(5)
	s.db.SetConnMaxLifetime(5 * time.Minute)
	return s, nil
}

func open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{db: db, dialect: d}, nil
}

// Upsert writes the transcript for a session. created_at is only set on insert.
func (s *Store) Upsert(ctx context.Context, conv *domain.Conversation) error {
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	var metadata sql.NullString
	if conv.UserMetadata != nil {
		b, err := json.Marshal(conv.UserMetadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, s.dialect.upsert,
		conv.SessionID.String(),
		string(messagesJSON),
		conv.LastMessage,
		conv.MessageCount,
		metadata,
		conv.CreatedAt.UTC(),
		conv.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

// Insert appends an operation log row
func (s *Store) Insert(ctx context.Context, entry *domain.OperationLog) error {
	query := `
		INSERT INTO api_logs (session_id, endpoint, method, status_code, response_time_ms, ip_address, user_agent, error_message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var sessionID sql.NullString
	if entry.SessionID != nil {
		sessionID = sql.NullString{String: entry.SessionID.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		sessionID,
		entry.Endpoint,
		entry.Method,
		entry.StatusCode,
		entry.ResponseTimeMs,
		entry.IPAddress,
		nullString(entry.UserAgent),
		nullString(entry.ErrorMessage),
		entry.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation log: %w", err)
	}
	return nil
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying pool
func (s *Store) Close() error {
	return s.db.Close()
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
