package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConversationRepository implements domain.ConversationRepository
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{pool: db.Pool}
}

// Upsert writes the transcript for a session. created_at is only set on insert.
func (r *ConversationRepository) Upsert(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (session_id, messages, last_message, message_count, user_metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO UPDATE SET
			messages = EXCLUDED.messages,
			last_message = EXCLUDED.last_message,
			message_count = EXCLUDED.message_count,
			user_metadata = EXCLUDED.user_metadata,
			updated_at = EXCLUDED.updated_at
	`

	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	var metadataJSON []byte
	if conv.UserMetadata != nil {
		metadataJSON, err = json.Marshal(conv.UserMetadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx, query,
		conv.SessionID,
		messagesJSON,
		conv.LastMessage,
		conv.MessageCount,
		metadataJSON,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	return nil
}
