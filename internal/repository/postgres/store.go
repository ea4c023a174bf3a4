package postgres

import (
	"context"

	"github.com/Rrens/clinic-assistant/internal/config"
)

// Store bundles the PostgreSQL repositories behind one pool
type Store struct {
	*DB
	*ConversationRepository
	*OperationLogRepository
}

// NewStore connects to PostgreSQL and wires the repositories
func NewStore(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Store{
		DB:                     db,
		ConversationRepository: NewConversationRepository(db),
		OperationLogRepository: NewOperationLogRepository(db),
	}, nil
}
