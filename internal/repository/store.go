// Package repository selects the conversation store configured for the process.
package repository

import (
	"context"
	"fmt"

	"github.com/Rrens/clinic-assistant/internal/config"
	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/Rrens/clinic-assistant/internal/repository/mongo"
	"github.com/Rrens/clinic-assistant/internal/repository/postgres"
	"github.com/Rrens/clinic-assistant/internal/repository/sqldb"
)

// Store is a persistence backend for both conversations and operation logs
type Store interface {
	domain.ConversationRepository
	domain.OperationLogRepository
	Ping(ctx context.Context) error
	Close() error
}

const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

// Open connects to the store named by cfg.Driver. DriverNone and an empty
// driver return a nil Store and no error.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Driver {
	case "", DriverNone:
		return nil, nil
	case DriverPostgres:
		var s *postgres.Store
		s, err = postgres.NewStore(ctx, cfg.Postgres)
		store = s
	case DriverMongo:
		var s *mongo.Store
		s, err = mongo.NewStore(ctx, cfg.Mongo)
		store = s
	case DriverSQLite:
		var s *sqldb.Store
		s, err = sqldb.OpenSQLite(ctx, cfg.SQLite)
		store = s
	case DriverMySQL:
		var s *sqldb.Store
		s, err = sqldb.OpenMySQL(ctx, cfg.MySQL)
		store = s
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}
	return store, nil
}
