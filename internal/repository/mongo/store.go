package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/clinic-assistant/internal/config"
	"github.com/Rrens/clinic-assistant/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	conversationsCollection = "conversations"
	apiLogsCollection       = "api_logs"
)

// Store persists conversations and operation logs in MongoDB
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB and ensures the session index exists
func NewStore(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.Timeout > 0 {
		clientOpts.SetConnectTimeout(cfg.Timeout)
		clientOpts.SetServerSelectionTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	s := &Store{client: client, db: client.Database(cfg.Database)}

	_, err = s.db.Collection(conversationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create session index: %w", err)
	}

	return s, nil
}

// Upsert replaces the transcript for a session, setting created_at only on insert
func (s *Store) Upsert(ctx context.Context, conv *domain.Conversation) error {
	messages := make(bson.A, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		messages = append(messages, bson.M{
			"role":      string(m.Role),
			"text":      m.Text,
			"timestamp": m.Timestamp,
		})
	}

	set := bson.M{
		"messages":      messages,
		"last_message":  conv.LastMessage,
		"message_count": conv.MessageCount,
		"updated_at":    conv.UpdatedAt,
	}
	_, err := s.db.Collection(conversationsCollection).UpdateOne(ctx,
		bson.M{"session_id": conv.SessionID.String()},
		conversationUpdate(conv, set),
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

// conversationUpdate builds the upsert document. Metadata mirrors the latest
// turn: a turn without metadata clears any stored value.
func conversationUpdate(conv *domain.Conversation, set bson.M) bson.M {
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": conv.CreatedAt},
	}
	if conv.UserMetadata != nil {
		set["user_metadata"] = conv.UserMetadata
	} else {
		update["$unset"] = bson.M{"user_metadata": ""}
	}
	return update
}

// Insert appends an operation log document
func (s *Store) Insert(ctx context.Context, entry *domain.OperationLog) error {
	doc := bson.M{
		"endpoint":         entry.Endpoint,
		"method":           entry.Method,
		"status_code":      entry.StatusCode,
		"response_time_ms": entry.ResponseTimeMs,
		"ip_address":       entry.IPAddress,
		"timestamp":        entry.Timestamp,
	}
	if entry.SessionID != nil {
		doc["session_id"] = entry.SessionID.String()
	}
	if entry.UserAgent != "" {
		doc["user_agent"] = entry.UserAgent
	}
	if entry.ErrorMessage != "" {
		doc["error_message"] = entry.ErrorMessage
	}

	if _, err := s.db.Collection(apiLogsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert operation log: %w", err)
	}
	return nil
}

// Ping verifies the server is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
