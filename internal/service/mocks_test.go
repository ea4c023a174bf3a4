package service

import (
	"bytes"
	"context"
	"sync"

	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockGenerator mocks the Generator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, history []domain.Turn, message string) (string, error) {
	args := m.Called(ctx, history, message)
	return args.String(0), args.Error(1)
}

// MockConversationRepository mocks the ConversationRepository interface
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Upsert(ctx context.Context, conversation *domain.Conversation) error {
	args := m.Called(ctx, conversation)
	return args.Error(0)
}

// Upserted returns the conversation passed to the i-th Upsert call
func (m *MockConversationRepository) Upserted(i int) *domain.Conversation {
	return m.Calls[i].Arguments.Get(1).(*domain.Conversation)
}

// MockOperationLogRepository mocks the OperationLogRepository interface
type MockOperationLogRepository struct {
	mock.Mock
}

func (m *MockOperationLogRepository) Insert(ctx context.Context, entry *domain.OperationLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockPinger mocks the Pinger interface
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// blockingGenerator never returns, ignoring cancellation
type blockingGenerator struct {
	release chan struct{}
}

func (g *blockingGenerator) Generate(ctx context.Context, history []domain.Turn, message string) (string, error) {
	<-g.release
	return "too late", nil
}

// syncBuffer is a goroutine-safe log sink
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(ctx context.Context, history []domain.Turn, message string) (string, error) {
	panic("backend sdk bug")
}
