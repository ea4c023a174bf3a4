package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newConversation() *domain.Conversation {
	now := time.Now()
	conv := domain.NewConversation(uuid.New(), nil, now)
	conv.AppendExchange(
		domain.NewTurn(domain.RoleUser, "hola", now),
		domain.NewTurn(domain.RoleAssistant, "respuesta", now),
		50, now,
	)
	return conv
}

func TestRecorder_RecordExchange_RetriesWithLinearBackoff(t *testing.T) {
	repo := new(MockConversationRepository)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("timeout")).Twice()
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

	recorder := NewRecorder(repo, nil, RecorderConfig{Retries: 2, RetryDelay: time.Second})
	var waits []time.Duration
	recorder.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	recorder.RecordExchange(context.Background(), newConversation())
	recorder.Wait()

	repo.AssertNumberOfCalls(t, "Upsert", 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestRecorder_RecordExchange_GivesUpAfterRetries(t *testing.T) {
	logs := captureLogs(t)
	repo := new(MockConversationRepository)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	recorder := NewRecorder(repo, nil, RecorderConfig{Retries: 2})
	var waits int
	recorder.sleep = func(ctx context.Context, d time.Duration) error {
		waits++
		return nil
	}

	recorder.RecordExchange(context.Background(), newConversation())
	recorder.Wait()

	repo.AssertNumberOfCalls(t, "Upsert", 3)
	assert.Equal(t, 2, waits)
	assert.Contains(t, logs.String(), "connection refused")
}

func TestRecorder_SurvivesParentCancellation(t *testing.T) {
	repo := new(MockConversationRepository)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		assert.NoError(t, ctx.Err())
	})

	recorder := NewRecorder(repo, nil, RecorderConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recorder.RecordExchange(ctx, newConversation())
	recorder.Wait()

	repo.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestRecorder_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	repo := new(MockConversationRepository)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		<-release
	})

	recorder := NewRecorder(repo, nil, RecorderConfig{})

	start := time.Now()
	recorder.RecordExchange(context.Background(), newConversation())
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	recorder.Wait()
}

func TestRecorder_RecordOperation_NoRetry(t *testing.T) {
	logs := captureLogs(t)
	repo := new(MockOperationLogRepository)
	repo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.OperationLog")).Return(errors.New("insert failed"))

	recorder := NewRecorder(nil, repo, RecorderConfig{})
	recorder.RecordOperation(context.Background(), &domain.OperationLog{Endpoint: "/api/chat", Method: "POST"})
	recorder.Wait()

	repo.AssertNumberOfCalls(t, "Insert", 1)
	assert.Contains(t, logs.String(), "insert failed")
}

func TestRecorder_NilRepositoriesAreNoOps(t *testing.T) {
	recorder := NewRecorder(nil, nil, RecorderConfig{})

	require.NotPanics(t, func() {
		recorder.RecordExchange(context.Background(), newConversation())
		recorder.RecordOperation(context.Background(), &domain.OperationLog{})
		recorder.Wait()
	})
	assert.False(t, recorder.Enabled())
}

func TestRecorder_RecoversPanics(t *testing.T) {
	logs := captureLogs(t)
	recorder := NewRecorder(nil, nil, RecorderConfig{})

	recorder.Detach(context.Background(), "explode", func(ctx context.Context) error {
		panic("boom")
	})
	recorder.Wait()

	assert.Contains(t, logs.String(), "background write panicked")
}
