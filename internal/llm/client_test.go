package llm_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/Rrens/clinic-assistant/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend returns the queued results in order, repeating the last one
type scriptedBackend struct {
	mu         sync.Mutex
	results    []result
	calls      int
	lastReq    llm.Request
	configured bool
}

type result struct {
	text string
	err  error
}

func newScripted(results ...result) *scriptedBackend {
	return &scriptedBackend{results: results, configured: true}
}

func (b *scriptedBackend) Name() string       { return "scripted" }
func (b *scriptedBackend) IsConfigured() bool { return b.configured }

func (b *scriptedBackend) Complete(ctx context.Context, req llm.Request) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastReq = req
	idx := b.calls
	if idx >= len(b.results) {
		idx = len(b.results) - 1
	}
	b.calls++
	return b.results[idx].text, b.results[idx].err
}

func (b *scriptedBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// recordingSleeper records requested waits without sleeping
type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func transient() error {
	return llm.NewStatusError(http.StatusTooManyRequests, errors.New("resource exhausted"))
}

func TestClient_Generate_Success(t *testing.T) {
	backend := newScripted(result{text: "La vejiga almacena la orina."})
	client := llm.NewClient(backend)

	history := []domain.Turn{{Role: domain.RoleUser, Text: "hola"}}
	text, err := client.Generate(context.Background(), history, "¿Qué hace la vejiga?")

	require.NoError(t, err)
	assert.Equal(t, "La vejiga almacena la orina.\n\n"+llm.Disclaimer, text)
	assert.Equal(t, 1, backend.Calls())
	assert.Equal(t, llm.SystemPolicy, backend.lastReq.SystemPrompt)
	assert.Equal(t, history, backend.lastReq.History)
	assert.Equal(t, "¿Qué hace la vejiga?", backend.lastReq.Message)
}

func TestClient_Generate_RetriesTransientThenSucceeds(t *testing.T) {
	backend := newScripted(
		result{err: transient()},
		result{err: llm.NewStatusError(http.StatusServiceUnavailable, errors.New("overloaded"))},
		result{text: "ok"},
	)
	sleeper := &recordingSleeper{}
	client := llm.NewClient(backend, llm.WithSleeper(sleeper.Sleep))

	text, err := client.Generate(context.Background(), nil, "hola")

	require.NoError(t, err)
	assert.Contains(t, text, "ok")
	assert.Equal(t, 3, backend.Calls())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)
}

func TestClient_Generate_ExhaustsRetries(t *testing.T) {
	backend := newScripted(result{err: transient()})
	sleeper := &recordingSleeper{}
	client := llm.NewClient(backend, llm.WithSleeper(sleeper.Sleep))

	_, err := client.Generate(context.Background(), nil, "hola")

	require.Error(t, err)
	assert.True(t, llm.IsTransient(err))
	assert.Equal(t, 3, backend.Calls())
	// no wait after the final failure
	assert.Len(t, sleeper.waits, 2)
}

func TestClient_Generate_NonTransientFailsImmediately(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind llm.ErrorKind
	}{
		{"malformed request", llm.NewStatusError(http.StatusBadRequest, errors.New("bad")), llm.KindInvalidRequest},
		{"safety block", &llm.BackendError{Kind: llm.KindSafety, Err: errors.New("blocked")}, llm.KindSafety},
		{"auth failure", llm.NewStatusError(http.StatusForbidden, errors.New("denied")), llm.KindConfiguration},
		{"unknown", errors.New("boom"), llm.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newScripted(result{err: tt.err})
			sleeper := &recordingSleeper{}
			client := llm.NewClient(backend, llm.WithSleeper(sleeper.Sleep))

			_, err := client.Generate(context.Background(), nil, "hola")

			require.Error(t, err)
			assert.Equal(t, tt.kind, llm.KindOf(err))
			assert.Equal(t, 1, backend.Calls())
			assert.Empty(t, sleeper.waits)
		})
	}
}

func TestClient_Generate_BlankResponseIsFailure(t *testing.T) {
	backend := newScripted(result{text: "  \n\t "})
	client := llm.NewClient(backend)

	_, err := client.Generate(context.Background(), nil, "hola")

	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
	assert.Equal(t, 1, backend.Calls())
}

func TestClient_Generate_NotConfigured(t *testing.T) {
	backend := newScripted(result{text: "never"})
	backend.configured = false
	client := llm.NewClient(backend)

	_, err := client.Generate(context.Background(), nil, "hola")

	assert.ErrorIs(t, err, llm.ErrNotConfigured)
	assert.Equal(t, llm.KindConfiguration, llm.KindOf(err))
	assert.Equal(t, 0, backend.Calls())
	assert.False(t, llm.NewClient(nil).IsConfigured())
}

func TestClient_Generate_CancelledDuringBackoff(t *testing.T) {
	backend := newScripted(result{err: transient()})
	client := llm.NewClient(backend)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Generate(ctx, nil, "hola")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, backend.Calls())
}

func TestClient_Generate_RealBackoffTiming(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the real 1s + 2s backoff")
	}

	backend := newScripted(result{err: transient()}, result{err: transient()}, result{text: "ok"})
	client := llm.NewClient(backend)

	start := time.Now()
	_, err := client.Generate(context.Background(), nil, "hola")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 3, backend.Calls())
	assert.GreaterOrEqual(t, elapsed, 3*time.Second)
	assert.Less(t, elapsed, 5*time.Second)
}
