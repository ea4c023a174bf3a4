package service

import (
	"context"
	"sync"
	"time"

	"github.com/Rrens/clinic-assistant/internal/domain"
	"github.com/Rrens/clinic-assistant/internal/metrics"
	"github.com/Rrens/clinic-assistant/internal/util"
	"github.com/rs/zerolog/log"
)

// RecorderConfig tunes the background writes
type RecorderConfig struct {
	Retries      int
	RetryDelay   time.Duration
	WriteTimeout time.Duration
}

// Recorder is the persistence sink. Every write runs detached from the
// request; failures are logged and never reach the caller.
// Nil repositories turn the matching write into a no-op.
type Recorder struct {
	conversations domain.ConversationRepository
	logs          domain.OperationLogRepository
	cfg           RecorderConfig
	sleep         util.Sleeper
	wg            sync.WaitGroup
}

// NewRecorder creates a persistence sink
func NewRecorder(conversations domain.ConversationRepository, logs domain.OperationLogRepository, cfg RecorderConfig) *Recorder {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Recorder{
		conversations: conversations,
		logs:          logs,
		cfg:           cfg,
		sleep:         util.Sleep,
	}
}

// Enabled reports whether any store is attached
func (r *Recorder) Enabled() bool {
	return r.conversations != nil || r.logs != nil
}

// Detach runs fn on its own goroutine with a context that survives the
// parent's cancellation but is bounded by the write timeout. It never blocks.
func (r *Recorder) Detach(parent context.Context, name string, fn func(ctx context.Context) error) {
	base := context.WithoutCancel(parent)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				log.Error().Interface("panic", p).Str("task", name).Msg("background write panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(base, r.cfg.WriteTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Error().Err(err).Str("task", name).Msg("background write failed")
		}
	}()
}

// RecordExchange upserts conv in the background, retrying with linear backoff
func (r *Recorder) RecordExchange(parent context.Context, conv *domain.Conversation) {
	if r.conversations == nil || conv == nil {
		return
	}

	r.Detach(parent, "conversation_upsert", func(ctx context.Context) error {
		return r.upsertWithRetry(ctx, conv)
	})
}

func (r *Recorder) upsertWithRetry(ctx context.Context, conv *domain.Conversation) error {
	var err error
	for attempt := 1; attempt <= r.cfg.Retries+1; attempt++ {
		if err = r.conversations.Upsert(ctx, conv); err == nil {
			metrics.ObservePersistence("conversation", "ok")
			return nil
		}

		log.Warn().
			Err(err).
			Str("session_id", conv.SessionID.String()).
			Int("attempt", attempt).
			Msg("conversation upsert failed")

		if attempt > r.cfg.Retries {
			break
		}
		metrics.ObservePersistence("conversation", "retry")
		if serr := r.sleep(ctx, util.LinearBackoff(r.cfg.RetryDelay, attempt)); serr != nil {
			err = serr
			break
		}
	}

	metrics.ObservePersistence("conversation", "failed")
	return err
}

// RecordOperation inserts entry in the background, once
func (r *Recorder) RecordOperation(parent context.Context, entry *domain.OperationLog) {
	if r.logs == nil || entry == nil {
		return
	}

	r.Detach(parent, "operation_log", func(ctx context.Context) error {
		if err := r.logs.Insert(ctx, entry); err != nil {
			metrics.ObservePersistence("operation_log", "failed")
			return err
		}
		metrics.ObservePersistence("operation_log", "ok")
		return nil
	})
}

// Wait blocks until all detached writes have finished
func (r *Recorder) Wait() {
	r.wg.Wait()
}
