package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
)

// FlushFunc receives ownership of a completed batch. The queue passes the
// data and forgets it; errors stay inside the handler.
type FlushFunc func(ctx context.Context, batch *domain.MessageBatch)

// BatchQueueConfig contains queue tunables.
type BatchQueueConfig struct {
	DebounceWindow time.Duration
	MaxBatchSize   int
}

// DefaultBatchQueueConfig returns the default queue configuration.
func DefaultBatchQueueConfig() BatchQueueConfig {
	return BatchQueueConfig{
		DebounceWindow: 2 * time.Second,
		MaxBatchSize:   10,
	}
}

// batchState tracks where a batch is in its lifecycle.
type batchState int

const (
	stateAccumulating batchState = iota
	stateFlushing
)

// batch accumulates messages for one (sender, channel) pair. Its mutex
// serializes appends, timer resets and the flush transition for this key
// so unrelated conversations never contend.
type batch struct {
	mu        sync.Mutex
	key       string
	senderID  string
	channelID string
	messages  []domain.QueuedMessage
	timer     *time.Timer
	state     batchState
}

// BatchQueue coalesces bursts of messages per (sender, channel) key and
// flushes each batch once its debounce window elapses or it hits the size
// cap. Removal from the registry is the single source of truth for
// "already flushed": a stale timer or a raced size-cap trigger finds the
// batch gone (or mid-flush) and no-ops.
type BatchQueue struct {
	mu      sync.Mutex
	batches map[string]*batch

	cfg     BatchQueueConfig
	onFlush FlushFunc
	logger  *zap.Logger

	wg     sync.WaitGroup
	closed bool
}

// NewBatchQueue creates a batch queue delivering completed batches to onFlush.
func NewBatchQueue(cfg BatchQueueConfig, onFlush FlushFunc, logger *zap.Logger) *BatchQueue {
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = DefaultBatchQueueConfig().DebounceWindow
	}
	if cfg.MaxBatchSize < 1 {
		cfg.MaxBatchSize = DefaultBatchQueueConfig().MaxBatchSize
	}
	return &BatchQueue{
		batches: make(map[string]*batch),
		cfg:     cfg,
		onFlush: onFlush,
		logger:  logger.Named("queue"),
	}
}

func batchKey(senderID, channelID string) string {
	return senderID + ":" + channelID
}

// Enqueue adds a message to the batch for (senderID, channelID), creating a
// fresh batch when none exists or the existing one is already flushing.
// Every arrival restarts the debounce timer; reaching the size cap flushes
// immediately. Enqueue never blocks on downstream processing.
func (q *BatchQueue) Enqueue(senderID, channelID string, msg domain.QueuedMessage) {
	key := batchKey(senderID, channelID)

	for {
		b := q.getOrCreate(key, senderID, channelID)

		b.mu.Lock()
		if b.state == stateFlushing {
			// Raced with a flush that already detached this batch. Drop the
			// registry entry if it still points here and retry with a fresh one.
			b.mu.Unlock()
			q.forget(key, b)
			continue
		}

		b.messages = append(b.messages, msg)
		count := len(b.messages)

		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}

		if count >= q.cfg.MaxBatchSize {
			b.mu.Unlock()
			q.logger.Info("batch hit size cap, flushing immediately",
				zap.String("key", key), zap.Int("size", count))
			q.flush(key, b, "size_cap")
			return
		}

		b.timer = time.AfterFunc(q.cfg.DebounceWindow, func() {
			q.flush(key, b, "debounce")
		})
		b.mu.Unlock()

		q.logger.Debug("message enqueued",
			zap.String("key", key), zap.Int("size", count))
		return
	}
}

func (q *BatchQueue) getOrCreate(key, senderID, channelID string) *batch {
	q.mu.Lock()
	defer q.mu.Unlock()

	b, ok := q.batches[key]
	if !ok {
		b = &batch{key: key, senderID: senderID, channelID: channelID}
		q.batches[key] = b
		q.logger.Debug("created batch", zap.String("key", key))
	}
	return b
}

// forget removes the registry entry only if it still maps key to b, so a
// concurrently created replacement batch is never clobbered.
func (q *BatchQueue) forget(key string, b *batch) {
	q.mu.Lock()
	if q.batches[key] == b {
		delete(q.batches, key)
	}
	q.mu.Unlock()
}

// flush transitions the batch to flushing, detaches its messages, and hands
// them to the flush handler on a tracked goroutine. Safe to call from both
// the timer and the size-cap path for the same batch: only the first caller
// executes the handler.
func (q *BatchQueue) flush(key string, b *batch, trigger string) {
	b.mu.Lock()
	if b.state == stateFlushing {
		b.mu.Unlock()
		q.logger.Debug("flush already in progress", zap.String("key", key))
		return
	}
	b.state = stateFlushing
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	msgs := b.messages
	b.messages = nil
	b.mu.Unlock()

	if len(msgs) == 0 {
		q.forget(key, b)
		return
	}

	flushed := &domain.MessageBatch{
		SenderID:  b.senderID,
		ChannelID: b.channelID,
		Messages:  msgs,
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.forget(key, b)
		q.logger.Warn("queue closed, dropping batch",
			zap.String("key", key), zap.Int("size", len(msgs)))
		return
	}
	q.wg.Add(1)
	q.mu.Unlock()

	q.logger.Info("flushing batch",
		zap.String("key", key),
		zap.Int("size", len(msgs)),
		zap.String("trigger", trigger))

	go func() {
		defer q.wg.Done()
		defer q.forget(key, b)
		defer func() {
			if r := recover(); r != nil {
				q.logger.Error("flush handler panicked",
					zap.String("key", key), zap.Any("panic", r))
			}
		}()
		q.onFlush(context.Background(), flushed)
	}()
}

// Stats is a snapshot of the queue registry.
type Stats struct {
	Batches  int            `json:"batches"`
	Messages int            `json:"messages"`
	PerKey   map[string]int `json:"per_key"`
}

// Snapshot returns current registry statistics.
func (q *BatchQueue) Snapshot() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := Stats{PerKey: make(map[string]int, len(q.batches))}
	for key, b := range q.batches {
		b.mu.Lock()
		n := len(b.messages)
		b.mu.Unlock()
		stats.Batches++
		stats.Messages += n
		stats.PerKey[key] = n
	}
	return stats
}

// Close stops accepting new flushes and waits for in-flight flush handlers
// to finish, or for ctx to expire. Accumulating batches that have not
// flushed yet are dropped; the queue is volatile by design.
func (q *BatchQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	for key, b := range q.batches {
		b.mu.Lock()
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
		n := len(b.messages)
		b.mu.Unlock()
		if n > 0 {
			q.logger.Warn("dropping unflushed batch on shutdown",
				zap.String("key", key), zap.Int("size", n))
		}
		delete(q.batches, key)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
