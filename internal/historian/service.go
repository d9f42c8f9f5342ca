// internal/historian/service.go pops session actions from the Redis queue and
// persists them to Postgres in batches.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorymatch/internal/cache"
	"github.com/jason-s-yu/memorymatch/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Store is where flushed actions end up.
type Store interface {
	InsertRoundActions(ctx context.Context, actions []models.RoundAction) error
	MarkRoundAbandoned(ctx context.Context, sessionID uuid.UUID, round int) (bool, error)
}

// Options tune batching and abandonment.
type Options struct {
	Queue      string
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration // a round with no action for this long is abandoned
	SweepEvery time.Duration
}

type roundKey struct {
	sessionID uuid.UUID
	round     int
}

// Service drains the action queue. One Service per queue.
type Service struct {
	rdb    *redis.Client
	store  Store
	opts   Options
	logger *logrus.Entry
	now    func() time.Time

	mu           sync.Mutex
	batch        []models.RoundAction
	lastActivity map[roundKey]time.Time
}

// NewService builds a Service. Zero option values get defaults.
func NewService(rdb *redis.Client, store Store, opts Options, logger *logrus.Logger) *Service {
	if opts.Queue == "" {
		opts.Queue = cache.QueueName
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = time.Minute
	}
	return &Service{
		rdb:          rdb,
		store:        store,
		opts:         opts,
		logger:       logger.WithField("component", "historian"),
		now:          time.Now,
		batch:        make([]models.RoundAction, 0, opts.BatchSize),
		lastActivity: make(map[roundKey]time.Time),
	}
}

// Run blocks until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.logger.WithField("queue", s.opts.Queue).Info("historian started")
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.logger.Info("historian stopped")
}

// readLoop pops one entry at a time; the BLPop timeout bounds how late a
// partial batch is flushed.
func (s *Service) readLoop(ctx context.Context) {
	lastFlush := s.now()
	for {
		if ctx.Err() != nil {
			return
		}
		if s.now().Sub(lastFlush) >= s.opts.FlushDelay {
			s.Flush(ctx)
			lastFlush = s.now()
		}

		res, err := s.rdb.BLPop(ctx, s.opts.FlushDelay, s.opts.Queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			s.logger.WithError(err).Error("BLPop failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		if len(res) < 2 {
			continue
		}
		s.HandlePayload(ctx, []byte(res[1]))
	}
}

// HandlePayload decodes one queue entry and adds it to the batch, flushing
// when the batch is full.
func (s *Service) HandlePayload(ctx context.Context, payload []byte) {
	action, err := cache.DecodeRoundAction(payload)
	if err != nil {
		s.logger.WithError(err).Warn("dropping invalid action record")
		return
	}

	s.mu.Lock()
	key := roundKey{action.SessionID, action.Round}
	switch action.ActionType {
	case models.ActionRoundWon, models.ActionRoundReset:
		delete(s.lastActivity, key)
	default:
		s.lastActivity[key] = s.now()
	}
	s.batch = append(s.batch, action)
	full := len(s.batch) >= s.opts.BatchSize
	s.mu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch in one transaction. A failed batch is
// logged and discarded.
func (s *Service) Flush(ctx context.Context) {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return
	}
	pending := make([]models.RoundAction, len(s.batch))
	copy(pending, s.batch)
	s.batch = s.batch[:0]
	s.mu.Unlock()

	if err := s.store.InsertRoundActions(ctx, pending); err != nil {
		s.logger.WithError(err).WithField("count", len(pending)).Error("flush failed")
		return
	}
	s.logger.WithField("count", len(pending)).Debug("flushed actions")
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep marks rounds idle past the inactivity threshold as abandoned.
func (s *Service) Sweep(ctx context.Context) {
	now := s.now()
	var stale []roundKey
	s.mu.Lock()
	for key, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			stale = append(stale, key)
			delete(s.lastActivity, key)
		}
	}
	s.mu.Unlock()
	if len(stale) == 0 {
		return
	}

	// Pending actions must land before their round is closed.
	s.Flush(ctx)
	for _, key := range stale {
		entry := s.logger.WithFields(logrus.Fields{"session": key.sessionID, "round": key.round})
		changed, err := s.store.MarkRoundAbandoned(ctx, key.sessionID, key.round)
		if err != nil {
			entry.WithError(err).Error("failed to mark round abandoned")
			continue
		}
		if changed {
			entry.Info("marked round abandoned due to inactivity")
		}
	}
}
