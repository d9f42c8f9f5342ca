package historian

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorymatch/internal/cache"
	"github.com/jason-s-yu/memorymatch/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	batches   [][]models.RoundAction
	abandoned []roundKey
	failNext  bool
}

func (f *fakeStore) InsertRoundActions(_ context.Context, actions []models.RoundAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	f.batches = append(f.batches, actions)
	return nil
}

func (f *fakeStore) MarkRoundAbandoned(_ context.Context, id uuid.UUID, round int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, roundKey{id, round})
	return true, nil
}

func (f *fakeStore) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func setupService(t *testing.T, batchSize int) (*Service, *fakeStore, *test.Hook, *time.Time) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	store := &fakeStore{}
	svc := NewService(nil, store, Options{BatchSize: batchSize, Inactivity: time.Minute}, logger)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, store, hook, &now
}

func encode(t *testing.T, a models.RoundAction) []byte {
	t.Helper()
	data, err := cache.EncodeRoundAction(a)
	require.NoError(t, err)
	return data
}

func TestBatchFlushesWhenFull(t *testing.T) {
	svc, store, _, _ := setupService(t, 3)
	ctx := context.Background()
	id := uuid.New()

	for i := 1; i <= 2; i++ {
		svc.HandlePayload(ctx, encode(t, models.RoundAction{SessionID: id, Round: 1, ActionIndex: i, ActionType: models.ActionCardSelect}))
	}
	assert.Zero(t, store.total(), "batch not full yet")

	svc.HandlePayload(ctx, encode(t, models.RoundAction{SessionID: id, Round: 1, ActionIndex: 3, ActionType: models.ActionCardSelect}))
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 3)
	for i, a := range store.batches[0] {
		assert.Equal(t, i+1, a.ActionIndex, "queue order is kept")
	}
}

func TestInvalidPayloadIsDropped(t *testing.T) {
	svc, store, hook, _ := setupService(t, 1)
	svc.HandlePayload(context.Background(), []byte("{not json"))
	assert.Zero(t, store.total())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestFlushFailureDiscardsBatch(t *testing.T) {
	svc, store, hook, _ := setupService(t, 10)
	ctx := context.Background()
	svc.HandlePayload(ctx, encode(t, models.RoundAction{SessionID: uuid.New(), Round: 1, ActionIndex: 1}))
	store.failNext = true

	svc.Flush(ctx)
	assert.Zero(t, store.total())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	svc.Flush(ctx)
	assert.Zero(t, store.total(), "failed batch is not retried")
}

func TestSweepMarksIdleRoundsAbandoned(t *testing.T) {
	svc, store, _, now := setupService(t, 100)
	ctx := context.Background()
	idle, won, fresh := uuid.New(), uuid.New(), uuid.New()

	svc.HandlePayload(ctx, encode(t, models.RoundAction{SessionID: idle, Round: 1, ActionIndex: 1, ActionType: models.ActionRoundStart}))
	svc.HandlePayload(ctx, encode(t, models.RoundAction{SessionID: won, Round: 2, ActionIndex: 1, ActionType: models.ActionRoundStart}))
	svc.HandlePayload(ctx, encode(t, models.RoundAction{SessionID: won, Round: 2, ActionIndex: 2, ActionType: models.ActionRoundWon}))

	*now = now.Add(2 * time.Minute)
	svc.HandlePayload(ctx, encode(t, models.RoundAction{SessionID: fresh, Round: 1, ActionIndex: 1, ActionType: models.ActionRoundStart}))

	svc.Sweep(ctx)
	assert.Equal(t, []roundKey{{idle, 1}}, store.abandoned)
	assert.Equal(t, 4, store.total(), "pending actions flushed before marking")

	svc.Sweep(ctx)
	assert.Len(t, store.abandoned, 1, "a round is abandoned once")
}
