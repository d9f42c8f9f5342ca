// internal/handlers/session_server.go
package handlers

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorymatch/internal/assets"
	"github.com/jason-s-yu/memorymatch/internal/game"
	"github.com/jason-s-yu/memorymatch/internal/metrics"
	"github.com/jason-s-yu/memorymatch/internal/models"
	"github.com/sirupsen/logrus"
)

const sinkQueueSize = 1024

// sinkJob is one pending write to the action queue or the results table.
type sinkJob struct {
	action *models.RoundAction
	result *models.RoundResult
}

// SessionServer owns the live sessions and the views they render into.
// Actions and results leave the session lock through a single ordered queue.
type SessionServer struct {
	Store  *game.SessionStore
	Assets *assets.Catalog
	Timing game.Timing
	Logger *logrus.Logger

	// PublishAction forwards one action to the historian queue. nil drops actions.
	PublishAction func(ctx context.Context, action models.RoundAction) error

	// RecordResult persists a won round. nil skips persistence.
	RecordResult func(ctx context.Context, result models.RoundResult) error

	// Leaderboard serves the fastest results for a grid. nil answers 503.
	Leaderboard func(ctx context.Context, gridSize, limit int) ([]models.RoundResult, error)

	mu    sync.Mutex
	views map[uuid.UUID]*socketView
	sinks chan sinkJob
}

func NewSessionServer(catalog *assets.Catalog, timing game.Timing, logger *logrus.Logger) *SessionServer {
	return &SessionServer{
		Store:  game.NewSessionStore(),
		Assets: catalog,
		Timing: timing,
		Logger: logger,
		views:  make(map[uuid.UUID]*socketView),
		sinks:  make(chan sinkJob, sinkQueueSize),
	}
}

// NewSession creates a session, registers it and wires its hooks.
func (s *SessionServer) NewSession() *game.Session {
	view := newSocketView(nil)
	sess := game.NewSession(view, s.Assets)
	sess.Timing = s.Timing
	sess.Logger = s.Logger.WithField("session", sess.ID.String())
	view.logger = sess.Logger

	sess.ActionSink = func(action models.RoundAction) {
		metrics.Actions.WithLabelValues(action.ActionType).Inc()
		if s.PublishAction != nil {
			s.enqueue(sinkJob{action: &action})
		}
	}
	sess.OnRoundEnd = func(result models.RoundResult) {
		metrics.RoundDuration.WithLabelValues(strconv.Itoa(result.GridSize)).Observe(result.Duration.Seconds())
		if s.RecordResult != nil {
			s.enqueue(sinkJob{result: &result})
		}
	}

	s.mu.Lock()
	s.views[sess.ID] = view
	s.mu.Unlock()
	s.Store.AddSession(sess)
	metrics.SessionsActive.Set(float64(s.Store.Len()))
	return sess
}

// lookup returns a session and its view.
func (s *SessionServer) lookup(id uuid.UUID) (*game.Session, *socketView, bool) {
	sess, ok := s.Store.GetSession(id)
	if !ok {
		return nil, nil, false
	}
	s.mu.Lock()
	view, ok := s.views[id]
	s.mu.Unlock()
	return sess, view, ok
}

// EvictIdle drops sessions not used for maxIdle and disconnects their clients.
func (s *SessionServer) EvictIdle(maxIdle time.Duration) int {
	ids := s.Store.EvictIdle(time.Now().Add(-maxIdle))
	s.dropViews(ids, "session idle")
	metrics.SessionsActive.Set(float64(s.Store.Len()))
	if len(ids) > 0 {
		s.Logger.WithField("count", len(ids)).Info("evicted idle sessions")
	}
	return len(ids)
}

// RunEviction evicts idle sessions every interval until ctx is done.
func (s *SessionServer) RunEviction(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(maxIdle)
		}
	}
}

// Shutdown closes every client and stops every session's timers.
func (s *SessionServer) Shutdown() {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.views))
	for id := range s.views {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Store.DeleteSession(id)
	}
	s.dropViews(ids, "server shutting down")
	metrics.SessionsActive.Set(0)
}

func (s *SessionServer) dropViews(ids []uuid.UUID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if view, ok := s.views[id]; ok {
			view.shutdown(reason)
			delete(s.views, id)
		}
	}
}

// enqueue hands a job to RunSinks without blocking the calling session.
func (s *SessionServer) enqueue(job sinkJob) {
	select {
	case s.sinks <- job:
	default:
		metrics.SinkErrors.WithLabelValues("queue_full").Inc()
		s.Logger.Warn("sink queue full, dropping record")
	}
}

// RunSinks writes queued actions and results in order until ctx is done.
func (s *SessionServer) RunSinks(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.sinks:
			s.runSink(ctx, job)
		}
	}
}

func (s *SessionServer) runSink(ctx context.Context, job sinkJob) {
	writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	switch {
	case job.action != nil:
		if err := s.PublishAction(writeCtx, *job.action); err != nil {
			metrics.SinkErrors.WithLabelValues("redis").Inc()
			s.Logger.WithError(err).WithField("session", job.action.SessionID).Warn("failed to publish action")
		}
	case job.result != nil:
		if err := s.RecordResult(writeCtx, *job.result); err != nil {
			metrics.SinkErrors.WithLabelValues("postgres").Inc()
			s.Logger.WithError(err).WithField("session", job.result.SessionID).Warn("failed to record round result")
		}
	}
}
