// internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/memorymatch/internal/metrics"
	"github.com/jason-s-yu/memorymatch/internal/middleware"
	"github.com/sirupsen/logrus"
)

// NewRouter mounts every endpoint of the service.
func NewRouter(logger *logrus.Logger, s *SessionServer) http.Handler {
	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	// session endpoints
	mux.Handle("POST /session/create", logged(CreateSessionHandler(s)))
	mux.Handle("GET /session/themes", logged(ThemesHandler(s)))
	mux.Handle("GET /session/leaderboard", logged(LeaderboardHandler(s)))

	// session websocket
	mux.Handle("GET /session/ws/{id}", logged(SessionWSHandler(logger, s)))

	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}
