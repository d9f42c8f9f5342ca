// internal/handlers/session.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jason-s-yu/memorymatch/internal/auth"
	"github.com/jason-s-yu/memorymatch/internal/game"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// CreateSessionHandler creates an idle session and returns a token bound to it.
// The token is also set as the auth_token cookie.
func CreateSessionHandler(s *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.NewSession()

		token, err := auth.CreateSessionToken(sess.ID)
		if err != nil {
			s.Store.DeleteSession(sess.ID)
			s.Logger.WithError(err).Error("failed to sign session token")
			http.Error(w, "failed to create session token", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     tokenCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, map[string]string{
			"session_id": sess.ID.String(),
			"token":      token,
		})
	}
}

// ThemesHandler lists the themes and grid sizes a round can use.
func ThemesHandler(s *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"themes":    s.Assets.Names(),
			"gridSizes": game.AllowedGridSizes,
		})
	}
}

type leaderboardEntry struct {
	SessionID  string    `json:"session_id"`
	Round      int       `json:"round"`
	Score      int       `json:"score"`
	GridSize   int       `json:"grid_size"`
	Theme      string    `json:"theme"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// LeaderboardHandler returns the fastest won rounds for ?grid=N (default 4).
func LeaderboardHandler(s *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Leaderboard == nil {
			http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
			return
		}

		grid := 4
		if v := r.URL.Query().Get("grid"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || !game.ValidGridSize(n) {
				http.Error(w, "invalid grid size", http.StatusBadRequest)
				return
			}
			grid = n
		}
		limit := defaultLeaderboardLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxLeaderboardLimit)
		}

		results, err := s.Leaderboard(r.Context(), grid, limit)
		if err != nil {
			s.Logger.WithError(err).Error("leaderboard query failed")
			http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
			return
		}

		entries := make([]leaderboardEntry, 0, len(results))
		for _, res := range results {
			entries = append(entries, leaderboardEntry{
				SessionID:  res.SessionID.String(),
				Round:      res.Round,
				Score:      res.Score,
				GridSize:   res.GridSize,
				Theme:      res.Theme,
				DurationMS: res.Duration.Milliseconds(),
				FinishedAt: res.FinishedAt,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"grid": grid, "results": entries})
	}
}
