// internal/handlers/session_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/memorymatch/internal/auth"
	"github.com/jason-s-yu/memorymatch/internal/game"
	"github.com/jason-s-yu/memorymatch/internal/metrics"
	"github.com/jason-s-yu/memorymatch/internal/middleware"
	"github.com/sirupsen/logrus"
)

// ClientMessage is an incoming WebSocket command.
type ClientMessage struct {
	Type string `json:"type"`

	// Config carries the round options of start_round.
	Config *game.Config `json:"config,omitempty"`

	// Card is the grid id picked by select_card.
	Card *int `json:"card,omitempty"`
}

// SessionWSHandler upgrades GET /session/ws/{id} to a WebSocket bound to one
// session. The token must have been issued for that session.
func SessionWSHandler(logger *logrus.Logger, s *SessionServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "Invalid session id format", http.StatusBadRequest)
			return
		}

		token := requestToken(r)
		if token == "" {
			http.Error(w, "missing auth_token", http.StatusUnauthorized)
			return
		}
		tokenID, err := auth.AuthenticateSessionToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		if tokenID != sessionID {
			http.Error(w, "token was not issued for this session", http.StatusForbidden)
			return
		}

		sess, view, ok := s.lookup(sessionID)
		if !ok {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for session %s: %v", sessionID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("Client for session %s connected with invalid subprotocol: %q", sessionID, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		metrics.SocketsConnected.Inc()
		defer metrics.SocketsConnected.Dec()

		entry := sess.Logger.WithField("remote", r.RemoteAddr)
		out := view.attach(c)
		go writeLoop(c, out, entry)
		view.sendSync(sess.Snapshot())

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		err = readSessionMessages(ctx, c, s, sess, view, entry)

		view.detach(c)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readSessionMessages routes client commands to the session until the
// connection fails or ctx is cancelled. It returns the read error, or nil on a
// normal close.
func readSessionMessages(ctx context.Context, c *websocket.Conn, s *SessionServer, sess *game.Session, view *socketView, logger *logrus.Entry) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d. Ignoring.", msgType)
			continue
		}

		// Keep the session alive while the client is active.
		s.Store.GetSession(sess.ID)

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received: %v", err)
			view.sendError("Invalid JSON format.", "")
			continue
		}
		logger.Debugf("Received message '%s'", msg.Type)
		handleClientMessage(sess, view, msg)
	}
}

// handleClientMessage applies one command. It never holds the session lock
// itself; every Session method serializes internally.
func handleClientMessage(sess *game.Session, view *socketView, msg ClientMessage) {
	switch msg.Type {
	case "start_round":
		if msg.Config == nil {
			view.sendError("start_round requires a config", "config")
			return
		}
		if err := sess.StartRound(*msg.Config); err != nil {
			var cfgErr *game.ConfigError
			if errors.As(err, &cfgErr) {
				view.sendError(err.Error(), cfgErr.Field)
			} else {
				view.sendError(err.Error(), "")
			}
		}

	case "select_card":
		if msg.Card == nil {
			view.sendError("select_card requires a card", "card")
			return
		}
		sess.SelectCard(*msg.Card)

	case "reset_round":
		sess.ResetRound()
		view.sendSync(sess.Snapshot())

	case "flip_all_up":
		sess.ForceRevealAll()

	case "flip_all_down":
		sess.ForceHideAll()

	case "sync":
		view.sendSync(sess.Snapshot())

	case "ping":
		view.send(map[string]interface{}{"type": "pong"})

	default:
		view.sendError(fmt.Sprintf("Unknown message type: %s", msg.Type), "")
	}
}
