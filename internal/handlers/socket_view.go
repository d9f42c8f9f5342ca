// internal/handlers/socket_view.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/memorymatch/internal/game"
	"github.com/jason-s-yu/memorymatch/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	outboxSize   = 256
	writeTimeout = 5 * time.Second
)

// socketCloser is the part of *websocket.Conn the view needs to evict a client.
type socketCloser interface {
	Close(code websocket.StatusCode, reason string) error
}

// socketView is the BoardView of one session. Board effects are queued on a
// bounded outbox and written by the connection's writer goroutine, so the
// session never waits on the network. With no client attached events are
// dropped; a reconnecting client resyncs from a snapshot.
type socketView struct {
	logger *logrus.Entry

	mu    sync.Mutex
	out   chan []byte
	owner socketCloser

	// symbols lets face-up events carry the symbol the client was never sent
	// in an obfuscated sync.
	symbols []string
}

var _ game.BoardView = (*socketView)(nil)

func newSocketView(logger *logrus.Entry) *socketView {
	return &socketView{logger: logger}
}

// attach gives the outbox to a new client. A previously attached client is
// closed with ReplacedError.
func (v *socketView) attach(owner socketCloser) <-chan []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.out != nil {
		close(v.out)
		prev := v.owner
		go prev.Close(ReplacedError, "session opened elsewhere")
		v.logger.Info("replacing attached client")
	}
	v.out = make(chan []byte, outboxSize)
	v.owner = owner
	return v.out
}

// detach releases the outbox if owner still holds it.
func (v *socketView) detach(owner socketCloser) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.owner != owner || v.out == nil {
		return
	}
	close(v.out)
	v.out = nil
	v.owner = nil
}

// shutdown closes the attached client, if any.
func (v *socketView) shutdown(reason string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.out == nil {
		return
	}
	close(v.out)
	prev := v.owner
	v.out = nil
	v.owner = nil
	go prev.Close(SessionClosedError, reason)
}

// send queues one event for the attached client.
func (v *socketView) send(ev map[string]interface{}) {
	data, err := json.Marshal(ev)
	if err != nil {
		v.logger.Errorf("failed to marshal %v event: %v", ev["type"], err)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.out == nil {
		return
	}
	select {
	case v.out <- data:
	default:
		metrics.EventsDropped.Inc()
		v.logger.WithField("type", ev["type"]).Warn("outbox full, dropping event")
	}
}

func (v *socketView) RenderDeck(front string, cards []game.Card) {
	v.rememberSymbols(cards)
	v.send(map[string]interface{}{"type": "render_deck", "front": front, "cards": cards})
}

func (v *socketView) SetOrientation(cardID int, o game.Orientation) {
	ev := map[string]interface{}{"type": "card_orientation", "card": cardID, "orientation": o}
	if o == game.FaceUp {
		if sym := v.symbol(cardID); sym != "" {
			ev["symbol"] = sym
		}
	}
	v.send(ev)
}

func (v *socketView) SetMatched(cardID int, matched bool) {
	v.send(map[string]interface{}{"type": "card_matched", "card": cardID, "matched": matched})
}

func (v *socketView) SetHidden(cardID int, hidden bool) {
	v.send(map[string]interface{}{"type": "card_hidden", "card": cardID, "hidden": hidden})
}

func (v *socketView) SetScore(score int) {
	v.send(map[string]interface{}{"type": "score", "score": score})
}

func (v *socketView) SetCountdown(seconds int) {
	v.send(map[string]interface{}{"type": "countdown", "seconds": seconds})
}

func (v *socketView) NotifyRoundWon(score int) {
	v.send(map[string]interface{}{"type": "round_won", "score": score})
}

func (v *socketView) PlaySound(s game.Sound) {
	v.send(map[string]interface{}{"type": "sound", "sound": s})
}

// sendSync queues the session state with face-down symbols blanked.
func (v *socketView) sendSync(snap game.Snapshot) {
	v.rememberSymbols(snap.Cards)
	v.send(map[string]interface{}{"type": "sync_state", "state": snap.Obfuscated()})
}

func (v *socketView) rememberSymbols(cards []game.Card) {
	symbols := make([]string, len(cards))
	for i, c := range cards {
		symbols[i] = c.Symbol
	}
	v.mu.Lock()
	v.symbols = symbols
	v.mu.Unlock()
}

func (v *socketView) symbol(cardID int) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if cardID < 0 || cardID >= len(v.symbols) {
		return ""
	}
	return v.symbols[cardID]
}

// sendError queues an error event. field is empty for non-config errors.
func (v *socketView) sendError(message, field string) {
	ev := map[string]interface{}{"type": "error", "message": message}
	if field != "" {
		ev["field"] = field
	}
	v.send(ev)
}

// writeLoop drains out onto c until out is closed or a write fails.
func writeLoop(c *websocket.Conn, out <-chan []byte, logger *logrus.Entry) {
	for data := range out {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				logger.Warnf("Error writing WebSocket message: %v (Status: %d)", err, status)
			}
			// Unblocks the read loop, which detaches the outbox.
			c.CloseNow()
			return
		}
	}
}
