// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the session handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError websocket.StatusCode = 3001 // Token was invalid or expired.
	InvalidSessionIDError websocket.StatusCode = 3003 // Target session does not exist or is not the token's.
	ReplacedError         websocket.StatusCode = 3004 // A newer connection took over the session.
	SessionClosedError    websocket.StatusCode = 3005 // The session was evicted or shut down.
)
