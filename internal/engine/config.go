package engine

import "log/slog"

// Config holds the engine connection settings.
type Config struct {
	// Domain is the SIP domain calls are addressed to.
	Domain string
	// WebSocketURL is the signaling transport endpoint (wss://host/ws).
	WebSocketURL string
	// AuthorizationUser is the account used to register.
	AuthorizationUser string
	// Password authenticates AuthorizationUser.
	Password string
	// DisplayName is sent as the local display name on outgoing calls.
	DisplayName string
	// Debug enables engine wire logging.
	Debug bool
}

// Validate logs a warning for each missing required field. Initialization
// proceeds best-effort; Start will fail later if the engine truly cannot
// connect.
func (c Config) Validate() {
	if c.Domain == "" {
		slog.Warn("[Engine] Config missing domain")
	}
	if c.WebSocketURL == "" {
		slog.Warn("[Engine] Config missing websocket URL")
	}
}
