// Package types defines the wire types shared by the console server and
// its WebSocket clients.
package types

// HealthResponse is the response from /health
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime"`
}

// Command is one operator action sent over the WebSocket.
type Command struct {
	// Command selects the operation: connect, disconnect, focus, dial,
	// answer, reject, hangup, hold, unhold, toggle_hold, toggle_mute,
	// blind_transfer, attended_transfer.
	Command string `json:"command"`

	// Channel selects a display channel for focus.
	Channel int `json:"channel,omitempty"`

	// SessionID addresses one session for answer/reject/hangup/hold.
	SessionID string `json:"session_id,omitempty"`

	// Number is the typed target for dial and transfer commands.
	Number string `json:"number,omitempty"`

	// Picked is the target chosen from history/contacts; a digit-only
	// typed Number takes precedence over it.
	Picked string `json:"picked,omitempty"`

	// Held reports the channel's current hold flag for toggle commands.
	Held bool `json:"held,omitempty"`

	// Action names the attended transfer step: transfer, cancel,
	// finish, merge, swap.
	Action string `json:"action,omitempty"`
}

// MessageType tags a server-to-client WebSocket message.
type MessageType string

const (
	// MessageState carries a full console state snapshot.
	MessageState MessageType = "state"
	// MessageNotice carries one operator notice line.
	MessageNotice MessageType = "notice"
	// MessageError reports a rejected command.
	MessageError MessageType = "error"
)
