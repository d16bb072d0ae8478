// Package action defines the canonical action vocabulary the channel
// reducer consumes, independent of engine-specific event names.
package action

import (
	"fmt"

	"github.com/sebas/lineboard/internal/engine"
)

// Type enumerates the canonical actions.
type Type int

const (
	// IncomingCall announces a new unanswered incoming session.
	IncomingCall Type = iota
	// OutgoingCall announces a new outgoing session bound to the focused channel.
	OutgoingCall
	// CallAccepted announces a confirmed (connected) session.
	CallAccepted
	// CallEnded announces a terminated session, however it ended.
	CallEnded
	// Hold announces the session was parked.
	Hold
	// Unhold announces the session was resumed.
	Unhold
	// Mute announces the local microphone was muted for the session.
	Mute
	// Unmute announces the local microphone was unmuted.
	Unmute
	// Reinvite forwards a mid-call re-INVITE, used by attended-transfer
	// completion to reveal the transferred-to party.
	Reinvite
	// Notify carries a one-line operator-facing notice.
	Notify
)

// String returns the string representation of Type.
func (t Type) String() string {
	switch t {
	case IncomingCall:
		return "incomingCall"
	case OutgoingCall:
		return "outgoingCall"
	case CallAccepted:
		return "callAccepted"
	case CallEnded:
		return "callEnded"
	case Hold:
		return "hold"
	case Unhold:
		return "unhold"
	case Mute:
		return "mute"
	case Unmute:
		return "unmute"
	case Reinvite:
		return "reinvite"
	case Notify:
		return "notify"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Action is one canonical action. Only the fields relevant to the type
// are populated.
type Action struct {
	Type      Type
	SessionID string

	// Remote and Direction are set for IncomingCall and OutgoingCall.
	Remote    engine.RemoteIdentity
	Direction engine.Direction

	// Channel is the channel id tagged onto an answered session, joined
	// against the fixed channel slots on CallAccepted. -1 when absent.
	Channel int

	// AssertedIdentity is the raw P-Asserted-Identity value on Reinvite.
	AssertedIdentity string

	// Message is the notice text on Notify.
	Message string
}

// NewCallAccepted builds a CallAccepted action carrying the channel tag.
func NewCallAccepted(sessionID string, channel int) Action {
	return Action{Type: CallAccepted, SessionID: sessionID, Channel: channel}
}

// NewNotify builds a Notify action.
func NewNotify(message string) Action {
	return Action{Type: Notify, Channel: -1, Message: message}
}
