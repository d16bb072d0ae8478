package engine

import (
	"errors"
	"fmt"
)

// ErrSessionTerminated is returned by session commands issued after the
// session reported ended or failed.
var ErrSessionTerminated = errors.New("session already terminated")

// SessionEventType is the fixed per-session event vocabulary.
type SessionEventType int

const (
	SessionPeerConnection SessionEventType = iota
	SessionConnecting
	SessionSending
	SessionProgress
	SessionAccepted
	SessionNewDTMF
	SessionNewInfo
	SessionHold
	SessionUnhold
	SessionMuted
	SessionUnmuted
	SessionReinvite
	SessionUpdate
	SessionRefer
	SessionReplaces
	SessionSDP
	SessionICECandidate
	SessionGetUserMediaFailed
	SessionEnded
	SessionFailed
	SessionConfirmed
)

// String returns the engine's wire name for the event type.
func (t SessionEventType) String() string {
	switch t {
	case SessionPeerConnection:
		return "peerconnection"
	case SessionConnecting:
		return "connecting"
	case SessionSending:
		return "sending"
	case SessionProgress:
		return "progress"
	case SessionAccepted:
		return "accepted"
	case SessionNewDTMF:
		return "newDTMF"
	case SessionNewInfo:
		return "newInfo"
	case SessionHold:
		return "hold"
	case SessionUnhold:
		return "unhold"
	case SessionMuted:
		return "muted"
	case SessionUnmuted:
		return "unmuted"
	case SessionReinvite:
		return "reinvite"
	case SessionUpdate:
		return "update"
	case SessionRefer:
		return "refer"
	case SessionReplaces:
		return "replaces"
	case SessionSDP:
		return "sdp"
	case SessionICECandidate:
		return "icecandidate"
	case SessionGetUserMediaFailed:
		return "getusermediafailed"
	case SessionEnded:
		return "ended"
	case SessionFailed:
		return "failed"
	case SessionConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// IsTerminal returns true if no further events follow this one.
func (t SessionEventType) IsTerminal() bool {
	return t == SessionEnded || t == SessionFailed
}

// Originator indicates which side produced a signaling event.
type Originator int

const (
	OriginatorLocal Originator = iota
	OriginatorRemote
)

// String returns the string representation of Originator.
func (o Originator) String() string {
	switch o {
	case OriginatorLocal:
		return "local"
	case OriginatorRemote:
		return "remote"
	default:
		return fmt.Sprintf("Unknown(%d)", int(o))
	}
}

// ReinvitePayload carries the signaling detail of a mid-call re-INVITE.
type ReinvitePayload struct {
	// AssertedIdentity is the raw P-Asserted-Identity header value,
	// e.g. `"Jane Doe" <sip:jane@x>`.
	AssertedIdentity string
}

// SessionEvent is one lifecycle event of a session.
type SessionEvent struct {
	Type       SessionEventType
	Originator Originator
	// StatusCode is the SIP status for progress events (180, 183).
	StatusCode int
	// Cause is the engine's failure/end cause, when known.
	Cause string
	// Reinvite is set only for SessionReinvite.
	Reinvite *ReinvitePayload
}

// AgentEventType is the agent lifecycle vocabulary.
type AgentEventType int

const (
	AgentConnecting AgentEventType = iota
	AgentConnected
	AgentDisconnected
	AgentRegistered
	AgentUnregistered
	AgentRegistrationFailed
)

// String returns the engine's wire name for the agent event type.
func (t AgentEventType) String() string {
	switch t {
	case AgentConnecting:
		return "connecting"
	case AgentConnected:
		return "connected"
	case AgentDisconnected:
		return "disconnected"
	case AgentRegistered:
		return "registered"
	case AgentUnregistered:
		return "unregistered"
	case AgentRegistrationFailed:
		return "registrationFailed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// AgentEvent is one lifecycle event of the user agent.
type AgentEvent struct {
	Type  AgentEventType
	Cause string
}
