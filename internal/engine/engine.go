// Package engine defines the contract between the console core and the
// signaling/media engine. The engine owns every session object; the
// console holds non-owning references and routes all call mutation
// through the session's command methods.
package engine

import "fmt"

// Direction indicates whether a session was placed or received.
type Direction int

const (
	// DirectionIncoming represents a call received from the network.
	DirectionIncoming Direction = iota
	// DirectionOutgoing represents a call placed by the operator.
	DirectionOutgoing
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	switch d {
	case DirectionIncoming:
		return "incoming"
	case DirectionOutgoing:
		return "outgoing"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// RemoteIdentity is the far end of a session as reported by signaling.
type RemoteIdentity struct {
	// DisplayName is the optional display name from the From/To header.
	DisplayName string
	// User is the user part of the remote URI.
	User string
}

// Label returns the display name when present, otherwise the URI user.
func (r RemoteIdentity) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.User
}

// AnswerOptions configures how an incoming session is answered.
type AnswerOptions struct {
	// Audio requests an audio stream. Video is never requested by the console.
	Audio bool
}

// CallOptions configures an outgoing call.
type CallOptions struct {
	// Audio requests an audio stream.
	Audio bool
	// SessionTimerSeconds is the RFC 4028 session timer interval.
	SessionTimerSeconds int
	// ExtraHeaders are appended verbatim to the INVITE.
	ExtraHeaders []string
}

// Session is a non-owning handle to one engine-owned call.
//
// Once a session has reported SessionEnded or SessionFailed it must never
// be commanded again; commands against a terminated session return
// ErrSessionTerminated and have no effect.
type Session interface {
	// ID returns the opaque session identifier, stable for the call's
	// lifetime and unique among concurrently live sessions.
	ID() string

	// Direction returns whether the session is incoming or outgoing.
	Direction() Direction

	// RemoteIdentity returns the far-end identity.
	RemoteIdentity() RemoteIdentity

	// Answer accepts an incoming session.
	Answer(opts AnswerOptions) error

	// Hold parks the session (re-INVITE sendonly).
	Hold() error

	// Unhold resumes a parked session.
	Unhold() error

	// Mute stops sending local audio.
	Mute() error

	// Unmute resumes sending local audio.
	Unmute() error

	// Terminate ends the session regardless of its state.
	Terminate() error

	// SendDTMF sends out-of-band DTMF digits to the remote side.
	SendDTMF(digits string) error

	// OnEvent registers a callback for session lifecycle events.
	// Callbacks are invoked in the order the engine reports events for
	// this session. Returns a function to unregister the callback.
	OnEvent(fn func(SessionEvent)) func()
}

// UserAgent is the engine's connection and session factory.
type UserAgent interface {
	// Start connects and registers the agent.
	Start() error

	// Stop unregisters and disconnects the agent.
	Stop() error

	// Call places an outgoing call to the given number at the configured
	// domain. The resulting session is delivered via OnNewSession.
	Call(number string, opts CallOptions) error

	// Session looks up a live session by id. The second return is false
	// if no live session has that id.
	Session(id string) (Session, bool)

	// OnNewSession registers a callback for every new session, incoming
	// or outgoing.
	OnNewSession(fn func(Session))

	// OnEvent registers a callback for agent lifecycle events.
	OnEvent(fn func(AgentEvent))
}
