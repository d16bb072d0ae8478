// Package flow is the session event normalizer: it subscribes to every
// engine session, owns the active-call slot and the pending and hold
// queues, converts raw engine events into canonical actions, and drives
// the ring/ringback cues.
package flow

import (
	"log/slog"
	"sync"

	"github.com/sebas/lineboard/internal/console/action"
	"github.com/sebas/lineboard/internal/engine"
)

// Operator notices for user-actionable conflicts.
const (
	noticeNotConnected  = "Please connect to VoIP server first"
	noticeActiveExists  = "Active call already exists"
	noticeUnholdBlocked = "Please exit from all active calls to unhold"
	noticeNotInitiated  = "Please initialize phone before connecting"
	noticeAnswerFailed  = "Error answering call"
)

// ToneController owns the single ring and ringback audio resources.
// Ringback must stop the instant a call is answered or ends; the ring
// tone must stop the instant the pending queue becomes empty.
type ToneController interface {
	StartRing()
	StopRing()
	StartRingback()
	StopRingback()
}

// Flow normalizes engine session events into canonical actions and
// enforces the single-active-call invariant.
//
// Ownership: Flow exclusively owns queue membership. Sessions are
// engine-owned handles; Flow borrows them and routes every call mutation
// through their command methods.
type Flow struct {
	mu sync.Mutex

	ua    engine.UserAgent
	cfg   engine.Config
	tones ToneController

	onAction func(action.Action)
	onAgent  func(engine.AgentEvent)

	initiated bool
	connected bool
	micMuted  bool

	active  engine.Session
	pending []engine.Session
	held    []engine.Session

	// answerTags records which channel the operator was focused on when
	// answering, joined against the channel slots on confirmation.
	answerTags map[string]int
	focused    int
}

// Option configures a Flow.
type Option func(*Flow)

// WithTones sets the cue controller. Defaults to a no-op controller.
func WithTones(t ToneController) Option {
	return func(f *Flow) { f.tones = t }
}

// WithOnAction sets the canonical action consumer.
func WithOnAction(fn func(action.Action)) Option {
	return func(f *Flow) { f.onAction = fn }
}

// WithOnAgentEvent sets a consumer for agent lifecycle events.
func WithOnAgentEvent(fn func(engine.AgentEvent)) Option {
	return func(f *Flow) { f.onAgent = fn }
}

// New creates a Flow over the given engine. Call Init before Start.
func New(ua engine.UserAgent, cfg engine.Config, opts ...Option) *Flow {
	f := &Flow{
		ua:         ua,
		cfg:        cfg,
		tones:      nopTones{},
		answerTags: make(map[string]int),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Init validates the configuration and subscribes to the engine.
// Config problems are logged warnings; initialization proceeds best-effort.
func (f *Flow) Init() {
	f.cfg.Validate()

	f.ua.OnNewSession(f.handleNewSession)
	f.ua.OnEvent(f.handleAgentEvent)

	f.mu.Lock()
	f.initiated = true
	f.mu.Unlock()
}

// Start connects the engine. Rejected with a notice before Init.
func (f *Flow) Start() {
	f.mu.Lock()
	initiated := f.initiated
	f.mu.Unlock()

	if !initiated {
		slog.Info("[Flow] Start before Init")
		f.emit(action.NewNotify(noticeNotInitiated))
		return
	}
	if err := f.ua.Start(); err != nil {
		slog.Warn("[Flow] Engine start failed", "error", err)
		f.emit(action.NewNotify("Could not connect to VoIP server"))
	}
}

// Stop disconnects the engine.
func (f *Flow) Stop() {
	if err := f.ua.Stop(); err != nil {
		slog.Warn("[Flow] Engine stop failed", "error", err)
	}
}

// SetFocusedChannel records the operator's selected line; answered calls
// are tagged with it for the accepted-call channel join.
func (f *Flow) SetFocusedChannel(id int) {
	f.mu.Lock()
	f.focused = id
	f.mu.Unlock()
}

// Dial places an outgoing call. User-actionable conflicts (not connected,
// active call exists) abort with a notice and mutate nothing.
func (f *Flow) Dial(number string) {
	f.mu.Lock()
	connected := f.connected
	hasActive := f.active != nil
	f.mu.Unlock()

	if !connected {
		slog.Info("[Flow] Dial rejected, not connected", "number", number)
		f.emit(action.NewNotify(noticeNotConnected))
		return
	}
	if hasActive {
		slog.Info("[Flow] Dial rejected, active call exists", "number", number)
		f.emit(action.NewNotify(noticeActiveExists))
		return
	}

	err := f.ua.Call(number, engine.CallOptions{
		Audio:               true,
		SessionTimerSeconds: 600,
	})
	if err != nil {
		slog.Warn("[Flow] Dial failed", "number", number, "error", err)
		f.emit(action.NewNotify("Call failed"))
	}
}

// Answer answers a pending incoming call on the focused channel. The
// session stays in the pending queue until the engine confirms it; only
// the confirmed event promotes it to the active slot.
func (f *Flow) Answer(sessionID string) {
	f.mu.Lock()
	if f.active != nil {
		f.mu.Unlock()
		slog.Info("[Flow] Answer rejected, active call exists", "session_id", sessionID)
		return
	}
	target := f.findPending(sessionID)
	if target != nil {
		f.answerTags[sessionID] = f.focused
	}
	f.mu.Unlock()

	f.tones.StopRing()

	if target == nil {
		slog.Debug("[Flow] Answer for unknown session", "session_id", sessionID)
		return
	}
	if err := target.Answer(engine.AnswerOptions{Audio: true}); err != nil {
		slog.Error("[Flow] Answer failed", "session_id", sessionID, "error", err)
		f.emit(action.NewNotify(noticeAnswerFailed))
	}
}

// HangUp terminates the session by id, wherever the engine holds it.
// Terminating an already-gone session is a logged no-op, never an error
// to the operator.
func (f *Flow) HangUp(sessionID string) {
	s, ok := f.ua.Session(sessionID)
	if !ok {
		slog.Debug("[Flow] HangUp for unknown session", "session_id", sessionID)
		return
	}
	if err := s.Terminate(); err != nil {
		slog.Info("[Flow] Call already terminated", "session_id", sessionID, "error", err)
	}
}

// Hold parks the active call. Honored only when sessionID names the
// active call.
func (f *Flow) Hold(sessionID string) {
	f.mu.Lock()
	target := f.active
	f.mu.Unlock()

	if target == nil || target.ID() != sessionID {
		return
	}
	if err := target.Hold(); err != nil {
		slog.Warn("[Flow] Hold failed", "session_id", sessionID, "error", err)
	}
}

// Unhold resumes a held call. Honored only while the active slot is
// empty; otherwise the operator is asked to end the active call first.
func (f *Flow) Unhold(sessionID string) {
	f.mu.Lock()
	if f.active != nil {
		f.mu.Unlock()
		slog.Info("[Flow] Unhold rejected, active call exists", "session_id", sessionID)
		f.emit(action.NewNotify(noticeUnholdBlocked))
		return
	}
	target := f.findHeld(sessionID)
	f.mu.Unlock()

	if target == nil {
		slog.Debug("[Flow] Unhold for unknown session", "session_id", sessionID)
		return
	}
	if err := target.Unhold(); err != nil {
		slog.Warn("[Flow] Unhold failed", "session_id", sessionID, "error", err)
	}
}

// SetMicMuted toggles the microphone on the active call. No-op without one.
func (f *Flow) SetMicMuted() {
	f.mu.Lock()
	target := f.active
	muted := f.micMuted
	f.mu.Unlock()

	if target == nil {
		return
	}

	if muted {
		if err := target.Unmute(); err != nil {
			slog.Warn("[Flow] Unmute failed", "error", err)
			return
		}
		f.mu.Lock()
		f.micMuted = false
		f.mu.Unlock()
		f.emit(action.Action{Type: action.Unmute, SessionID: target.ID(), Channel: -1})
		return
	}

	if err := target.Mute(); err != nil {
		slog.Warn("[Flow] Mute failed", "error", err)
		return
	}
	f.mu.Lock()
	f.micMuted = true
	f.mu.Unlock()
	f.emit(action.Action{Type: action.Mute, SessionID: target.ID(), Channel: -1})
}

// SendDTMF sends digits over the active call. Sent is false when no call
// is active.
func (f *Flow) SendDTMF(digits string) bool {
	f.mu.Lock()
	target := f.active
	f.mu.Unlock()

	if target == nil {
		return false
	}
	if err := target.SendDTMF(digits); err != nil {
		slog.Warn("[Flow] DTMF send failed", "digits", digits, "error", err)
	}
	return true
}

// --- State inspection ---

// Connected reports the engine connection state.
func (f *Flow) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// MicMuted reports the local microphone state.
func (f *Flow) MicMuted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.micMuted
}

// ActiveID returns the active call's session id, or empty.
func (f *Flow) ActiveID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return ""
	}
	return f.active.ID()
}

// PendingIDs returns the pending queue ids in arrival order.
func (f *Flow) PendingIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.pending))
	for i, s := range f.pending {
		ids[i] = s.ID()
	}
	return ids
}

// HeldIDs returns the hold queue ids.
func (f *Flow) HeldIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, len(f.held))
	for i, s := range f.held {
		ids[i] = s.ID()
	}
	return ids
}

// --- Engine callbacks ---

func (f *Flow) handleAgentEvent(ev engine.AgentEvent) {
	switch ev.Type {
	case engine.AgentConnected:
		f.mu.Lock()
		f.connected = true
		f.mu.Unlock()
	case engine.AgentDisconnected:
		f.mu.Lock()
		f.connected = false
		f.mu.Unlock()
	case engine.AgentRegistrationFailed:
		slog.Warn("[Flow] Registration failed", "cause", ev.Cause)
	}

	if f.onAgent != nil {
		f.onAgent(ev)
	}
}

func (f *Flow) handleNewSession(s engine.Session) {
	id := s.ID()

	f.mu.Lock()
	var acts []action.Action
	if s.Direction() == engine.DirectionIncoming {
		f.pending = append(f.pending, s)
		acts = append(acts, action.Action{
			Type:      action.IncomingCall,
			SessionID: id,
			Remote:    s.RemoteIdentity(),
			Direction: s.Direction(),
			Channel:   -1,
		})
		if f.active == nil {
			f.tones.StartRing()
		}
	} else {
		f.active = s
		acts = append(acts, action.Action{
			Type:      action.OutgoingCall,
			SessionID: id,
			Remote:    s.RemoteIdentity(),
			Direction: s.Direction(),
			Channel:   -1,
		})
	}
	f.mu.Unlock()

	slog.Info("[Flow] New session", "session_id", id, "direction", s.Direction())
	f.emit(acts...)

	s.OnEvent(func(ev engine.SessionEvent) {
		f.sessionEvent(id, ev)
	})
}

// sessionEvent translates one raw engine event into canonical actions
// and queue moves. Unhandled event types are ignored so unknown engine
// events can never crash the normalizer.
func (f *Flow) sessionEvent(id string, ev engine.SessionEvent) {
	switch ev.Type {
	case engine.SessionProgress:
		if ev.Originator != engine.OriginatorRemote {
			slog.Debug("[Flow] Progress from local originator ignored", "session_id", id)
			return
		}
		switch ev.StatusCode {
		case 180:
			f.tones.StartRingback()
		case 183:
			// Early media replaces the synthesized ringback.
			f.tones.StopRingback()
		}

	case engine.SessionHold:
		f.mu.Lock()
		if f.active != nil && f.active.ID() == id {
			f.held = append(f.held, f.active)
			f.active = nil
		}
		f.mu.Unlock()
		f.emit(action.Action{Type: action.Hold, SessionID: id, Channel: -1})

	case engine.SessionUnhold:
		f.mu.Lock()
		if f.active == nil {
			if s := f.findHeld(id); s != nil {
				f.active = s
				f.removeHeld(id)
			}
		} else {
			slog.Warn("[Flow] Unhold event while another call is active", "session_id", id, "active", f.active.ID())
		}
		f.mu.Unlock()
		f.emit(action.Action{Type: action.Unhold, SessionID: id, Channel: -1})

	case engine.SessionMuted:
		f.emit(action.Action{Type: action.Mute, SessionID: id, Channel: -1})

	case engine.SessionUnmuted:
		f.emit(action.Action{Type: action.Unmute, SessionID: id, Channel: -1})

	case engine.SessionConfirmed:
		f.tones.StopRingback()
		f.mu.Lock()
		if f.active == nil {
			f.active = f.findPending(id)
		}
		f.removePending(id)
		tag, ok := f.answerTags[id]
		if !ok {
			tag = -1
		}
		f.mu.Unlock()
		f.emit(action.NewCallAccepted(id, tag))

	case engine.SessionReinvite:
		act := action.Action{Type: action.Reinvite, SessionID: id, Channel: -1}
		if ev.Reinvite != nil {
			act.AssertedIdentity = ev.Reinvite.AssertedIdentity
		}
		f.emit(act)

	case engine.SessionEnded:
		f.mu.Lock()
		f.removePending(id)
		f.removeHeld(id)
		if f.active != nil && f.active.ID() == id {
			f.active = nil
		}
		delete(f.answerTags, id)
		pendingLeft := len(f.pending)
		f.mu.Unlock()
		if pendingLeft == 0 {
			f.tones.StopRing()
		}
		f.emit(action.Action{Type: action.CallEnded, SessionID: id, Channel: -1})

	case engine.SessionFailed:
		f.tones.StopRingback()
		f.mu.Lock()
		f.removePending(id)
		if f.active != nil && f.active.ID() == id {
			f.active = nil
		}
		delete(f.answerTags, id)
		pendingLeft := len(f.pending)
		f.mu.Unlock()
		if pendingLeft == 0 {
			f.tones.StopRing()
		}
		f.emit(action.Action{Type: action.CallEnded, SessionID: id, Channel: -1})

	default:
		// Forward compatibility: unknown engine events are not ours to
		// interpret.
	}
}

// --- Queue helpers (callers hold f.mu) ---

func (f *Flow) findPending(id string) engine.Session {
	for _, s := range f.pending {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

func (f *Flow) removePending(id string) {
	kept := f.pending[:0]
	for _, s := range f.pending {
		if s.ID() != id {
			kept = append(kept, s)
		}
	}
	f.pending = kept
}

func (f *Flow) findHeld(id string) engine.Session {
	for _, s := range f.held {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

func (f *Flow) removeHeld(id string) {
	kept := f.held[:0]
	for _, s := range f.held {
		if s.ID() != id {
			kept = append(kept, s)
		}
	}
	f.held = kept
}

func (f *Flow) emit(acts ...action.Action) {
	if f.onAction == nil {
		return
	}
	for _, a := range acts {
		f.onAction(a)
	}
}

type nopTones struct{}

func (nopTones) StartRing()     {}
func (nopTones) StopRing()      {}
func (nopTones) StartRingback() {}
func (nopTones) StopRingback()  {}
