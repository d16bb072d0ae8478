package channel

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sebas/lineboard/internal/console/action"
	"github.com/sebas/lineboard/internal/engine"
)

// Notifier announces an incoming call to the operator's environment.
// Failures must be swallowed by the implementation; the reducer never
// checks them.
type Notifier interface {
	IncomingCall(caller string)
}

// Reducer owns the fixed channel slots, the ringing list and the call
// history, and applies canonical actions to them. Exactly one channel is
// focused at a time; call-control commands default to it.
type Reducer struct {
	mu       sync.RWMutex
	channels [Count]Channel
	ringing  []RingingCall
	history  []HistoryEntry
	focused  int

	notifier Notifier
	onChange func()
	now      func() time.Time
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// WithNotifier sets the incoming-call notifier.
func WithNotifier(n Notifier) ReducerOption {
	return func(r *Reducer) { r.notifier = n }
}

// WithOnChange sets a callback invoked after every state change.
// Invoked without the reducer lock held.
func WithOnChange(fn func()) ReducerOption {
	return func(r *Reducer) { r.onChange = fn }
}

// WithClock overrides the time source for history entries.
func WithClock(now func() time.Time) ReducerOption {
	return func(r *Reducer) { r.now = now }
}

// NewReducer creates a reducer with all channels idle and channel 0 focused.
func NewReducer(opts ...ReducerOption) *Reducer {
	r := &Reducer{now: time.Now}
	for i := range r.channels {
		r.channels[i] = NewChannel(i)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Focused returns the focused channel id.
func (r *Reducer) Focused() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.focused
}

// SetFocused selects the operator's active line. Out-of-range ids are ignored.
func (r *Reducer) SetFocused(id int) {
	r.mu.Lock()
	if id >= 0 && id < Count {
		r.focused = id
	}
	r.mu.Unlock()
	r.changed()
}

// Channels returns a copy of the channel slots.
func (r *Reducer) Channels() [Count]Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channels
}

// Channel returns a copy of one channel slot.
func (r *Reducer) Channel(id int) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || id >= Count {
		return Channel{}, false
	}
	return r.channels[id], true
}

// Ringing returns a copy of the unanswered incoming list.
func (r *Reducer) Ringing() []RingingCall {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RingingCall, len(r.ringing))
	copy(out, r.ringing)
	return out
}

// History returns a copy of the call history, newest first.
func (r *Reducer) History() []HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]HistoryEntry, len(r.history))
	copy(out, r.history)
	return out
}

// Update mutates one channel slot under the reducer lock. Used by the
// transfer protocol, which owns the transfer flag transitions.
func (r *Reducer) Update(id int, fn func(*Channel)) {
	r.mu.Lock()
	if id >= 0 && id < Count {
		fn(&r.channels[id])
	}
	r.mu.Unlock()
	r.changed()
}

// UpdateBySession mutates the channel bound to the session id, if any.
func (r *Reducer) UpdateBySession(sessionID string, fn func(*Channel)) {
	r.mu.Lock()
	for i := range r.channels {
		if r.channels[i].SessionID == sessionID {
			fn(&r.channels[i])
		}
	}
	r.mu.Unlock()
	r.changed()
}

// Apply reduces one canonical action into channel state.
func (r *Reducer) Apply(a action.Action) {
	switch a.Type {
	case action.IncomingCall:
		r.applyIncoming(a)
	case action.OutgoingCall:
		r.applyOutgoing(a)
	case action.CallAccepted:
		r.applyAccepted(a)
	case action.CallEnded:
		r.applyEnded(a)
	case action.Hold:
		r.UpdateBySession(a.SessionID, func(c *Channel) { c.Hold = true })
	case action.Unhold:
		r.UpdateBySession(a.SessionID, func(c *Channel) { c.Hold = false })
	case action.Mute:
		r.UpdateBySession(a.SessionID, func(c *Channel) { c.Muted = true })
	case action.Unmute:
		r.UpdateBySession(a.SessionID, func(c *Channel) { c.Muted = false })
	case action.Reinvite:
		r.applyReinvite(a)
	case action.Notify:
		// Notices are routed by the console, not reduced into channels.
	default:
		slog.Debug("[Reducer] Ignoring action", "type", a.Type)
	}
}

func (r *Reducer) applyIncoming(a action.Action) {
	r.mu.Lock()
	r.ringing = append(r.ringing, RingingCall{
		SessionID:  a.SessionID,
		CallNumber: a.Remote.Label(),
		Direction:  a.Direction,
	})
	r.mu.Unlock()
	r.changed()

	if r.notifier != nil {
		r.notifier.IncomingCall(a.Remote.Label())
	}
}

func (r *Reducer) applyOutgoing(a action.Action) {
	r.mu.Lock()
	c := &r.channels[r.focused]
	c.InCall = true
	c.InAnswer = false
	c.Hold = false
	c.Direction = a.Direction
	c.SessionID = a.SessionID
	c.CallNumber = a.Remote.User
	c.CallInfo = InfoRinging
	r.mu.Unlock()
	r.changed()
}

// applyAccepted joins the confirmed session onto a channel slot. The
// primary key is the ringing-list record plus the channel tag stored at
// answer time; when no ringing record exists (the outgoing-call case,
// where the channel was bound at dial time) it falls back to the channel
// already holding the session id.
func (r *Reducer) applyAccepted(a action.Action) {
	r.mu.Lock()

	target := a.Channel
	var number string
	var direction = a.Direction

	if rc, ok := r.findRinging(a.SessionID); ok {
		number = rc.CallNumber
		direction = rc.Direction
	} else if ch, ok := r.findBySession(a.SessionID); ok {
		target = ch.ID
		number = ch.CallNumber
		direction = ch.Direction
	} else {
		r.mu.Unlock()
		slog.Warn("[Reducer] Accepted session matches no ringing record or channel", "session_id", a.SessionID)
		return
	}

	r.removeRinging(a.SessionID)

	if target < 0 || target >= Count {
		r.mu.Unlock()
		slog.Warn("[Reducer] Accepted session has no usable channel", "session_id", a.SessionID, "channel", target)
		return
	}

	c := &r.channels[target]
	c.SessionID = a.SessionID
	c.CallNumber = number
	c.Direction = direction
	c.InCall = true
	c.InAnswer = true
	c.Hold = false
	c.CallInfo = InfoAnswered

	r.mu.Unlock()
	r.changed()
}

// applyEnded resets the bound channel to its idle template and appends
// exactly one history entry for the ended call. Classification: a still
// ringing incoming call is missed; otherwise a channel that reached
// InAnswer is answered, else missed.
func (r *Reducer) applyEnded(a action.Action) {
	r.mu.Lock()

	var entry *HistoryEntry
	if rc, ok := r.findRinging(a.SessionID); ok && rc.Direction == engine.DirectionIncoming {
		entry = &HistoryEntry{
			SessionID: rc.SessionID,
			Direction: rc.Direction,
			Number:    rc.CallNumber,
			Time:      r.now(),
			Status:    DispositionMissed,
		}
	} else if ch, ok := r.findBySession(a.SessionID); ok {
		status := DispositionMissed
		if ch.InAnswer {
			status = DispositionAnswered
		}
		entry = &HistoryEntry{
			SessionID: ch.SessionID,
			Direction: ch.Direction,
			Number:    ch.CallNumber,
			Time:      r.now(),
			Status:    status,
		}
	}

	r.removeRinging(a.SessionID)
	for i := range r.channels {
		if r.channels[i].SessionID == a.SessionID {
			number := r.channels[i].CallNumber
			r.channels[i].ResetToIdle()
			r.channels[i].CallNumber = number
		}
	}
	if entry != nil {
		r.history = append([]HistoryEntry{*entry}, r.history...)
	}

	r.mu.Unlock()
	r.changed()
}

// applyReinvite is the attended-transfer peer reveal: the remote PBX
// re-INVITEs with the transferred-to party asserted in the signaling.
func (r *Reducer) applyReinvite(a action.Action) {
	peer := assertedDisplayName(a.AssertedIdentity)
	r.UpdateBySession(a.SessionID, func(c *Channel) {
		c.AllowAttendedTransfer = true
		c.AllowTransfer = true
		c.InAnswerTransfer = true
		c.InTransfer = true
		c.AttendedTransferOnline = peer
	})
}

func (r *Reducer) findRinging(sessionID string) (RingingCall, bool) {
	for _, rc := range r.ringing {
		if rc.SessionID == sessionID {
			return rc, true
		}
	}
	return RingingCall{}, false
}

func (r *Reducer) removeRinging(sessionID string) {
	kept := r.ringing[:0]
	for _, rc := range r.ringing {
		if rc.SessionID != sessionID {
			kept = append(kept, rc)
		}
	}
	r.ringing = kept
}

func (r *Reducer) findBySession(sessionID string) (Channel, bool) {
	if sessionID == "" {
		return Channel{}, false
	}
	for i := range r.channels {
		if r.channels[i].SessionID == sessionID {
			return r.channels[i], true
		}
	}
	return Channel{}, false
}

func (r *Reducer) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}
