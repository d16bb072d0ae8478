// Package console wires the session event normalizer, the channel state
// reducer and the transfer protocols into one operator console instance.
package console

import (
	"regexp"
	"sync"

	"github.com/sebas/lineboard/internal/console/action"
	"github.com/sebas/lineboard/internal/console/channel"
	"github.com/sebas/lineboard/internal/console/flow"
	"github.com/sebas/lineboard/internal/console/notify"
	"github.com/sebas/lineboard/internal/console/transfer"
	"github.com/sebas/lineboard/internal/engine"
)

var dialable = regexp.MustCompile(`^[0-9]+$`)

// Config holds console construction options.
type Config struct {
	// Engine is the signaling engine configuration.
	Engine engine.Config
	// Tones drives the ring/ringback cues. Nil disables cues.
	Tones flow.ToneController
	// Notifier announces incoming calls to the operator's desktop.
	// Nil disables notifications.
	Notifier channel.Notifier
	// NoticeBuffer is the per-subscriber notice buffer size.
	NoticeBuffer int
	// OnChange is invoked after every observable state change.
	OnChange func()
}

// Console is one independently constructed operator console. There is no
// package-level instance: tests and multi-tenant processes create as many
// as they need.
type Console struct {
	flow      *flow.Flow
	reducer   *channel.Reducer
	transfers *transfer.Coordinator
	notices   *notify.Notices

	mu     sync.RWMutex
	status engine.AgentEventType

	onChange func()
}

// New constructs and initializes a console over the given engine.
func New(ua engine.UserAgent, cfg Config) *Console {
	c := &Console{
		notices:  notify.NewNotices(cfg.NoticeBuffer),
		status:   engine.AgentDisconnected,
		onChange: cfg.OnChange,
	}

	reducerOpts := []channel.ReducerOption{channel.WithOnChange(c.changed)}
	if cfg.Notifier != nil {
		reducerOpts = append(reducerOpts, channel.WithNotifier(cfg.Notifier))
	}
	c.reducer = channel.NewReducer(reducerOpts...)

	flowOpts := []flow.Option{
		flow.WithOnAction(c.dispatch),
		flow.WithOnAgentEvent(c.agentEvent),
	}
	if cfg.Tones != nil {
		flowOpts = append(flowOpts, flow.WithTones(cfg.Tones))
	}
	c.flow = flow.New(ua, cfg.Engine, flowOpts...)

	c.transfers = transfer.NewCoordinator(c.flow, c.reducer)

	c.flow.Init()
	return c
}

// dispatch routes canonical actions: notices to the publisher, the rest
// into the reducer.
func (c *Console) dispatch(a action.Action) {
	if a.Type == action.Notify {
		c.notices.Publish(a.Message)
		return
	}
	c.reducer.Apply(a)
}

func (c *Console) agentEvent(ev engine.AgentEvent) {
	c.mu.Lock()
	c.status = ev.Type
	c.mu.Unlock()
	c.changed()
}

func (c *Console) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// Start connects the console to the VoIP server.
func (c *Console) Start() { c.flow.Start() }

// Stop disconnects the console.
func (c *Console) Stop() { c.flow.Stop() }

// Close shuts down the notice publisher.
func (c *Console) Close() { c.notices.Close() }

// Notices exposes the operator notice subscription surface.
func (c *Console) Notices() *notify.Notices { return c.notices }

// Focus selects the operator's active line.
func (c *Console) Focus(id int) {
	c.reducer.SetFocused(id)
	c.flow.SetFocusedChannel(id)
}

// Dial places an outgoing call if the input is a dialable number.
func (c *Console) Dial(number string) {
	if !dialable.MatchString(number) {
		return
	}
	c.flow.Dial(number)
}

// Answer answers a ringing call onto the focused channel.
func (c *Console) Answer(sessionID string) { c.flow.Answer(sessionID) }

// Reject declines a ringing call. Signaling-wise this is a hangup.
func (c *Console) Reject(sessionID string) { c.flow.HangUp(sessionID) }

// HangUp terminates the focused channel's call.
func (c *Console) HangUp() {
	if ch, ok := c.reducer.Channel(c.reducer.Focused()); ok && ch.SessionID != "" {
		c.flow.HangUp(ch.SessionID)
	}
}

// HangUpSession terminates a call by session id.
func (c *Console) HangUpSession(sessionID string) { c.flow.HangUp(sessionID) }

// Hold parks the session if it is the active call.
func (c *Console) Hold(sessionID string) { c.flow.Hold(sessionID) }

// Unhold resumes a held session while no call is active.
func (c *Console) Unhold(sessionID string) { c.flow.Unhold(sessionID) }

// ToggleHold holds or resumes based on the channel's current hold flag.
func (c *Console) ToggleHold(sessionID string, held bool) {
	if held {
		c.flow.Unhold(sessionID)
		return
	}
	c.flow.Hold(sessionID)
}

// ToggleMute flips the microphone on the active call.
func (c *Console) ToggleMute() { c.flow.SetMicMuted() }

// BlindTransfer hands the active call to the resolved target number.
func (c *Console) BlindTransfer(typed, picked string) error {
	return c.transfers.Execute(transfer.CommandBlind, transfer.ResolveTarget(typed, picked))
}

// AttendedTransfer runs one attended-transfer command. Number is used by
// the initiating command only.
func (c *Console) AttendedTransfer(cmd transfer.Command, typed, picked string) error {
	var target string
	if cmd.TakesNumber() {
		target = transfer.ResolveTarget(typed, picked)
	}
	return c.transfers.Execute(cmd, target)
}

// Snapshot is the read-only state exposed to the rendering layer.
type Snapshot struct {
	Channels  [channel.Count]channel.Channel `json:"channels"`
	Ringing   []channel.RingingCall          `json:"ringing"`
	History   []channel.HistoryEntry         `json:"history"`
	Focused   int                            `json:"focused"`
	Status    string                         `json:"status"`
	Connected bool                           `json:"connected"`
	MicMuted  bool                           `json:"mic_muted"`
}

// State returns a point-in-time copy of everything the rendering layer
// shows.
func (c *Console) State() Snapshot {
	c.mu.RLock()
	status := c.status
	c.mu.RUnlock()

	return Snapshot{
		Channels:  c.reducer.Channels(),
		Ringing:   c.reducer.Ringing(),
		History:   c.reducer.History(),
		Focused:   c.reducer.Focused(),
		Status:    status.String(),
		Connected: c.flow.Connected(),
		MicMuted:  c.flow.MicMuted(),
	}
}
