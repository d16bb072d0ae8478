package console

import (
	"sync"
	"testing"

	"github.com/sebas/lineboard/internal/engine"
)

// stubSession is a minimal scriptable engine.Session.
type stubSession struct {
	mu       sync.Mutex
	id       string
	dir      engine.Direction
	remote   engine.RemoteIdentity
	handlers []func(engine.SessionEvent)
	answered bool
	ended    bool
	dtmf     []string
}

func (s *stubSession) ID() string                            { return s.id }
func (s *stubSession) Direction() engine.Direction           { return s.dir }
func (s *stubSession) RemoteIdentity() engine.RemoteIdentity { return s.remote }

func (s *stubSession) Answer(engine.AnswerOptions) error {
	s.mu.Lock()
	s.answered = true
	s.mu.Unlock()
	return nil
}

func (s *stubSession) Hold() error   { return nil }
func (s *stubSession) Unhold() error { return nil }
func (s *stubSession) Mute() error   { return nil }
func (s *stubSession) Unmute() error { return nil }

func (s *stubSession) Terminate() error {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
	return nil
}

func (s *stubSession) SendDTMF(digits string) error {
	s.mu.Lock()
	s.dtmf = append(s.dtmf, digits)
	s.mu.Unlock()
	return nil
}

func (s *stubSession) OnEvent(fn func(engine.SessionEvent)) func() {
	s.mu.Lock()
	s.handlers = append(s.handlers, fn)
	s.mu.Unlock()
	return func() {}
}

func (s *stubSession) fire(ev engine.SessionEvent) {
	s.mu.Lock()
	fns := make([]func(engine.SessionEvent), len(s.handlers))
	copy(fns, s.handlers)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// stubAgent is a minimal scriptable engine.UserAgent.
type stubAgent struct {
	mu       sync.Mutex
	sessions map[string]*stubSession
	onNew    []func(engine.Session)
	onEvent  []func(engine.AgentEvent)
	calls    []string
}

func newStubAgent() *stubAgent {
	return &stubAgent{sessions: make(map[string]*stubSession)}
}

func (a *stubAgent) Start() error {
	for _, fn := range a.onEvent {
		fn(engine.AgentEvent{Type: engine.AgentConnected})
	}
	return nil
}

func (a *stubAgent) Stop() error {
	for _, fn := range a.onEvent {
		fn(engine.AgentEvent{Type: engine.AgentDisconnected})
	}
	return nil
}

func (a *stubAgent) Call(number string, _ engine.CallOptions) error {
	a.mu.Lock()
	a.calls = append(a.calls, number)
	a.mu.Unlock()
	a.deliver(&stubSession{
		id:     "out-" + number,
		dir:    engine.DirectionOutgoing,
		remote: engine.RemoteIdentity{User: number},
	})
	return nil
}

func (a *stubAgent) Session(id string) (engine.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[id]
	return s, ok
}

func (a *stubAgent) OnNewSession(fn func(engine.Session)) {
	a.onNew = append(a.onNew, fn)
}

func (a *stubAgent) OnEvent(fn func(engine.AgentEvent)) {
	a.onEvent = append(a.onEvent, fn)
}

func (a *stubAgent) deliver(s *stubSession) {
	a.mu.Lock()
	a.sessions[s.id] = s
	fns := make([]func(engine.Session), len(a.onNew))
	copy(fns, a.onNew)
	a.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func newTestConsole(t *testing.T) (*Console, *stubAgent) {
	t.Helper()
	agent := newStubAgent()
	c := New(agent, Config{
		Engine: engine.Config{
			Domain:            "example.com",
			WebSocketURL:      "wss://example.com:7443",
			AuthorizationUser: "100",
		},
	})
	c.Start()
	return c, agent
}

func TestDialGateRejectsNonDigits(t *testing.T) {
	c, agent := newTestConsole(t)

	c.Dial("20x2")
	c.Dial("")
	c.Dial("  ")

	if len(agent.calls) != 0 {
		t.Fatalf("calls = %v, want none for non-digit input", agent.calls)
	}

	c.Dial("2002")
	if len(agent.calls) != 1 || agent.calls[0] != "2002" {
		t.Fatalf("calls = %v, want [2002]", agent.calls)
	}
}

func TestStateReflectsCallLifecycle(t *testing.T) {
	c, agent := newTestConsole(t)

	snap := c.State()
	if !snap.Connected {
		t.Fatal("Connected = false after Start")
	}

	in := &stubSession{id: "in-1", dir: engine.DirectionIncoming, remote: engine.RemoteIdentity{DisplayName: "Alice", User: "2001"}}
	agent.deliver(in)

	snap = c.State()
	if len(snap.Ringing) != 1 || snap.Ringing[0].CallNumber != "Alice" {
		t.Fatalf("Ringing = %v, want Alice", snap.Ringing)
	}

	c.Focus(1)
	c.Answer("in-1")
	in.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	snap = c.State()
	if len(snap.Ringing) != 0 {
		t.Fatalf("Ringing = %v after answer, want empty", snap.Ringing)
	}
	ch := snap.Channels[1]
	if ch.SessionID != "in-1" || !ch.InAnswer {
		t.Fatalf("channel 1 = %+v, want in-1 answered", ch)
	}

	in.fire(engine.SessionEvent{Type: engine.SessionEnded, Originator: engine.OriginatorRemote})

	snap = c.State()
	if snap.Channels[1].InCall {
		t.Error("channel 1 still in call after end")
	}
	if len(snap.History) != 1 {
		t.Fatalf("History = %v, want one entry", snap.History)
	}
	if got := snap.History[0].Status.String(); got != "answered" {
		t.Errorf("history status = %q, want answered", got)
	}
}

func TestMissedCallRecorded(t *testing.T) {
	c, agent := newTestConsole(t)

	in := &stubSession{id: "in-1", dir: engine.DirectionIncoming, remote: engine.RemoteIdentity{User: "2001"}}
	agent.deliver(in)
	in.fire(engine.SessionEvent{Type: engine.SessionFailed, Originator: engine.OriginatorRemote, Cause: "Canceled"})

	snap := c.State()
	if len(snap.History) != 1 {
		t.Fatalf("History = %v, want one entry", snap.History)
	}
	if got := snap.History[0].Status.String(); got != "missed" {
		t.Errorf("history status = %q, want missed", got)
	}
}

func TestBlindTransferSendsDigits(t *testing.T) {
	c, agent := newTestConsole(t)

	c.Dial("2001")
	out := agent.sessions["out-2001"]
	out.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	if err := c.BlindTransfer("2002", ""); err != nil {
		t.Fatalf("BlindTransfer() err = %v", err)
	}
	if len(out.dtmf) != 1 || out.dtmf[0] != "##2002" {
		t.Fatalf("dtmf = %v, want [##2002]", out.dtmf)
	}

	snap := c.State()
	if !snap.Channels[snap.Focused].InTransfer {
		t.Error("focused channel not marked transferring")
	}
}

func TestNoticesReachSubscribers(t *testing.T) {
	c, _ := newTestConsole(t)
	defer c.Close()

	ch, unsub := c.Notices().Subscribe()
	defer unsub()

	// Dialing with an active call produces an operator notice.
	c.Dial("2001")
	c.Dial("2002")

	select {
	case got := <-ch:
		if got != "Active call already exists" {
			t.Errorf("notice = %q, want active-call conflict", got)
		}
	default:
		t.Fatal("no notice delivered")
	}
}
