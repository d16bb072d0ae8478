package flow

import (
	"sync"
	"testing"

	"github.com/sebas/lineboard/internal/console/action"
	"github.com/sebas/lineboard/internal/engine"
)

// fakeSession is a scriptable engine.Session.
type fakeSession struct {
	mu         sync.Mutex
	id         string
	dir        engine.Direction
	remote     engine.RemoteIdentity
	handlers   []func(engine.SessionEvent)
	answered   bool
	terminated bool
	held       bool
	muted      bool
	dtmf       []string
	answerErr  error
}

func newFakeSession(id string, dir engine.Direction) *fakeSession {
	return &fakeSession{id: id, dir: dir, remote: engine.RemoteIdentity{User: id}}
}

func (s *fakeSession) ID() string                            { return s.id }
func (s *fakeSession) Direction() engine.Direction           { return s.dir }
func (s *fakeSession) RemoteIdentity() engine.RemoteIdentity { return s.remote }

func (s *fakeSession) Answer(engine.AnswerOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answerErr != nil {
		return s.answerErr
	}
	s.answered = true
	return nil
}

func (s *fakeSession) Hold() error {
	s.mu.Lock()
	s.held = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Unhold() error {
	s.mu.Lock()
	s.held = false
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Mute() error {
	s.mu.Lock()
	s.muted = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Unmute() error {
	s.mu.Lock()
	s.muted = false
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Terminate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminated {
		return engine.ErrSessionTerminated
	}
	s.terminated = true
	return nil
}

func (s *fakeSession) SendDTMF(digits string) error {
	s.mu.Lock()
	s.dtmf = append(s.dtmf, digits)
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) OnEvent(fn func(engine.SessionEvent)) func() {
	s.mu.Lock()
	s.handlers = append(s.handlers, fn)
	s.mu.Unlock()
	return func() {}
}

// fire reports one event to the session's subscribers.
func (s *fakeSession) fire(ev engine.SessionEvent) {
	s.mu.Lock()
	fns := make([]func(engine.SessionEvent), len(s.handlers))
	copy(fns, s.handlers)
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// fakeAgent is a scriptable engine.UserAgent.
type fakeAgent struct {
	mu       sync.Mutex
	sessions map[string]*fakeSession
	onNew    []func(engine.Session)
	onEvent  []func(engine.AgentEvent)
	calls    []string
	startErr error
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{sessions: make(map[string]*fakeSession)}
}

func (a *fakeAgent) Start() error {
	if a.startErr != nil {
		return a.startErr
	}
	a.fireAgent(engine.AgentEvent{Type: engine.AgentConnected})
	return nil
}

func (a *fakeAgent) Stop() error {
	a.fireAgent(engine.AgentEvent{Type: engine.AgentDisconnected})
	return nil
}

func (a *fakeAgent) Call(number string, opts engine.CallOptions) error {
	a.mu.Lock()
	a.calls = append(a.calls, number)
	a.mu.Unlock()
	s := newFakeSession("out-"+number, engine.DirectionOutgoing)
	a.deliver(s)
	return nil
}

func (a *fakeAgent) Session(id string) (engine.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[id]
	return s, ok
}

func (a *fakeAgent) OnNewSession(fn func(engine.Session)) {
	a.mu.Lock()
	a.onNew = append(a.onNew, fn)
	a.mu.Unlock()
}

func (a *fakeAgent) OnEvent(fn func(engine.AgentEvent)) {
	a.mu.Lock()
	a.onEvent = append(a.onEvent, fn)
	a.mu.Unlock()
}

// deliver registers the session and announces it like the engine would.
func (a *fakeAgent) deliver(s *fakeSession) {
	a.mu.Lock()
	a.sessions[s.id] = s
	fns := make([]func(engine.Session), len(a.onNew))
	copy(fns, a.onNew)
	a.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (a *fakeAgent) fireAgent(ev engine.AgentEvent) {
	a.mu.Lock()
	fns := make([]func(engine.AgentEvent), len(a.onEvent))
	copy(fns, a.onEvent)
	a.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// toneRecorder counts cue transitions.
type toneRecorder struct {
	mu            sync.Mutex
	ringStarts    int
	ringStops     int
	ringbackStart int
	ringbackStop  int
}

func (t *toneRecorder) StartRing() {
	t.mu.Lock()
	t.ringStarts++
	t.mu.Unlock()
}

func (t *toneRecorder) StopRing() {
	t.mu.Lock()
	t.ringStops++
	t.mu.Unlock()
}

func (t *toneRecorder) StartRingback() {
	t.mu.Lock()
	t.ringbackStart++
	t.mu.Unlock()
}

func (t *toneRecorder) StopRingback() {
	t.mu.Lock()
	t.ringbackStop++
	t.mu.Unlock()
}

// recorder captures emitted actions.
type recorder struct {
	mu      sync.Mutex
	actions []action.Action
}

func (r *recorder) record(a action.Action) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
}

func (r *recorder) ofType(t action.Type) []action.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []action.Action
	for _, a := range r.actions {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func (r *recorder) notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, a := range r.actions {
		if a.Type == action.Notify {
			out = append(out, a.Message)
		}
	}
	return out
}

func newTestFlow(t *testing.T) (*Flow, *fakeAgent, *recorder, *toneRecorder) {
	t.Helper()
	agent := newFakeAgent()
	rec := &recorder{}
	tones := &toneRecorder{}
	f := New(agent, engine.Config{Domain: "example.com", WebSocketURL: "wss://example.com:7443", AuthorizationUser: "100"},
		WithOnAction(rec.record),
		WithTones(tones),
	)
	f.Init()
	f.Start()
	return f, agent, rec, tones
}

func TestDialRejectedWhenNotConnected(t *testing.T) {
	agent := newFakeAgent()
	rec := &recorder{}
	f := New(agent, engine.Config{}, WithOnAction(rec.record))
	f.Init()

	f.Dial("2001")

	if len(agent.calls) != 0 {
		t.Fatalf("Call placed while disconnected: %v", agent.calls)
	}
	notices := rec.notices()
	if len(notices) != 1 || notices[0] != noticeNotConnected {
		t.Errorf("notices = %v, want [%q]", notices, noticeNotConnected)
	}
}

func TestStartBeforeInitIsRejected(t *testing.T) {
	agent := newFakeAgent()
	rec := &recorder{}
	f := New(agent, engine.Config{}, WithOnAction(rec.record))

	f.Start()

	notices := rec.notices()
	if len(notices) != 1 || notices[0] != noticeNotInitiated {
		t.Errorf("notices = %v, want [%q]", notices, noticeNotInitiated)
	}
	if f.Connected() {
		t.Error("Connected() = true, want false")
	}
}

func TestDialRejectedWithActiveCall(t *testing.T) {
	f, agent, rec, _ := newTestFlow(t)

	f.Dial("2001")
	out := agent.sessions["out-2001"]
	out.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	f.Dial("2002")

	if got, want := len(agent.calls), 1; got != want {
		t.Fatalf("calls = %d, want %d", got, want)
	}
	notices := rec.notices()
	if len(notices) != 1 || notices[0] != noticeActiveExists {
		t.Errorf("notices = %v, want [%q]", notices, noticeActiveExists)
	}
}

func TestIncomingCallQueuesAndRings(t *testing.T) {
	f, agent, rec, tones := newTestFlow(t)

	agent.deliver(newFakeSession("in-1", engine.DirectionIncoming))

	if got := f.PendingIDs(); len(got) != 1 || got[0] != "in-1" {
		t.Fatalf("PendingIDs() = %v, want [in-1]", got)
	}
	if got := rec.ofType(action.IncomingCall); len(got) != 1 {
		t.Fatalf("IncomingCall actions = %d, want 1", len(got))
	}
	if tones.ringStarts != 1 {
		t.Errorf("ring starts = %d, want 1", tones.ringStarts)
	}

	// A second caller queues without restarting the ring.
	agent.deliver(newFakeSession("in-2", engine.DirectionIncoming))
	if got := f.PendingIDs(); len(got) != 2 {
		t.Fatalf("PendingIDs() = %v, want two entries", got)
	}
	if tones.ringStarts != 1 {
		t.Errorf("ring starts = %d, want 1 after second caller", tones.ringStarts)
	}
}

func TestAnswerPromotesOnConfirmedOnly(t *testing.T) {
	f, agent, rec, tones := newTestFlow(t)

	in := newFakeSession("in-1", engine.DirectionIncoming)
	agent.deliver(in)

	f.SetFocusedChannel(2)
	f.Answer("in-1")

	if !in.answered {
		t.Fatal("session not answered")
	}
	if tones.ringStops == 0 {
		t.Error("ring not stopped on answer")
	}
	// Still pending until the engine confirms.
	if got := f.ActiveID(); got != "" {
		t.Fatalf("ActiveID() = %q before confirmed, want empty", got)
	}

	in.fire(engine.SessionEvent{Type: engine.SessionAccepted, Originator: engine.OriginatorLocal})
	in.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	if got := f.ActiveID(); got != "in-1" {
		t.Fatalf("ActiveID() = %q, want in-1", got)
	}
	if got := f.PendingIDs(); len(got) != 0 {
		t.Fatalf("PendingIDs() = %v, want empty", got)
	}

	accepted := rec.ofType(action.CallAccepted)
	if len(accepted) != 1 {
		t.Fatalf("CallAccepted actions = %d, want 1", len(accepted))
	}
	if accepted[0].Channel != 2 {
		t.Errorf("CallAccepted channel = %d, want 2", accepted[0].Channel)
	}
}

func TestAnswerRejectedWithActiveCall(t *testing.T) {
	f, agent, _, _ := newTestFlow(t)

	first := newFakeSession("in-1", engine.DirectionIncoming)
	agent.deliver(first)
	f.Answer("in-1")
	first.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	second := newFakeSession("in-2", engine.DirectionIncoming)
	agent.deliver(second)
	f.Answer("in-2")

	if second.answered {
		t.Error("second call answered while another is active")
	}
	if got := f.ActiveID(); got != "in-1" {
		t.Errorf("ActiveID() = %q, want in-1", got)
	}
}

func TestRingbackCues(t *testing.T) {
	f, agent, _, tones := newTestFlow(t)

	f.Dial("2001")
	out := agent.sessions["out-2001"]

	out.fire(engine.SessionEvent{Type: engine.SessionProgress, Originator: engine.OriginatorRemote, StatusCode: 180})
	if tones.ringbackStart != 1 {
		t.Fatalf("ringback starts = %d, want 1", tones.ringbackStart)
	}

	// Early media replaces the synthesized tone.
	out.fire(engine.SessionEvent{Type: engine.SessionProgress, Originator: engine.OriginatorRemote, StatusCode: 183})
	if tones.ringbackStop != 1 {
		t.Fatalf("ringback stops = %d, want 1", tones.ringbackStop)
	}

	// Local progress is not a cue trigger.
	out.fire(engine.SessionEvent{Type: engine.SessionProgress, Originator: engine.OriginatorLocal, StatusCode: 180})
	if tones.ringbackStart != 1 {
		t.Errorf("ringback starts = %d after local progress, want 1", tones.ringbackStart)
	}
}

func TestHoldMovesActiveToHeldQueue(t *testing.T) {
	f, agent, _, _ := newTestFlow(t)

	f.Dial("2001")
	out := agent.sessions["out-2001"]
	out.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	f.Hold("out-2001")
	out.fire(engine.SessionEvent{Type: engine.SessionHold, Originator: engine.OriginatorLocal})

	if got := f.ActiveID(); got != "" {
		t.Fatalf("ActiveID() = %q after hold, want empty", got)
	}
	if got := f.HeldIDs(); len(got) != 1 || got[0] != "out-2001" {
		t.Fatalf("HeldIDs() = %v, want [out-2001]", got)
	}

	f.Unhold("out-2001")
	out.fire(engine.SessionEvent{Type: engine.SessionUnhold, Originator: engine.OriginatorLocal})

	if got := f.ActiveID(); got != "out-2001" {
		t.Fatalf("ActiveID() = %q after unhold, want out-2001", got)
	}
	if got := f.HeldIDs(); len(got) != 0 {
		t.Fatalf("HeldIDs() = %v after unhold, want empty", got)
	}
}

func TestUnholdBlockedWhileActive(t *testing.T) {
	f, agent, rec, _ := newTestFlow(t)

	f.Dial("2001")
	first := agent.sessions["out-2001"]
	first.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})
	f.Hold("out-2001")
	first.fire(engine.SessionEvent{Type: engine.SessionHold, Originator: engine.OriginatorLocal})

	f.Dial("2002")
	second := agent.sessions["out-2002"]
	second.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	f.Unhold("out-2001")

	if first.held != true {
		t.Error("held call resumed while another is active")
	}
	notices := rec.notices()
	if len(notices) != 1 || notices[0] != noticeUnholdBlocked {
		t.Errorf("notices = %v, want [%q]", notices, noticeUnholdBlocked)
	}
}

func TestEndedPurgesEveryQueue(t *testing.T) {
	f, agent, rec, tones := newTestFlow(t)

	in := newFakeSession("in-1", engine.DirectionIncoming)
	agent.deliver(in)

	in.fire(engine.SessionEvent{Type: engine.SessionFailed, Originator: engine.OriginatorRemote, Cause: "Canceled"})

	if got := f.PendingIDs(); len(got) != 0 {
		t.Fatalf("PendingIDs() = %v, want empty", got)
	}
	if tones.ringStops == 0 {
		t.Error("ring not stopped when pending queue emptied")
	}
	if got := rec.ofType(action.CallEnded); len(got) != 1 {
		t.Fatalf("CallEnded actions = %d, want 1", len(got))
	}
}

func TestRingContinuesWhileCallersPending(t *testing.T) {
	f, agent, _, tones := newTestFlow(t)

	first := newFakeSession("in-1", engine.DirectionIncoming)
	second := newFakeSession("in-2", engine.DirectionIncoming)
	agent.deliver(first)
	agent.deliver(second)

	first.fire(engine.SessionEvent{Type: engine.SessionEnded, Originator: engine.OriginatorRemote})

	if tones.ringStops != 0 {
		t.Errorf("ring stops = %d with caller still pending, want 0", tones.ringStops)
	}

	second.fire(engine.SessionEvent{Type: engine.SessionEnded, Originator: engine.OriginatorRemote})
	if tones.ringStops != 1 {
		t.Errorf("ring stops = %d after queue emptied, want 1", tones.ringStops)
	}
	_ = f
}

func TestHangUpUnknownSessionIsNoOp(t *testing.T) {
	f, _, rec, _ := newTestFlow(t)

	f.HangUp("nope")

	if got := len(rec.notices()); got != 0 {
		t.Errorf("notices = %d, want 0", got)
	}
}

func TestHangUpTerminatedSessionIsIdempotent(t *testing.T) {
	f, agent, _, _ := newTestFlow(t)

	f.Dial("2001")
	out := agent.sessions["out-2001"]
	out.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	f.HangUp("out-2001")
	// Second hangup hits engine.ErrSessionTerminated; must stay silent.
	f.HangUp("out-2001")

	if !out.terminated {
		t.Fatal("session not terminated")
	}
}

func TestReinviteForwardsAssertedIdentity(t *testing.T) {
	f, agent, rec, _ := newTestFlow(t)

	f.Dial("2001")
	out := agent.sessions["out-2001"]
	out.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	out.fire(engine.SessionEvent{
		Type:       engine.SessionReinvite,
		Originator: engine.OriginatorRemote,
		Reinvite:   &engine.ReinvitePayload{AssertedIdentity: `"Jane Doe" <sip:2002@example.com>`},
	})

	reinvites := rec.ofType(action.Reinvite)
	if len(reinvites) != 1 {
		t.Fatalf("Reinvite actions = %d, want 1", len(reinvites))
	}
	if got, want := reinvites[0].AssertedIdentity, `"Jane Doe" <sip:2002@example.com>`; got != want {
		t.Errorf("AssertedIdentity = %q, want %q", got, want)
	}
}

func TestMuteToggle(t *testing.T) {
	f, agent, rec, _ := newTestFlow(t)

	f.Dial("2001")
	out := agent.sessions["out-2001"]
	out.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	f.SetMicMuted()
	if !f.MicMuted() {
		t.Fatal("MicMuted() = false after toggle, want true")
	}
	if !out.muted {
		t.Fatal("session not muted")
	}

	f.SetMicMuted()
	if f.MicMuted() {
		t.Fatal("MicMuted() = true after second toggle, want false")
	}

	if got := len(rec.ofType(action.Mute)); got != 1 {
		t.Errorf("Mute actions = %d, want 1", got)
	}
	if got := len(rec.ofType(action.Unmute)); got != 1 {
		t.Errorf("Unmute actions = %d, want 1", got)
	}
}

func TestSendDTMFRequiresActiveCall(t *testing.T) {
	f, agent, _, _ := newTestFlow(t)

	if f.SendDTMF("##2002") {
		t.Fatal("SendDTMF reported sent without an active call")
	}

	f.Dial("2001")
	out := agent.sessions["out-2001"]
	out.fire(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})

	if !f.SendDTMF("##2002") {
		t.Fatal("SendDTMF not sent with an active call")
	}
	if len(out.dtmf) != 1 || out.dtmf[0] != "##2002" {
		t.Errorf("dtmf = %v, want [##2002]", out.dtmf)
	}
}

func TestUnknownEventsIgnored(t *testing.T) {
	f, agent, rec, _ := newTestFlow(t)

	in := newFakeSession("in-1", engine.DirectionIncoming)
	agent.deliver(in)
	before := len(rec.ofType(action.CallEnded))

	in.fire(engine.SessionEvent{Type: engine.SessionICECandidate})
	in.fire(engine.SessionEvent{Type: engine.SessionSDP})
	in.fire(engine.SessionEvent{Type: engine.SessionReplaces})

	if got := f.PendingIDs(); len(got) != 1 {
		t.Fatalf("PendingIDs() = %v, want the call still queued", got)
	}
	if got := len(rec.ofType(action.CallEnded)); got != before {
		t.Errorf("CallEnded actions = %d, want %d", got, before)
	}
}
