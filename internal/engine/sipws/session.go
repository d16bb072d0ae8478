package sipws

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emiago/sipgo/sip"

	"github.com/sebas/lineboard/internal/engine"
)

// Status codes per RFC 3261 not named by sipgo.
const (
	statusCallDoesNotExist  sip.StatusCode = 481
	statusRequestTerminated sip.StatusCode = 487
)

// sessionState tracks the SIP dialog phase of one call.
type sessionState int32

const (
	stateRinging sessionState = iota
	stateEstablished
	stateTerminated
)

// session is the sipws implementation of engine.Session. One session maps
// to one SIP dialog; dialog identity is Call-ID + local tag + remote tag.
type session struct {
	id    string
	agent *Agent
	dir   engine.Direction

	callID    string
	localTag  string
	remoteTag string
	localURI  sip.Uri
	remoteURI sip.Uri

	// remoteTarget is the remote Contact once learned; in-dialog requests
	// are addressed there per RFC 3261 Section 12.2.
	remoteTarget sip.Uri
	hasTarget    bool

	remote engine.RemoteIdentity

	cseq       uint32
	sdpVersion uint64

	// invite is the dialog-forming INVITE. For incoming sessions inviteTx
	// carries the server transaction to answer or reject on.
	invite   *sip.Request
	inviteTx sip.ServerTransaction

	state atomic.Int32

	mu          sync.Mutex
	onHold      bool
	muted       bool
	handlers    map[int]func(engine.SessionEvent)
	nextHandler int
}

var _ engine.Session = (*session)(nil)

func (s *session) ID() string                            { return s.id }
func (s *session) Direction() engine.Direction           { return s.dir }
func (s *session) RemoteIdentity() engine.RemoteIdentity { return s.remote }

// OnEvent registers a lifecycle callback. Events are reported in dialog
// order; the returned func unregisters.
func (s *session) OnEvent(fn func(engine.SessionEvent)) func() {
	s.mu.Lock()
	id := s.nextHandler
	s.nextHandler++
	s.handlers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// report delivers one event to every registered handler. Handlers run
// outside the session lock so they may call back into the session.
func (s *session) report(ev engine.SessionEvent) {
	s.mu.Lock()
	fns := make([]func(engine.SessionEvent), 0, len(s.handlers))
	for _, fn := range s.handlers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	slog.Debug("[SIPWS] Session event",
		"session_id", s.id,
		"event", ev.Type.String(),
		"originator", ev.Originator.String(),
	)
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *session) currentState() sessionState {
	return sessionState(s.state.Load())
}

func (s *session) setState(st sessionState) {
	s.state.Store(int32(st))
}

// Answer accepts an incoming session with a 200 OK carrying our SDP
// answer. The session is confirmed once the remote ACK arrives.
func (s *session) Answer(opts engine.AnswerOptions) error {
	if s.currentState() == stateTerminated {
		return engine.ErrSessionTerminated
	}
	if s.dir != engine.DirectionIncoming {
		return fmt.Errorf("answer on outgoing session %s", s.id)
	}
	if s.currentState() == stateEstablished {
		return fmt.Errorf("session %s already answered", s.id)
	}
	if !opts.Audio {
		return fmt.Errorf("audio-less answer not supported")
	}

	body, err := buildAudioSDP(s.agent.mediaAddr, s.agent.mediaPort, s.nextSDPVersion(), directionSendRecv)
	if err != nil {
		return fmt.Errorf("build answer SDP: %w", err)
	}

	res := sip.NewResponseFromRequest(s.invite, sip.StatusOK, "OK", body)
	if to := res.To(); to != nil {
		if to.Params == nil {
			to.Params = sip.NewParams()
		}
		to.Params.Add("tag", s.localTag)
	}
	res.AppendHeader(&s.agent.contact)
	contentType := sip.ContentTypeHeader("application/sdp")
	res.AppendHeader(&contentType)

	if err := s.inviteTx.Respond(res); err != nil {
		return fmt.Errorf("send 200 OK: %w", err)
	}

	s.setState(stateEstablished)
	slog.Info("[SIPWS] Session answered", "session_id", s.id, "remote", s.remote.Label())
	s.report(engine.SessionEvent{Type: engine.SessionAccepted, Originator: engine.OriginatorLocal})
	return nil
}

// handleACK confirms an answered incoming dialog.
func (s *session) handleACK() {
	if s.dir != engine.DirectionIncoming || s.currentState() != stateEstablished {
		return
	}
	s.report(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})
}

// Terminate ends the session in whatever state it is: 486 before answer
// on incoming, CANCEL before answer on outgoing, BYE once established.
// An already terminated session returns ErrSessionTerminated and sends
// nothing.
func (s *session) Terminate() error {
	switch s.currentState() {
	case stateTerminated:
		return engine.ErrSessionTerminated

	case stateRinging:
		if s.dir == engine.DirectionIncoming {
			s.setState(stateTerminated)
			res := sip.NewResponseFromRequest(s.invite, sip.StatusBusyHere, "Busy Here", nil)
			if err := s.inviteTx.Respond(res); err != nil {
				slog.Warn("[SIPWS] Failed to reject session", "session_id", s.id, "error", err)
			}
			s.finish(engine.SessionEvent{Type: engine.SessionFailed, Originator: engine.OriginatorLocal, Cause: "Rejected"})
			return nil
		}
		// Outgoing, no final response yet: CANCEL the INVITE transaction.
		s.setState(stateTerminated)
		if err := s.sendCANCEL(); err != nil {
			slog.Warn("[SIPWS] CANCEL failed", "session_id", s.id, "error", err)
		}
		s.finish(engine.SessionEvent{Type: engine.SessionFailed, Originator: engine.OriginatorLocal, Cause: "Canceled"})
		return nil

	default:
		s.setState(stateTerminated)
		if err := s.sendBYE(); err != nil {
			slog.Warn("[SIPWS] BYE failed", "session_id", s.id, "error", err)
		}
		s.finish(engine.SessionEvent{Type: engine.SessionEnded, Originator: engine.OriginatorLocal, Cause: "Terminated"})
		return nil
	}
}

// handleRemoteBYE processes a BYE from the far end.
func (s *session) handleRemoteBYE() {
	if s.currentState() == stateTerminated {
		return
	}
	s.setState(stateTerminated)
	s.finish(engine.SessionEvent{Type: engine.SessionEnded, Originator: engine.OriginatorRemote, Cause: "BYE"})
}

// handleRemoteCANCEL processes a CANCEL for an unanswered incoming INVITE.
func (s *session) handleRemoteCANCEL() {
	if s.currentState() != stateRinging || s.dir != engine.DirectionIncoming {
		return
	}
	s.setState(stateTerminated)
	res := sip.NewResponseFromRequest(s.invite, statusRequestTerminated, "Request Terminated", nil)
	if err := s.inviteTx.Respond(res); err != nil {
		slog.Debug("[SIPWS] Failed to respond 487", "session_id", s.id, "error", err)
	}
	s.finish(engine.SessionEvent{Type: engine.SessionFailed, Originator: engine.OriginatorRemote, Cause: "Canceled"})
}

// finish emits the terminal event and drops the session from the agent
// registry. The terminal event is reported exactly once.
func (s *session) finish(ev engine.SessionEvent) {
	s.agent.removeSession(s.callID, s.id)
	s.report(ev)
}

// Hold parks the call by re-offering the audio stream as sendonly.
func (s *session) Hold() error {
	if err := s.reinviteDirection(directionSendOnly); err != nil {
		return err
	}
	s.mu.Lock()
	s.onHold = true
	s.mu.Unlock()
	s.report(engine.SessionEvent{Type: engine.SessionHold, Originator: engine.OriginatorLocal})
	return nil
}

// Unhold resumes a parked call by re-offering sendrecv.
func (s *session) Unhold() error {
	if err := s.reinviteDirection(directionSendRecv); err != nil {
		return err
	}
	s.mu.Lock()
	s.onHold = false
	s.mu.Unlock()
	s.report(engine.SessionEvent{Type: engine.SessionUnhold, Originator: engine.OriginatorLocal})
	return nil
}

// Mute stops sending local audio. Mute is a media-plane toggle and does
// not renegotiate the dialog.
func (s *session) Mute() error {
	if s.currentState() == stateTerminated {
		return engine.ErrSessionTerminated
	}
	s.mu.Lock()
	s.muted = true
	s.mu.Unlock()
	s.report(engine.SessionEvent{Type: engine.SessionMuted, Originator: engine.OriginatorLocal})
	return nil
}

// Unmute resumes sending local audio.
func (s *session) Unmute() error {
	if s.currentState() == stateTerminated {
		return engine.ErrSessionTerminated
	}
	s.mu.Lock()
	s.muted = false
	s.mu.Unlock()
	s.report(engine.SessionEvent{Type: engine.SessionUnmuted, Originator: engine.OriginatorLocal})
	return nil
}

// SendDTMF sends each digit as a SIP INFO with an application/dtmf-relay
// body, in order. A failed digit aborts the remainder.
func (s *session) SendDTMF(digits string) error {
	if s.currentState() == stateTerminated {
		return engine.ErrSessionTerminated
	}
	if s.currentState() != stateEstablished {
		return fmt.Errorf("session %s not established", s.id)
	}

	for _, d := range digits {
		req := s.newInDialogRequest(sip.INFO)
		contentType := sip.ContentTypeHeader("application/dtmf-relay")
		req.AppendHeader(&contentType)
		req.SetBody([]byte(fmt.Sprintf("Signal=%c\r\nDuration=160\r\n", d)))

		if err := s.sendInDialog(req); err != nil {
			return fmt.Errorf("send DTMF %q: %w", d, err)
		}
		s.report(engine.SessionEvent{Type: engine.SessionNewDTMF, Originator: engine.OriginatorLocal})
		time.Sleep(70 * time.Millisecond)
	}
	return nil
}

// reinviteDirection sends a re-INVITE carrying an SDP offer with the
// given stream direction and waits for the 2xx + ACK exchange.
func (s *session) reinviteDirection(dir mediaDirection) error {
	if s.currentState() == stateTerminated {
		return engine.ErrSessionTerminated
	}
	if s.currentState() != stateEstablished {
		return fmt.Errorf("session %s not established", s.id)
	}

	body, err := buildAudioSDP(s.agent.mediaAddr, s.agent.mediaPort, s.nextSDPVersion(), dir)
	if err != nil {
		return fmt.Errorf("build re-INVITE SDP: %w", err)
	}

	req := s.newInDialogRequest(sip.INVITE)
	req.AppendHeader(&s.agent.contact)
	contentType := sip.ContentTypeHeader("application/sdp")
	req.AppendHeader(&contentType)
	req.SetBody(body)

	resp, err := s.transactInDialog(req)
	if err != nil {
		return fmt.Errorf("re-INVITE: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("re-INVITE rejected: %d %s", resp.StatusCode, resp.Reason)
	}
	if err := s.sendACKFor(resp, req); err != nil {
		slog.Warn("[SIPWS] re-INVITE ACK failed", "session_id", s.id, "error", err)
	}
	return nil
}

// handleReinvite processes an in-dialog INVITE from the remote side. The
// call answers with its current media state and surfaces the signaling
// detail, including P-Asserted-Identity, to the console.
func (s *session) handleReinvite(req *sip.Request, tx sip.ServerTransaction) {
	if s.currentState() != stateEstablished {
		res := sip.NewResponseFromRequest(req, statusCallDoesNotExist, "Call/Transaction Does Not Exist", nil)
		if err := tx.Respond(res); err != nil {
			slog.Debug("[SIPWS] Failed to reject re-INVITE", "session_id", s.id, "error", err)
		}
		return
	}

	s.mu.Lock()
	localDir := directionSendRecv
	if s.onHold {
		localDir = directionSendOnly
	}
	s.mu.Unlock()

	body, err := buildAudioSDP(s.agent.mediaAddr, s.agent.mediaPort, s.nextSDPVersion(), localDir)
	if err != nil {
		slog.Error("[SIPWS] Failed to build re-INVITE answer", "session_id", s.id, "error", err)
		res := sip.NewResponseFromRequest(req, sip.StatusInternalServerError, "Server Error", nil)
		_ = tx.Respond(res)
		return
	}

	res := sip.NewResponseFromRequest(req, sip.StatusOK, "OK", body)
	res.AppendHeader(&s.agent.contact)
	contentType := sip.ContentTypeHeader("application/sdp")
	res.AppendHeader(&contentType)
	if err := tx.Respond(res); err != nil {
		slog.Warn("[SIPWS] Failed to answer re-INVITE", "session_id", s.id, "error", err)
		return
	}

	ev := engine.SessionEvent{Type: engine.SessionReinvite, Originator: engine.OriginatorRemote}
	if hdr := req.GetHeader("P-Asserted-Identity"); hdr != nil {
		ev.Reinvite = &engine.ReinvitePayload{AssertedIdentity: hdr.Value()}
	}
	slog.Info("[SIPWS] Remote re-INVITE",
		"session_id", s.id,
		"remote_direction", string(remoteDirection(req.Body())),
	)
	s.report(ev)
}

// --- In-dialog request plumbing ---

// newInDialogRequest builds a request addressed inside the dialog: the
// remote target as Request-URI, dialog tags on From/To, and the next
// local CSeq.
func (s *session) newInDialogRequest(method sip.RequestMethod) *sip.Request {
	recipient := s.remoteURI
	if s.hasTarget {
		recipient = s.remoteTarget
	}

	req := sip.NewRequest(method, recipient)
	req.SetTransport(s.agent.transport)
	req.SetDestination(s.agent.serverAddr)

	maxFwd := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxFwd)

	fromParams := sip.NewParams()
	fromParams.Add("tag", s.localTag)
	req.AppendHeader(&sip.FromHeader{
		DisplayName: s.agent.cfg.DisplayName,
		Address:     s.localURI,
		Params:      fromParams,
	})

	toParams := sip.NewParams()
	if s.remoteTag != "" {
		toParams.Add("tag", s.remoteTag)
	}
	req.AppendHeader(&sip.ToHeader{
		Address: s.remoteURI,
		Params:  toParams,
	})

	callIDHdr := sip.CallIDHeader(s.callID)
	req.AppendHeader(&callIDHdr)

	req.AppendHeader(&sip.CSeqHeader{
		SeqNo:      atomic.AddUint32(&s.cseq, 1),
		MethodName: method,
	})

	return req
}

// sendInDialog runs a non-INVITE in-dialog transaction and checks for a
// 2xx final response.
func (s *session) sendInDialog(req *sip.Request) error {
	resp, err := s.transactInDialog(req)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s rejected: %d %s", req.Method, resp.StatusCode, resp.Reason)
	}
	return nil
}

// transactInDialog sends the request and waits for its final response.
func (s *session) transactInDialog(req *sip.Request) (*sip.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tx, err := s.agent.client.TransactionRequest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transaction: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case resp := <-tx.Responses():
			if resp == nil {
				return nil, fmt.Errorf("transaction closed without response")
			}
			if resp.StatusCode < 200 {
				continue
			}
			return resp, nil
		case <-tx.Done():
			return nil, fmt.Errorf("transaction terminated without final response")
		}
	}
}

// sendBYE terminates the established dialog.
func (s *session) sendBYE() error {
	return s.sendInDialog(s.newInDialogRequest(sip.BYE))
}

// sendCANCEL cancels the pending outgoing INVITE. Per RFC 3261 Section
// 9.1 the CANCEL copies the INVITE's Request-URI, Call-ID, From, To and
// CSeq number.
func (s *session) sendCANCEL() error {
	cancelReq := sip.NewRequest(sip.CANCEL, s.invite.Recipient)
	cancelReq.SetTransport(s.agent.transport)
	cancelReq.SetDestination(s.agent.serverAddr)

	sip.CopyHeaders("Via", s.invite, cancelReq)
	sip.CopyHeaders("From", s.invite, cancelReq)
	sip.CopyHeaders("To", s.invite, cancelReq)
	sip.CopyHeaders("Call-ID", s.invite, cancelReq)
	if cseq := s.invite.CSeq(); cseq != nil {
		cancelReq.AppendHeader(&sip.CSeqHeader{
			SeqNo:      cseq.SeqNo,
			MethodName: sip.CANCEL,
		})
	}
	maxFwd := sip.MaxForwardsHeader(70)
	cancelReq.AppendHeader(&maxFwd)

	return s.sendInDialog(cancelReq)
}

// sendACKFor acknowledges a 2xx to an INVITE we sent. Per RFC 3261
// Section 13.2.2.4 the ACK for a 2xx is a new request outside the INVITE
// transaction, addressed to the remote Contact.
func (s *session) sendACKFor(resp *sip.Response, invite *sip.Request) error {
	recipient := invite.Recipient
	if contact := resp.Contact(); contact != nil {
		recipient = contact.Address
		s.remoteTarget = contact.Address
		s.hasTarget = true
	}

	ack := sip.NewRequest(sip.ACK, recipient)
	ack.SetTransport(s.agent.transport)
	ack.SetDestination(s.agent.serverAddr)

	maxFwd := sip.MaxForwardsHeader(70)
	ack.AppendHeader(&maxFwd)
	sip.CopyHeaders("From", invite, ack)

	if to := resp.To(); to != nil {
		ack.AppendHeader(&sip.ToHeader{
			Address: to.Address,
			Params:  to.Params,
		})
	}
	sip.CopyHeaders("Call-ID", invite, ack)
	if cseq := invite.CSeq(); cseq != nil {
		ack.AppendHeader(&sip.CSeqHeader{
			SeqNo:      cseq.SeqNo,
			MethodName: sip.ACK,
		})
	}

	if err := s.agent.client.WriteRequest(ack); err != nil {
		return fmt.Errorf("write ACK: %w", err)
	}
	return nil
}

func (s *session) nextSDPVersion() uint64 {
	return atomic.AddUint64(&s.sdpVersion, 1)
}

// identityFromHeader extracts a RemoteIdentity from a From/To header.
func identityFromHeader(displayName string, uri sip.Uri) engine.RemoteIdentity {
	return engine.RemoteIdentity{
		DisplayName: displayName,
		User:        uri.User,
	}
}
