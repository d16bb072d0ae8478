// Package sipws implements the engine contract over SIP with WebSocket
// transport, using sipgo for signaling. It registers against the
// configured domain, places and receives calls, and reports session
// lifecycle events to the console core.
package sipws

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emiago/sipgo"
	"github.com/emiago/sipgo/sip"
	"github.com/google/uuid"
	"github.com/icholy/digest"

	"github.com/sebas/lineboard/internal/engine"
)

const (
	// defaultRegisterExpires is the registration lifetime requested when
	// the server does not impose its own.
	defaultRegisterExpires = 600

	// registerTimeout bounds one REGISTER transaction.
	registerTimeout = 10 * time.Second
)

// Agent is the sipgo-backed engine.UserAgent. One Agent maintains one
// registration and any number of concurrent sessions.
type Agent struct {
	cfg engine.Config

	ua     *sipgo.UserAgent
	srv    *sipgo.Server
	client *sipgo.Client

	// serverAddr is the host:port of the SIP WebSocket server; every
	// outgoing request is sent there.
	serverAddr string
	transport  string
	bindAddr   string

	// mediaAddr/mediaPort advertise the local RTP endpoint in SDP.
	mediaAddr string
	mediaPort int

	localURI sip.Uri
	contact  sip.ContactHeader

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	started    bool
	sessions   map[string]*session // by session id
	byCallID   map[string]*session // by Call-ID
	onNew      []func(engine.Session)
	onAgent    []func(engine.AgentEvent)
	registered bool
}

var _ engine.UserAgent = (*Agent)(nil)

// Option configures an Agent.
type Option func(*Agent)

// WithBindAddr sets the local WebSocket listen address. Defaults to an
// ephemeral loopback port.
func WithBindAddr(addr string) Option {
	return func(a *Agent) { a.bindAddr = addr }
}

// WithMediaEndpoint sets the RTP address advertised in SDP offers and
// answers.
func WithMediaEndpoint(addr string, port int) Option {
	return func(a *Agent) {
		a.mediaAddr = addr
		a.mediaPort = port
	}
}

// NewAgent builds an unstarted agent for the given account.
func NewAgent(cfg engine.Config, opts ...Option) (*Agent, error) {
	cfg.Validate()
	if cfg.Domain == "" || cfg.AuthorizationUser == "" {
		return nil, fmt.Errorf("agent config: domain and authorization user are required")
	}

	serverAddr, transport, err := parseWebSocketURL(cfg.WebSocketURL)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:        cfg,
		serverAddr: serverAddr,
		transport:  transport,
		bindAddr:   "127.0.0.1:0",
		mediaAddr:  "127.0.0.1",
		mediaPort:  40000,
		sessions:   make(map[string]*session),
		byCallID:   make(map[string]*session),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.localURI = sip.Uri{
		Scheme: "sip",
		User:   cfg.AuthorizationUser,
		Host:   cfg.Domain,
	}
	contactURI := sip.Uri{
		Scheme: "sip",
		User:   cfg.AuthorizationUser,
		Host:   cfg.Domain,
	}
	contactURI.UriParams = sip.NewParams()
	contactURI.UriParams.Add("transport", strings.ToLower(transport))
	a.contact = sip.ContactHeader{Address: contactURI}

	ua, err := sipgo.NewUA()
	if err != nil {
		return nil, fmt.Errorf("failed to create user agent: %w", err)
	}
	uas, err := sipgo.NewServer(ua)
	if err != nil {
		ua.Close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	uac, err := sipgo.NewClient(ua)
	if err != nil {
		ua.Close()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	a.ua = ua
	a.srv = uas
	a.client = uac

	uas.OnRequest(sip.INVITE, a.handleINVITE)
	uas.OnRequest(sip.BYE, a.handleBYE)
	uas.OnRequest(sip.ACK, a.handleACK)
	uas.OnRequest(sip.CANCEL, a.handleCANCEL)
	uas.OnRequest(sip.INFO, a.handleINFO)

	return a, nil
}

// parseWebSocketURL resolves a ws/wss URL to a dial address and SIP
// transport name.
func parseWebSocketURL(raw string) (addr, transport string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid WebSocket URL %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws":
		transport = "WS"
	case "wss":
		transport = "WSS"
	default:
		return "", "", fmt.Errorf("unsupported WebSocket scheme %q", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return "", "", fmt.Errorf("WebSocket URL %q has no host", raw)
	}
	port := u.Port()
	if port == "" {
		if transport == "WSS" {
			port = "443"
		} else {
			port = "80"
		}
	}
	return host + ":" + port, transport, nil
}

// Start connects the signaling transport and registers the account.
func (a *Agent) Start() error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return fmt.Errorf("agent already started")
	}
	a.started = true
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.mu.Unlock()

	a.emitAgent(engine.AgentEvent{Type: engine.AgentConnecting})

	go func() {
		transport := strings.ToLower(a.transport)
		if err := a.srv.ListenAndServe(a.ctx, transport, a.bindAddr); err != nil && a.ctx.Err() == nil {
			slog.Error("[SIPWS] Transport failed", "transport", transport, "error", err)
			a.emitAgent(engine.AgentEvent{Type: engine.AgentDisconnected, Cause: err.Error()})
		}
	}()

	if err := a.register(defaultRegisterExpires); err != nil {
		a.emitAgent(engine.AgentEvent{Type: engine.AgentRegistrationFailed, Cause: err.Error()})
		return fmt.Errorf("register: %w", err)
	}

	a.emitAgent(engine.AgentEvent{Type: engine.AgentConnected})
	a.emitAgent(engine.AgentEvent{Type: engine.AgentRegistered})
	slog.Info("[SIPWS] Agent registered",
		"user", a.cfg.AuthorizationUser,
		"domain", a.cfg.Domain,
		"server", a.serverAddr,
	)

	go a.refreshLoop()
	return nil
}

// Stop unregisters and tears the transport down. Live sessions are
// terminated first.
func (a *Agent) Stop() error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = false
	live := make([]*session, 0, len(a.sessions))
	for _, s := range a.sessions {
		live = append(live, s)
	}
	a.mu.Unlock()

	for _, s := range live {
		if err := s.Terminate(); err != nil {
			slog.Debug("[SIPWS] Terminate during stop", "session_id", s.id, "error", err)
		}
	}

	if err := a.register(0); err != nil {
		slog.Warn("[SIPWS] Unregister failed", "error", err)
	} else {
		a.emitAgent(engine.AgentEvent{Type: engine.AgentUnregistered})
	}

	a.cancel()
	err := a.ua.Close()
	a.emitAgent(engine.AgentEvent{Type: engine.AgentDisconnected})
	return err
}

// refreshLoop re-registers at half the granted lifetime until stopped.
func (a *Agent) refreshLoop() {
	ticker := time.NewTicker(defaultRegisterExpires / 2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			if err := a.register(defaultRegisterExpires); err != nil {
				slog.Warn("[SIPWS] Registration refresh failed", "error", err)
				a.emitAgent(engine.AgentEvent{Type: engine.AgentRegistrationFailed, Cause: err.Error()})
			}
		}
	}
}

// register runs one REGISTER transaction, answering a Digest challenge
// if the registrar issues one.
func (a *Agent) register(expires int) error {
	req := a.newRegisterRequest(expires)

	resp, err := a.transact(req)
	if err != nil {
		return err
	}

	if resp.StatusCode == sip.StatusUnauthorized || resp.StatusCode == sip.StatusProxyAuthRequired {
		challengeHdr := resp.GetHeader("WWW-Authenticate")
		if challengeHdr == nil {
			challengeHdr = resp.GetHeader("Proxy-Authenticate")
		}
		if challengeHdr == nil {
			return fmt.Errorf("401 without challenge")
		}
		challenge, err := digest.ParseChallenge(challengeHdr.Value())
		if err != nil {
			return fmt.Errorf("parse challenge: %w", err)
		}
		cred, err := digest.Digest(challenge, digest.Options{
			Method:   string(sip.REGISTER),
			URI:      "sip:" + a.cfg.Domain,
			Username: a.cfg.AuthorizationUser,
			Password: a.cfg.Password,
		})
		if err != nil {
			return fmt.Errorf("compute digest: %w", err)
		}

		authReq := a.newRegisterRequest(expires)
		headerName := "Authorization"
		if resp.StatusCode == sip.StatusProxyAuthRequired {
			headerName = "Proxy-Authorization"
		}
		authReq.AppendHeader(sip.NewHeader(headerName, cred.String()))

		resp, err = a.transact(authReq)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode != sip.StatusOK {
		return fmt.Errorf("registrar responded %d %s", resp.StatusCode, resp.Reason)
	}

	a.mu.Lock()
	a.registered = expires > 0
	a.mu.Unlock()
	return nil
}

// newRegisterRequest builds a REGISTER for our AOR with the given
// expiration.
func (a *Agent) newRegisterRequest(expires int) *sip.Request {
	req := sip.NewRequest(sip.REGISTER, sip.Uri{Scheme: "sip", Host: a.cfg.Domain})
	req.SetTransport(a.transport)
	req.SetDestination(a.serverAddr)

	maxFwd := sip.MaxForwardsHeader(70)
	req.AppendHeader(&maxFwd)

	fromParams := sip.NewParams()
	fromParams.Add("tag", generateTag())
	req.AppendHeader(&sip.FromHeader{
		DisplayName: a.cfg.DisplayName,
		Address:     a.localURI,
		Params:      fromParams,
	})
	req.AppendHeader(&sip.ToHeader{
		Address: a.localURI,
		Params:  sip.NewParams(),
	})

	callIDHdr := sip.CallIDHeader(generateCallID())
	req.AppendHeader(&callIDHdr)
	req.AppendHeader(&sip.CSeqHeader{
		SeqNo:      1,
		MethodName: sip.REGISTER,
	})
	req.AppendHeader(&a.contact)
	req.AppendHeader(sip.NewHeader("Expires", strconv.Itoa(expires)))

	return req
}

// transact sends a request and waits for its final response.
func (a *Agent) transact(req *sip.Request) (*sip.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), registerTimeout)
	defer cancel()

	tx, err := a.client.TransactionRequest(ctx, req)
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

// Call places an outgoing call to number@domain. The session is
// delivered through OnNewSession before any of its events.
func (a *Agent) Call(number string, opts engine.CallOptions) error {
	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	if !started {
		return fmt.Errorf("agent not started")
	}
	if !opts.Audio {
		return fmt.Errorf("audio-less call not supported")
	}

	s := &session{
		id:       uuid.New().String(),
		agent:    a,
		dir:      engine.DirectionOutgoing,
		callID:   generateCallID(),
		localTag: generateTag(),
		localURI: a.localURI,
		remoteURI: sip.Uri{
			Scheme: "sip",
			User:   number,
			Host:   a.cfg.Domain,
		},
		remote:   engine.RemoteIdentity{User: number},
		cseq:     1,
		handlers: make(map[int]func(engine.SessionEvent)),
	}

	body, err := buildAudioSDP(a.mediaAddr, a.mediaPort, s.nextSDPVersion(), directionSendRecv)
	if err != nil {
		return fmt.Errorf("build offer SDP: %w", err)
	}

	invite, err := a.buildINVITE(s, opts, body)
	if err != nil {
		return err
	}
	s.invite = invite

	a.addSession(s)
	a.dispatchNewSession(s)

	go a.runINVITE(s, invite)
	return nil
}

// buildINVITE constructs the dialog-forming INVITE for an outgoing call.
func (a *Agent) buildINVITE(s *session, opts engine.CallOptions, body []byte) (*sip.Request, error) {
	invite := sip.NewRequest(sip.INVITE, s.remoteURI)
	invite.SetTransport(a.transport)
	invite.SetDestination(a.serverAddr)

	maxFwd := sip.MaxForwardsHeader(70)
	invite.AppendHeader(&maxFwd)

	fromParams := sip.NewParams()
	fromParams.Add("tag", s.localTag)
	invite.AppendHeader(&sip.FromHeader{
		DisplayName: a.cfg.DisplayName,
		Address:     s.localURI,
		Params:      fromParams,
	})
	invite.AppendHeader(&sip.ToHeader{
		Address: s.remoteURI,
		Params:  sip.NewParams(),
	})

	callIDHdr := sip.CallIDHeader(s.callID)
	invite.AppendHeader(&callIDHdr)
	invite.AppendHeader(&sip.CSeqHeader{
		SeqNo:      1,
		MethodName: sip.INVITE,
	})
	invite.AppendHeader(&a.contact)

	if opts.SessionTimerSeconds > 0 {
		// RFC 4028 session timer.
		invite.AppendHeader(sip.NewHeader("Supported", "timer"))
		invite.AppendHeader(sip.NewHeader("Session-Expires", strconv.Itoa(opts.SessionTimerSeconds)))
	}
	for _, raw := range opts.ExtraHeaders {
		name, value, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("malformed extra header %q", raw)
		}
		invite.AppendHeader(sip.NewHeader(strings.TrimSpace(name), strings.TrimSpace(value)))
	}

	contentType := sip.ContentTypeHeader("application/sdp")
	invite.AppendHeader(&contentType)
	invite.SetBody(body)

	return invite, nil
}

// runINVITE drives the outgoing INVITE transaction and translates its
// responses into session events.
func (a *Agent) runINVITE(s *session, invite *sip.Request) {
	ctx, cancel := context.WithTimeout(a.ctx, 2*time.Minute)
	defer cancel()

	tx, err := a.client.TransactionRequest(ctx, invite)
	if err != nil {
		slog.Error("[SIPWS] INVITE transaction failed", "session_id", s.id, "error", err)
		s.setState(stateTerminated)
		s.finish(engine.SessionEvent{Type: engine.SessionFailed, Originator: engine.OriginatorLocal, Cause: "Connection Error"})
		return
	}

	slog.Info("[SIPWS] INVITE sent", "session_id", s.id, "target", invite.Recipient.String())
	s.report(engine.SessionEvent{Type: engine.SessionSending, Originator: engine.OriginatorLocal})

	for {
		select {
		case <-ctx.Done():
			if s.currentState() == stateTerminated {
				return
			}
			s.setState(stateTerminated)
			s.finish(engine.SessionEvent{Type: engine.SessionFailed, Originator: engine.OriginatorLocal, Cause: "Request Timeout"})
			return

		case resp := <-tx.Responses():
			if resp == nil {
				continue
			}
			if a.handleInviteResponse(s, resp, invite) {
				return
			}

		case <-tx.Done():
			if s.currentState() == stateEstablished || s.currentState() == stateTerminated {
				return
			}
			s.setState(stateTerminated)
			s.finish(engine.SessionEvent{Type: engine.SessionFailed, Originator: engine.OriginatorRemote, Cause: "Request Timeout"})
			return
		}
	}
}

// handleInviteResponse processes one response to the outgoing INVITE.
// Returns true when the transaction is finished.
func (a *Agent) handleInviteResponse(s *session, resp *sip.Response, invite *sip.Request) bool {
	code := int(resp.StatusCode)
	slog.Debug("[SIPWS] INVITE response", "session_id", s.id, "status", code, "reason", resp.Reason)

	switch {
	case code == 100:
		return false

	case code == 180 || code == 181:
		s.report(engine.SessionEvent{Type: engine.SessionProgress, Originator: engine.OriginatorRemote, StatusCode: 180})
		return false

	case code == 183:
		s.report(engine.SessionEvent{Type: engine.SessionProgress, Originator: engine.OriginatorRemote, StatusCode: 183})
		return false

	case code >= 200 && code < 300:
		if s.currentState() == stateTerminated {
			// Answered after we gave up; close the dialog politely.
			if err := s.sendACKFor(resp, invite); err == nil {
				_ = s.sendBYE()
			}
			return true
		}
		if to := resp.To(); to != nil {
			if tag, ok := to.Params.Get("tag"); ok {
				s.remoteTag = tag
			}
			s.remote = identityFromHeader(to.DisplayName, to.Address)
		}
		if err := s.sendACKFor(resp, invite); err != nil {
			slog.Warn("[SIPWS] ACK failed", "session_id", s.id, "error", err)
		}
		s.setState(stateEstablished)
		s.report(engine.SessionEvent{Type: engine.SessionAccepted, Originator: engine.OriginatorRemote})
		s.report(engine.SessionEvent{Type: engine.SessionConfirmed, Originator: engine.OriginatorRemote})
		return true

	case code >= 300:
		if s.currentState() == stateTerminated {
			return true
		}
		s.setState(stateTerminated)
		s.finish(engine.SessionEvent{
			Type:       engine.SessionFailed,
			Originator: engine.OriginatorRemote,
			StatusCode: code,
			Cause:      failureCause(code),
		})
		return true
	}
	return false
}

// failureCause maps a SIP failure status to the cause vocabulary the
// console reports.
func failureCause(code int) string {
	switch code {
	case 486, 600:
		return "Busy"
	case 403, 603:
		return "Rejected"
	case 404, 484, 604:
		return "Not Found"
	case 408:
		return "Request Timeout"
	case 480:
		return "Unavailable"
	default:
		return "SIP Failure Code"
	}
}

// Session returns the live session with the given id.
func (a *Agent) Session(id string) (engine.Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[id]
	return s, ok
}

// OnNewSession registers a callback for every new incoming or outgoing
// session.
func (a *Agent) OnNewSession(fn func(engine.Session)) {
	a.mu.Lock()
	a.onNew = append(a.onNew, fn)
	a.mu.Unlock()
}

// OnEvent registers a callback for agent lifecycle events.
func (a *Agent) OnEvent(fn func(engine.AgentEvent)) {
	a.mu.Lock()
	a.onAgent = append(a.onAgent, fn)
	a.mu.Unlock()
}

func (a *Agent) emitAgent(ev engine.AgentEvent) {
	a.mu.Lock()
	fns := make([]func(engine.AgentEvent), len(a.onAgent))
	copy(fns, a.onAgent)
	a.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (a *Agent) dispatchNewSession(s *session) {
	a.mu.Lock()
	fns := make([]func(engine.Session), len(a.onNew))
	copy(fns, a.onNew)
	a.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (a *Agent) addSession(s *session) {
	a.mu.Lock()
	a.sessions[s.id] = s
	a.byCallID[s.callID] = s
	a.mu.Unlock()
}

func (a *Agent) removeSession(callID, id string) {
	a.mu.Lock()
	delete(a.sessions, id)
	delete(a.byCallID, callID)
	a.mu.Unlock()
}

func (a *Agent) sessionByCallID(req *sip.Request) (*session, bool) {
	callIDHdr := req.CallID()
	if callIDHdr == nil {
		return nil, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.byCallID[callIDHdr.Value()]
	return s, ok
}

// --- Inbound request handlers ---

// handleINVITE accepts a new incoming call, or routes an in-dialog
// INVITE to its session as a re-INVITE.
func (a *Agent) handleINVITE(req *sip.Request, tx sip.ServerTransaction) {
	if s, ok := a.sessionByCallID(req); ok {
		s.handleReinvite(req, tx)
		return
	}

	from := req.From()
	if from == nil {
		res := sip.NewResponseFromRequest(req, sip.StatusBadRequest, "Missing From header", nil)
		if err := tx.Respond(res); err != nil {
			slog.Error("[SIPWS] Failed to reject INVITE", "error", err)
		}
		return
	}
	callIDHdr := req.CallID()
	if callIDHdr == nil {
		res := sip.NewResponseFromRequest(req, sip.StatusBadRequest, "Missing Call-ID header", nil)
		if err := tx.Respond(res); err != nil {
			slog.Error("[SIPWS] Failed to reject INVITE", "error", err)
		}
		return
	}

	s := &session{
		id:        uuid.New().String(),
		agent:     a,
		dir:       engine.DirectionIncoming,
		callID:    callIDHdr.Value(),
		localTag:  generateTag(),
		localURI:  a.localURI,
		remoteURI: from.Address,
		remote:    identityFromHeader(from.DisplayName, from.Address),
		invite:    req,
		inviteTx:  tx,
		handlers:  make(map[int]func(engine.SessionEvent)),
	}
	if tag, ok := from.Params.Get("tag"); ok {
		s.remoteTag = tag
	}
	if cseq := req.CSeq(); cseq != nil {
		s.cseq = cseq.SeqNo
	}
	if contact := req.Contact(); contact != nil {
		s.remoteTarget = contact.Address
		s.hasTarget = true
	}

	trying := sip.NewResponseFromRequest(req, sip.StatusTrying, "Trying", nil)
	if err := tx.Respond(trying); err != nil {
		slog.Error("[SIPWS] Failed to send 100 Trying", "error", err)
		return
	}
	ringing := sip.NewResponseFromRequest(req, sip.StatusRinging, "Ringing", nil)
	if to := ringing.To(); to != nil {
		if to.Params == nil {
			to.Params = sip.NewParams()
		}
		to.Params.Add("tag", s.localTag)
	}
	if err := tx.Respond(ringing); err != nil {
		slog.Error("[SIPWS] Failed to send 180 Ringing", "error", err)
		return
	}

	a.addSession(s)
	slog.Info("[SIPWS] Incoming call",
		"session_id", s.id,
		"from", s.remote.Label(),
		"call_id", s.callID,
	)
	a.dispatchNewSession(s)
	s.report(engine.SessionEvent{Type: engine.SessionProgress, Originator: engine.OriginatorLocal, StatusCode: 180})
}

func (a *Agent) handleBYE(req *sip.Request, tx sip.ServerTransaction) {
	res := sip.NewResponseFromRequest(req, sip.StatusOK, "OK", nil)
	if err := tx.Respond(res); err != nil {
		slog.Debug("[SIPWS] Failed to respond to BYE", "error", err)
	}
	if s, ok := a.sessionByCallID(req); ok {
		s.handleRemoteBYE()
	}
}

func (a *Agent) handleACK(req *sip.Request, _ sip.ServerTransaction) {
	if s, ok := a.sessionByCallID(req); ok {
		s.handleACK()
	}
}

func (a *Agent) handleCANCEL(req *sip.Request, tx sip.ServerTransaction) {
	res := sip.NewResponseFromRequest(req, sip.StatusOK, "OK", nil)
	if err := tx.Respond(res); err != nil {
		slog.Debug("[SIPWS] Failed to respond to CANCEL", "error", err)
	}
	if s, ok := a.sessionByCallID(req); ok {
		s.handleRemoteCANCEL()
	}
}

func (a *Agent) handleINFO(req *sip.Request, tx sip.ServerTransaction) {
	res := sip.NewResponseFromRequest(req, sip.StatusOK, "OK", nil)
	if err := tx.Respond(res); err != nil {
		slog.Debug("[SIPWS] Failed to respond to INFO", "error", err)
	}
	if s, ok := a.sessionByCallID(req); ok {
		s.report(engine.SessionEvent{Type: engine.SessionNewInfo, Originator: engine.OriginatorRemote})
	}
}

// generateCallID generates a unique Call-ID.
func generateCallID() string {
	return uuid.New().String()
}

// generateTag generates a unique tag for From/To headers.
func generateTag() string {
	return uuid.New().String()[:8]
}
