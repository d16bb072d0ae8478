package engine

import "testing"

func TestSessionEventWireNames(t *testing.T) {
	names := map[SessionEventType]string{
		SessionProgress:  "progress",
		SessionAccepted:  "accepted",
		SessionConfirmed: "confirmed",
		SessionHold:      "hold",
		SessionUnhold:    "unhold",
		SessionMuted:     "muted",
		SessionUnmuted:   "unmuted",
		SessionReinvite:  "reinvite",
		SessionNewDTMF:   "newDTMF",
		SessionEnded:     "ended",
		SessionFailed:    "failed",
	}
	for typ, want := range names {
		if got := typ.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestTerminalEvents(t *testing.T) {
	for _, typ := range []SessionEventType{SessionEnded, SessionFailed} {
		if !typ.IsTerminal() {
			t.Errorf("%s.IsTerminal() = false, want true", typ)
		}
	}
	for _, typ := range []SessionEventType{SessionProgress, SessionAccepted, SessionConfirmed, SessionHold} {
		if typ.IsTerminal() {
			t.Errorf("%s.IsTerminal() = true, want false", typ)
		}
	}
}

func TestRemoteIdentityLabel(t *testing.T) {
	tests := []struct {
		identity RemoteIdentity
		want     string
	}{
		{RemoteIdentity{DisplayName: "Alice", User: "2001"}, "Alice"},
		{RemoteIdentity{User: "2001"}, "2001"},
		{RemoteIdentity{}, ""},
	}
	for _, tt := range tests {
		if got := tt.identity.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestAgentEventWireNames(t *testing.T) {
	names := map[AgentEventType]string{
		AgentConnecting:         "connecting",
		AgentConnected:          "connected",
		AgentDisconnected:       "disconnected",
		AgentRegistered:         "registered",
		AgentUnregistered:       "unregistered",
		AgentRegistrationFailed: "registrationFailed",
	}
	for typ, want := range names {
		if got := typ.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
