package transfer

import (
	"errors"
	"testing"

	"github.com/sebas/lineboard/internal/console/channel"
)

func TestCommandDigits(t *testing.T) {
	tests := []struct {
		cmd    Command
		number string
		want   string
	}{
		{CommandBlind, "2002", "##2002"},
		{CommandAttended, "2002", "*22002"},
		{CommandCancel, "", "*3"},
		{CommandComplete, "", "*4"},
		{CommandMerge, "", "*5"},
		{CommandSwap, "", "*6"},
	}

	for _, tt := range tests {
		if got := tt.cmd.Digits(tt.number); got != tt.want {
			t.Errorf("%v.Digits(%q) = %q, want %q", tt.cmd, tt.number, got, tt.want)
		}
	}
}

func TestCommandTakesNumber(t *testing.T) {
	withNumber := map[Command]bool{
		CommandBlind:    true,
		CommandAttended: true,
		CommandCancel:   false,
		CommandComplete: false,
		CommandMerge:    false,
		CommandSwap:     false,
	}
	for cmd, want := range withNumber {
		if got := cmd.TakesNumber(); got != want {
			t.Errorf("%v.TakesNumber() = %v, want %v", cmd, got, want)
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{"blind", CommandBlind, false},
		{"transfer", CommandAttended, false},
		{"cancel", CommandCancel, false},
		{"finish", CommandComplete, false},
		{"merge", CommandMerge, false},
		{"swap", CommandSwap, false},
		{"bogus", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCommand(%q) err = nil, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCommand(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCommand(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveTargetPrefersTypedDigits(t *testing.T) {
	tests := []struct {
		typed  string
		picked string
		want   string
	}{
		{"2002", "2003", "2002"},
		{"", "2003", "2003"},
		{"20x2", "2003", "2003"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := ResolveTarget(tt.typed, tt.picked); got != tt.want {
			t.Errorf("ResolveTarget(%q, %q) = %q, want %q", tt.typed, tt.picked, got, tt.want)
		}
	}
}

// fakeSender scripts DTMF delivery.
type fakeSender struct {
	sent   []string
	active bool
}

func (s *fakeSender) SendDTMF(digits string) bool {
	if !s.active {
		return false
	}
	s.sent = append(s.sent, digits)
	return true
}

// fakeChannels records channel mutations against a single slot.
type fakeChannels struct {
	focused int
	slots   [channel.Count]channel.Channel
	updates int
}

func (f *fakeChannels) Focused() int { return f.focused }

func (f *fakeChannels) Update(id int, fn func(*channel.Channel)) {
	f.updates++
	if id >= 0 && id < channel.Count {
		fn(&f.slots[id])
	}
}

func TestExecuteBlindMarksChannel(t *testing.T) {
	sender := &fakeSender{active: true}
	channels := &fakeChannels{focused: 1}
	coord := NewCoordinator(sender, channels)

	if err := coord.Execute(CommandBlind, "2002"); err != nil {
		t.Fatalf("Execute() err = %v", err)
	}

	if len(sender.sent) != 1 || sender.sent[0] != "##2002" {
		t.Fatalf("sent = %v, want [##2002]", sender.sent)
	}
	ch := channels.slots[1]
	if !ch.InTransfer {
		t.Error("InTransfer not set")
	}
	if ch.AllowTransfer || ch.AllowAttendedTransfer {
		t.Error("transfer buttons still enabled during transfer")
	}
	if ch.CallInfo != channel.InfoTransferring {
		t.Errorf("CallInfo = %q, want %q", ch.CallInfo, channel.InfoTransferring)
	}
}

func TestExecuteAttendedKeepsControl(t *testing.T) {
	sender := &fakeSender{active: true}
	channels := &fakeChannels{}
	coord := NewCoordinator(sender, channels)

	if err := coord.Execute(CommandAttended, "2002"); err != nil {
		t.Fatalf("Execute() err = %v", err)
	}

	ch := channels.slots[0]
	if !ch.TransferControl {
		t.Error("TransferControl not set for attended transfer")
	}
	if ch.CallInfo != channel.InfoAttendedTransfer {
		t.Errorf("CallInfo = %q, want %q", ch.CallInfo, channel.InfoAttendedTransfer)
	}
}

func TestExecuteCancelRestoresButtons(t *testing.T) {
	sender := &fakeSender{active: true}
	channels := &fakeChannels{}
	coord := NewCoordinator(sender, channels)

	if err := coord.Execute(CommandAttended, "2002"); err != nil {
		t.Fatalf("Execute(attended) err = %v", err)
	}
	if err := coord.Execute(CommandCancel, ""); err != nil {
		t.Fatalf("Execute(cancel) err = %v", err)
	}

	ch := channels.slots[0]
	if ch.InTransfer || ch.TransferControl {
		t.Error("transfer flags not cleared on cancel")
	}
	if !ch.AllowTransfer || !ch.AllowAttendedTransfer {
		t.Error("transfer buttons not restored on cancel")
	}
	if ch.AttendedTransferOnline != "" {
		t.Errorf("AttendedTransferOnline = %q, want empty", ch.AttendedTransferOnline)
	}
}

func TestExecuteRequiresTarget(t *testing.T) {
	sender := &fakeSender{active: true}
	coord := NewCoordinator(sender, &fakeChannels{})

	for _, cmd := range []Command{CommandBlind, CommandAttended} {
		if err := coord.Execute(cmd, ""); !errors.Is(err, ErrNoTarget) {
			t.Errorf("Execute(%v, empty) err = %v, want ErrNoTarget", cmd, err)
		}
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent = %v, want nothing", sender.sent)
	}
}

func TestExecuteNoActiveCallIsNoOp(t *testing.T) {
	sender := &fakeSender{active: false}
	channels := &fakeChannels{}
	coord := NewCoordinator(sender, channels)

	if err := coord.Execute(CommandBlind, "2002"); err != nil {
		t.Fatalf("Execute() err = %v", err)
	}
	if channels.updates != 0 {
		t.Errorf("channel updates = %d without an active call, want 0", channels.updates)
	}
}
