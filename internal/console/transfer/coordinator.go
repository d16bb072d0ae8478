package transfer

import (
	"errors"
	"log/slog"

	"github.com/sebas/lineboard/internal/console/channel"
)

// ErrNoTarget is returned when a blind or attended transfer is requested
// without a transfer target.
var ErrNoTarget = errors.New("transfer requires a target number")

// DTMFSender sends digits over the active call. Sent is false when no
// call is active, which makes every transfer command a no-op.
type DTMFSender interface {
	SendDTMF(digits string) (sent bool)
}

// Channels is the slice of reducer surface the coordinator mutates.
type Channels interface {
	Focused() int
	Update(id int, fn func(*channel.Channel))
}

// Coordinator runs the transfer protocols against the focused channel.
type Coordinator struct {
	sender   DTMFSender
	channels Channels
}

// NewCoordinator creates a transfer coordinator.
func NewCoordinator(sender DTMFSender, channels Channels) *Coordinator {
	return &Coordinator{sender: sender, channels: channels}
}

// Execute runs one transfer command with the given target number (used
// only by CommandBlind and CommandAttended).
func (t *Coordinator) Execute(cmd Command, number string) error {
	if cmd.TakesNumber() && number == "" {
		return ErrNoTarget
	}

	// The PBX interprets the digits; nothing to do locally if they
	// cannot be sent.
	if !t.sender.SendDTMF(cmd.Digits(number)) {
		slog.Debug("[Transfer] No active call, command ignored", "command", cmd)
		return nil
	}

	focused := t.channels.Focused()
	switch cmd {
	case CommandBlind:
		t.channels.Update(focused, func(c *channel.Channel) {
			c.TransferNumber = number
			c.InTransfer = true
			c.AllowTransfer = false
			c.AllowAttendedTransfer = false
			c.CallInfo = channel.InfoTransferring
		})
	case CommandAttended:
		t.channels.Update(focused, func(c *channel.Channel) {
			c.TransferNumber = number
			c.InTransfer = true
			c.TransferControl = true
			c.AllowTransfer = false
			c.AllowAttendedTransfer = false
			c.CallInfo = channel.InfoAttendedTransfer
		})
	case CommandMerge:
		t.channels.Update(focused, func(c *channel.Channel) {
			c.InTransfer = false
			c.AttendedTransferOnline = ""
		})
	case CommandCancel:
		t.channels.Update(focused, func(c *channel.Channel) {
			c.InTransfer = false
			c.TransferControl = false
			c.AttendedTransferOnline = ""
			c.AllowTransfer = true
			c.AllowAttendedTransfer = true
		})
	case CommandSwap, CommandComplete:
		// Audio path changes happen on the PBX side only.
	}

	slog.Info("[Transfer] Command sent", "command", cmd, "channel", focused)
	return nil
}
