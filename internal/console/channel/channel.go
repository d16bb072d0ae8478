// Package channel owns the fixed operator line slots and reduces
// canonical actions into their display state.
package channel

import "github.com/sebas/lineboard/internal/engine"

// Count is the number of operator line slots.
const Count = 3

// Call-info strings shown on a channel.
const (
	InfoReady            = "Ready"
	InfoRinging          = "Ringing"
	InfoAnswered         = "Answered"
	InfoTransferring     = "Transferring..."
	InfoAttendedTransfer = "Attended Transfer"
)

// Channel is one operator line slot. SessionID is a back-reference to an
// engine-owned session, never an owning copy; it matches a live session
// or is empty.
type Channel struct {
	ID   int    `json:"id"`
	Info string `json:"info"`

	SessionID  string           `json:"session_id"`
	CallNumber string           `json:"call_number"`
	CallInfo   string           `json:"call_info"`
	Direction  engine.Direction `json:"direction"`

	InCall   bool `json:"in_call"`
	InAnswer bool `json:"in_answer"`
	Hold     bool `json:"hold"`
	Muted    bool `json:"muted"`

	InTransfer             bool   `json:"in_transfer"`
	InAnswerTransfer       bool   `json:"in_answer_transfer"`
	TransferControl        bool   `json:"transfer_control"`
	AllowTransfer          bool   `json:"allow_transfer"`
	AllowAttendedTransfer  bool   `json:"allow_attended_transfer"`
	TransferNumber         string `json:"transfer_number"`
	AttendedTransferOnline string `json:"attended_transfer_online"`
	InConference           bool   `json:"in_conference"`
}

// NewChannel returns an idle channel with the given slot id.
func NewChannel(id int) Channel {
	return Channel{
		ID:                    id,
		Info:                  channelInfo(id),
		CallInfo:              InfoReady,
		AllowTransfer:         true,
		AllowAttendedTransfer: true,
	}
}

// ResetToIdle clears call and transfer state back to the idle template.
// The slot id, label and session back-reference handling are the caller's
// concern; the session id is cleared here because an idle channel must
// not reference any session.
func (c *Channel) ResetToIdle() {
	c.SessionID = ""
	c.InCall = false
	c.InAnswer = false
	c.Hold = false
	c.Muted = false
	c.InTransfer = false
	c.InAnswerTransfer = false
	c.TransferControl = false
	c.AllowTransfer = true
	c.AllowAttendedTransfer = true
	c.TransferNumber = ""
	c.AttendedTransferOnline = ""
	c.InConference = false
	c.CallInfo = InfoReady
}

func channelInfo(id int) string {
	switch id {
	case 0:
		return "Ch 1"
	case 1:
		return "Ch 2"
	case 2:
		return "Ch 3"
	default:
		return "Ch"
	}
}

// RingingCall is one operator-facing entry in the unanswered incoming
// list. It is not bound to a channel until answered.
type RingingCall struct {
	SessionID  string           `json:"session_id"`
	CallNumber string           `json:"call_number"`
	Direction  engine.Direction `json:"direction"`
}
