package channel

import (
	"fmt"
	"time"

	"github.com/sebas/lineboard/internal/engine"
)

// Disposition classifies how a call ended.
type Disposition int

const (
	// DispositionMissed means the call ended without ever being answered here.
	DispositionMissed Disposition = iota
	// DispositionAnswered means the call was connected before it ended.
	DispositionAnswered
)

// String returns the string representation of Disposition.
func (d Disposition) String() string {
	switch d {
	case DispositionMissed:
		return "missed"
	case DispositionAnswered:
		return "answered"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// MarshalJSON encodes the disposition as its string form.
func (d Disposition) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// HistoryEntry is an immutable record created when a call ends.
type HistoryEntry struct {
	SessionID string           `json:"session_id"`
	Direction engine.Direction `json:"direction"`
	Number    string           `json:"number"`
	Time      time.Time        `json:"time"`
	Status    Disposition      `json:"status"`
}
