// Package transfer drives the blind and attended transfer protocols.
// Both are expressed as out-of-band DTMF digit sequences the remote PBX
// interprets; the local state tracks only what the operator sees.
package transfer

import (
	"fmt"
	"regexp"
)

// Command names one transfer operation. The digit sequence each command
// maps to is an implicit contract with the PBX; the whole mapping lives
// in Digits so it is auditable and swappable per deployment.
type Command int

const (
	// CommandBlind hands the call off without consulting the target.
	CommandBlind Command = iota
	// CommandAttended dials the target for consultation first.
	CommandAttended
	// CommandCancel aborts an attended transfer and returns to the caller.
	CommandCancel
	// CommandComplete finishes an attended transfer, dropping the local leg.
	CommandComplete
	// CommandMerge conferences all three parties.
	CommandMerge
	// CommandSwap toggles which party the operator is talking to.
	CommandSwap
)

// String returns the string representation of Command.
func (c Command) String() string {
	switch c {
	case CommandBlind:
		return "blind"
	case CommandAttended:
		return "transfer"
	case CommandCancel:
		return "cancel"
	case CommandComplete:
		return "finish"
	case CommandMerge:
		return "merge"
	case CommandSwap:
		return "swap"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// DTMF digit prefixes understood by the PBX feature codes.
const (
	digitsBlind    = "##"
	digitsAttended = "*2"
	digitsCancel   = "*3"
	digitsComplete = "*4"
	digitsMerge    = "*5"
	digitsSwap     = "*6"
)

// Digits returns the DTMF sequence for the command. Number is appended
// for the two commands that take a transfer target and ignored otherwise.
func (c Command) Digits(number string) string {
	switch c {
	case CommandBlind:
		return digitsBlind + number
	case CommandAttended:
		return digitsAttended + number
	case CommandCancel:
		return digitsCancel
	case CommandComplete:
		return digitsComplete
	case CommandMerge:
		return digitsMerge
	case CommandSwap:
		return digitsSwap
	default:
		return ""
	}
}

// TakesNumber reports whether the command requires a transfer target.
func (c Command) TakesNumber() bool {
	return c == CommandBlind || c == CommandAttended
}

// ParseCommand maps a wire name back to its Command.
func ParseCommand(s string) (Command, error) {
	switch s {
	case "blind":
		return CommandBlind, nil
	case "transfer":
		return CommandAttended, nil
	case "cancel":
		return CommandCancel, nil
	case "finish":
		return CommandComplete, nil
	case "merge":
		return CommandMerge, nil
	case "swap":
		return CommandSwap, nil
	}
	return 0, fmt.Errorf("unknown transfer command %q", s)
}

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// ResolveTarget picks the transfer target: typed digit-only operator
// input wins over a directory-picked number.
func ResolveTarget(typed, picked string) string {
	if digitsOnly.MatchString(typed) {
		return typed
	}
	return picked
}
