// Package errs defines the error-kind taxonomy shared by the cell, graph,
// engine and api packages (spec §7). A command that fails returns a *Error
// through its normal return value; the engine never panics on a caller
// mistake, only on internal invariants that valid input cannot trigger.
package errs

import "fmt"

// Kind classifies why a command failed.
type Kind int

const (
	// LookupMiss: unknown graph / gate / link / port / monitor id.
	LookupMiss Kind = iota
	// WidthMismatch: a logical/arithmetic op was given differently-sized
	// operands.
	WidthMismatch
	// UnsupportedEncoding: a constant-op width > 32, a literal outside its
	// radix, or similar encoding limit.
	UnsupportedEncoding
	// MissingInput: an operator did not receive a required named input.
	MissingInput
	// ParamMissing: gate parameters lacked a mandatory field for the chosen
	// cell type.
	ParamMissing
	// UnknownCellType: the gate's type string is not in the cell library.
	UnknownCellType
)

func (k Kind) String() string {
	switch k {
	case LookupMiss:
		return "LookupMiss"
	case WidthMismatch:
		return "WidthMismatch"
	case UnsupportedEncoding:
		return "UnsupportedEncoding"
	case MissingInput:
		return "MissingInput"
	case ParamMissing:
		return "ParamMissing"
	case UnknownCellType:
		return "UnknownCellType"
	default:
		return "Unknown"
	}
}

// Error is the typed failure returned by a command. Command is the name of
// the offending operation (e.g. "addGate", "And.Eval"), used by the host to
// correlate the failure with the request that caused it.
type Error struct {
	Kind    Kind
	Command string
	Msg     string
}

func (e *Error) Error() string {
	if e.Command == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Command, e.Msg)
}

// New builds an *Error of the given kind.
func New(kind Kind, command, format string, args ...any) *Error {
	return &Error{Kind: kind, Command: command, Msg: fmt.Sprintf(format, args...)}
}
