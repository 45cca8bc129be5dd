package solver

import (
	"errors"
	"fmt"
)

// Kind classifies a solving failure.
type Kind string

const (
	// KindTransport covers network and HTTP failures of the completion call.
	KindTransport Kind = "transport"
	// KindParse covers model text that does not decode into the schema.
	KindParse Kind = "parse"
	// KindValidation covers responses that decode but carry no usable content.
	KindValidation Kind = "validation"
)

// Error is the typed failure surfaced by the parser and the gateway.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" when err is not a solver Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
