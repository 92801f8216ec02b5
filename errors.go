package membuffer

import (
	"strconv"

	"github.com/performancecopilot/membuffer/codec"
	"github.com/pkg/errors"
)

// error kinds, every error returned by a Buffer wraps one of these
var (
	ErrOutOfBounds       = errors.New("out of bounds")
	ErrUnknownSchemaType = errors.New("unknown schema type")
	ErrInvalidSchema     = errors.New("invalid schema")
	ErrMissingField      = errors.New("missing field")
	ErrTypeMismatch      = errors.New("value does not match schema type")
	ErrEncodingOverflow  = codec.ErrOverflow
	ErrInvalidText       = codec.ErrInvalidText
	ErrInvalidWidth      = codec.ErrWidth
)

// Error describes a failed buffer operation
type Error struct {
	Op     string // operation that failed
	Offset int    // cursor position the failing step started at, -1 if none
	Field  string // field path inside a schema, empty outside of one
	Err    error
}

func (e *Error) Error() string {
	s := "membuffer: " + e.Op
	if e.Field != "" {
		s += " " + e.Field
	}
	if e.Offset >= 0 {
		s += " at offset " + strconv.Itoa(e.Offset)
	}
	return s + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error { return e.Err }

// Cause returns the underlying error for errors.Cause
func (e *Error) Cause() error { return e.Err }

func newError(op string, offset int, err error) error {
	return &Error{Op: op, Offset: offset, Err: err}
}

// fieldError attaches field to the path of err
func fieldError(err error, field, op string, offset int) error {
	if e, ok := err.(*Error); ok {
		return &Error{Op: e.Op, Offset: e.Offset, Field: joinField(field, e.Field), Err: e.Err}
	}
	return &Error{Op: op, Offset: offset, Field: field, Err: err}
}

func joinField(parent, child string) string {
	switch {
	case child == "":
		return parent
	case child[0] == '[':
		return parent + child
	}
	return parent + "." + child
}

func indexField(i int) string { return "[" + strconv.Itoa(i) + "]" }
