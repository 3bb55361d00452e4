package table

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyRows is returned by AddRow once the declared row count was
	// reached.
	ErrTooManyRows = errors.New("table: more rows than declared")
	// ErrRowCountMismatch is returned by Build when fewer rows than declared
	// were added.
	ErrRowCountMismatch = errors.New("table: row count mismatch")
	// ErrTooManyValues is returned by AddRow for rows wider than the schema.
	ErrTooManyValues = errors.New("table: more values than columns")
	// ErrSchemaFrozen is returned when columns are added after the first row.
	ErrSchemaFrozen = errors.New("table: schema is frozen")
	// ErrBuilderState is returned by operations invalid in the builder's
	// current state.
	ErrBuilderState = errors.New("table: invalid builder state")
	// ErrTableTooLarge is returned when a row table exceeds 32-bit offsets.
	ErrTableTooLarge = errors.New("table: table exceeds 4 GiB")

	ErrInvalidVersion     = errors.New("table: unsupported format version")
	ErrInvalidOrientation = errors.New("table: invalid orientation")
	ErrCorruptTable       = errors.New("table: corrupt table")
	ErrUnknownColumnType  = errors.New("table: unknown column type")

	// ErrOutOfRange is returned for row or column indices past the end.
	ErrOutOfRange = errors.New("table: index out of range")
	// ErrClosed is returned by reads on a closed table.
	ErrClosed = errors.New("table: closed")
)

// EncodingError reports a value its column cannot encode.
type EncodingError struct {
	Column uint32
	Type   ColumnType
	Value  any
	cause  error
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("table: column %d (%s) cannot encode %T", e.Column, e.Type, e.Value)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *EncodingError) Unwrap() error { return e.cause }

// ProtocolError reports misuse of the builder. It wraps the matching
// sentinel.
type ProtocolError struct {
	Op    string
	State string
	cause error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("table: %s in state %s: %v", e.Op, e.State, e.cause)
}

func (e *ProtocolError) Unwrap() error { return e.cause }
