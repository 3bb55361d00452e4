package tabula

import (
	"errors"

	"github.com/hupe1980/tabula/blobstore"
	"github.com/hupe1980/tabula/buffer"
	"github.com/hupe1980/tabula/resource"
	"github.com/hupe1980/tabula/table"
	"github.com/hupe1980/tabula/tensor"
)

// ErrClosed is returned by operations on a closed Context.
var ErrClosed = errors.New("tabula: context closed")

// Errors from the sub-packages, re-exported for matching with errors.Is.
var (
	ErrTooManyRows        = table.ErrTooManyRows
	ErrRowCountMismatch   = table.ErrRowCountMismatch
	ErrTooManyValues      = table.ErrTooManyValues
	ErrSchemaFrozen       = table.ErrSchemaFrozen
	ErrBuilderState       = table.ErrBuilderState
	ErrTableTooLarge      = table.ErrTableTooLarge
	ErrInvalidVersion     = table.ErrInvalidVersion
	ErrInvalidOrientation = table.ErrInvalidOrientation
	ErrCorruptTable       = table.ErrCorruptTable
	ErrUnknownColumnType  = table.ErrUnknownColumnType
	ErrCorruptFrame       = buffer.ErrCorruptFrame
	ErrStaleHandle        = tensor.ErrStaleHandle
	ErrPoolClosed         = tensor.ErrPoolClosed
	ErrMemoryLimit        = resource.ErrMemoryLimitExceeded
	ErrNotFound           = blobstore.ErrNotFound
)

// EncodingError reports a value its column cannot encode.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type EncodingError = table.EncodingError

// ProtocolError reports misuse of a table builder.
type ProtocolError = table.ProtocolError

// StaleHandleError describes a tensor handle whose block was recycled.
type StaleHandleError = tensor.StaleHandleError
