// Package errors defines all exported error sentinels for the streambloom library.
//
// Every blob decoding failure wraps ErrMalformedBlob and every rejected
// parameter wraps ErrInvalidArgument, so callers can branch on the two kinds
// with errors.Is while still seeing the specific cause.
package errors

import (
	"errors"
	"fmt"
)

// Error kinds
var (
	ErrInvalidArgument = errors.New("streambloom: invalid argument")
	ErrMalformedBlob   = errors.New("streambloom: malformed blob")
)

// Parameter errors
var (
	ErrZeroItems            = fmt.Errorf("%w: item count must be positive", ErrInvalidArgument)
	ErrFalsePositiveRange   = fmt.Errorf("%w: false positive rate must be in (0, 0.5]", ErrInvalidArgument)
	ErrConflictingHashHints = fmt.Errorf("%w: num_hashes and hash ratio are mutually exclusive", ErrInvalidArgument)
	ErrBadHashCount         = fmt.Errorf("%w: hash count out of range", ErrInvalidArgument)
	ErrBadHashRatio         = fmt.Errorf("%w: hash ratio must be positive", ErrInvalidArgument)
	ErrBadBitCount          = fmt.Errorf("%w: bit count out of range", ErrInvalidArgument)
	ErrUnknownHashScheme    = fmt.Errorf("%w: unknown hash scheme", ErrInvalidArgument)
)

// Blob errors
var (
	ErrTruncatedBlob       = fmt.Errorf("%w: shorter than header", ErrMalformedBlob)
	ErrInvalidMagic        = fmt.Errorf("%w: invalid magic number", ErrMalformedBlob)
	ErrInvalidVersion      = fmt.Errorf("%w: unsupported version", ErrMalformedBlob)
	ErrCorruptedHeader     = fmt.Errorf("%w: header fields out of range", ErrMalformedBlob)
	ErrBlobHashScheme      = fmt.Errorf("%w: unknown hash scheme", ErrMalformedBlob)
	ErrPayloadSizeMismatch = fmt.Errorf("%w: payload length disagrees with header", ErrMalformedBlob)
	ErrChecksumFailed      = fmt.Errorf("%w: payload checksum verification failed", ErrMalformedBlob)
)
