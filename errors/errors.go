// Package errors defines all exported error sentinels for the minisketch library.
//
// This is the single source of truth for error values. Both the top-level
// minisketch package and the internal packages import from here, so
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Pipeline errors.
//
// Every misuse of the sketching core (bad configuration, undersized buffers)
// surfaces as ErrPrecondition wrapped with a diagnostic message.
var (
	ErrPrecondition = errors.New("minisketch: pipeline precondition violated")
)

// File errors (packed sequence and sketch files)
var (
	ErrInvalidMagic    = errors.New("minisketch: invalid magic number")
	ErrInvalidVersion  = errors.New("minisketch: unsupported version")
	ErrChecksumFailed  = errors.New("minisketch: file checksum verification failed")
	ErrTruncatedFile   = errors.New("minisketch: file is truncated")
	ErrCorruptedFile   = errors.New("minisketch: file data is corrupted")
	ErrFileClosed      = errors.New("minisketch: file is closed")
	ErrWriterClosed    = errors.New("minisketch: writer is closed")
	ErrRecordIDTooLong = errors.New("minisketch: record id exceeds maximum length (65535 bytes)")
	ErrParamMismatch   = errors.New("minisketch: sketch parameters do not match the file")
)
