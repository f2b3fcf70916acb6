// Package gsferrors defines the error taxonomy shared by the ssb, grain,
// gsf and gsfcompare packages. Every sentinel here is returned wrapped
// with fmt.Errorf("...: %w", ...) by its origin, never bare, so callers
// can use errors.Is/errors.As while still getting a useful message.
package gsferrors

import "errors"

// Decode-time errors.
var (
	// ErrUnsupportedSignature the file does not begin with "SSBB".
	ErrUnsupportedSignature = errors.New("unsupported signature")

	// ErrWrongFileType the SSB file-type tag is not the expected one.
	ErrWrongFileType = errors.New("wrong file type")

	// ErrUnsupportedMajorVersion the major version is outside the reader's supported set.
	ErrUnsupportedMajorVersion = errors.New("unsupported major version")

	// ErrTruncatedInput end of stream before a declared block/payload ended.
	ErrTruncatedInput = errors.New("truncated input")

	// ErrMalformedBlock a size field underflows the header, a child exceeds its
	// parent's bounds, a UTF-8 decode error, or out of range nanoseconds.
	ErrMalformedBlock = errors.New("malformed block")

	// ErrDuplicateLocalID two segm entries in the same file share a local_id.
	ErrDuplicateLocalID = errors.New("duplicate local id")

	// ErrUnknownLocalID a grai's local_id names no declared segment (strict mode).
	ErrUnknownLocalID = errors.New("unknown local id")

	// ErrTruncatedPayload a grdt shorter than implied by the variant.
	ErrTruncatedPayload = errors.New("truncated payload")
)

// Encode-time errors.
var (
	// ErrValueOutOfRange a value exceeds on-wire limits on encode.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrEncoderState a method was called in the wrong encoder phase.
	ErrEncoderState = errors.New("invalid encoder state")
)

// Comparator structural errors.
var (
	// ErrGrainTypeMismatch the two grains compared are not the same variant.
	ErrGrainTypeMismatch = errors.New("grain type mismatch")
)
