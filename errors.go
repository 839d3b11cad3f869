package ethabi

import (
	"github.com/pkg/errors"
)

/*
Canonical error kinds. Functions in this package wrap them with context via
"errors.Wrapf"; use "errors.Cause" (or "errors.Is") to find the kind:

	_, err := ethabi.ParseAbiType("uint7")
	if errors.Cause(err) == ethabi.ErrInvalidType {
		...
	}

All of them indicate a programming error or malformed upstream data, and none
of them are worth retrying.
*/
var (
	// Input can't be parsed as a decimal or hex numeral, or doesn't fit the
	// requested width.
	ErrInvalidNumber = errors.New("invalid number")

	// Input isn't well-formed hex where hex is required.
	ErrInvalidHex = errors.New("invalid hex")

	// Type signature can't be parsed, or has an unsupported width or arity.
	ErrInvalidType = errors.New("invalid type")

	// Binary payload is empty, truncated or malformed.
	ErrInvalidBytes = errors.New("invalid bytes")

	// Decoding was requested with zero output descriptors.
	ErrEmptyOutputs = errors.New("empty outputs array given")

	// Packed encoding got an array without an element type.
	ErrAmbiguousArrayType = errors.New("ambiguous array type")

	// Packed encoding got an array whose length doesn't match the arity.
	ErrInvalidArrayLength = errors.New("invalid array length")

	// Mixed-case address doesn't match its checksum.
	ErrChecksumMismatch = errors.New("address checksum mismatch")

	// Go value can't be represented as the requested ABI type.
	ErrTypeMismatch = errors.New("type mismatch")
)
