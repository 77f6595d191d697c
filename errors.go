package pickle

import "errors"

var (
	// ErrMalformedHeader reports bytes too short to hold a header or a
	// header that cannot be continued.
	ErrMalformedHeader = errors.New("pickle: malformed header")
	// ErrTruncatedPayload reports a declared payload size larger than the bytes supplied.
	ErrTruncatedPayload = errors.New("pickle: truncated payload")
	// ErrOutOfRange reports a read past the end of the payload.
	ErrOutOfRange = errors.New("pickle: read out of range")
	// ErrTooLarge reports a value whose length does not fit a uint32 prefix.
	ErrTooLarge = errors.New("pickle: value too large")
	// ErrInvalidHeaderSize reports a header size that is not a positive multiple of 4.
	ErrInvalidHeaderSize = errors.New("pickle: invalid header size")

	ErrNotStruct    = errors.New("pickle: expected struct")
	ErrNotStructPtr = errors.New("pickle: expected pointer to struct")
	ErrUnsupported  = errors.New("pickle: unsupported type")
	ErrOverflow     = errors.New("pickle: value overflows field")
)
