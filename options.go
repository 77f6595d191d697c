package pickle

import "github.com/pkg/errors"

const (
	// DefaultHeaderSize holds only the payload_size field.
	DefaultHeaderSize = 4
	// MaxHeaderSize bounds custom headers.
	MaxHeaderSize = 1024
	// PayloadUnit is the granularity of payload capacity.
	PayloadUnit = 64
)

// Options configures writers and readers. The zero value selects the
// default 4-byte header.
type Options struct {
	// HeaderSize is the full header width in bytes, payload_size included.
	// Must be a multiple of 4. Writer and reader must agree on it.
	HeaderSize int
	// InitialCapacity is the payload capacity a new Writer starts with.
	InitialCapacity int
	// UnsafeStrings makes ReadString return strings aliasing the pickle
	// bytes without copying; the caller must keep the bytes alive and unchanged.
	UnsafeStrings bool
}

func (o Options) headerSize() (int, error) {
	hs := o.HeaderSize
	if hs == 0 {
		return DefaultHeaderSize, nil
	}
	if hs < DefaultHeaderSize || hs > MaxHeaderSize || hs%4 != 0 {
		return 0, errors.Wrapf(ErrInvalidHeaderSize, "got %d", hs)
	}
	return hs, nil
}
