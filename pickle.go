// Package pickle packs primitive values into a compact, 4-byte aligned
// binary container and reads them back in the same order.
//
// A pickle is a header followed by a payload:
//
//	[payload_size u32 LE][header metadata...][payload...]
//
// The payload carries no type tags. Fixed-width values are stored little
// endian and zero padded to 4 bytes; data blobs and strings are prefixed
// with a uint32 element count. Readers must request values in exactly the
// order they were written.
//
//	w := pickle.CreateEmpty()
//	w.WriteBool(true)
//	w.WriteString("ok")
//
//	p, err := pickle.CreateFromBuffer(w.ToBuffer())
//	it := p.CreateIterator()
//	b, err := it.ReadBool()
//	s, err := it.ReadString()
package pickle

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Pickle is a read-only view over a finished pickle. The bytes are
// borrowed and never modified; a Pickle may be shared between goroutines.
type Pickle struct {
	data          []byte
	headerSize    int
	payloadSize   int
	unsafeStrings bool
}

// CreateFromBuffer validates the default header of b and returns a
// Pickle over it.
func CreateFromBuffer(b []byte) (*Pickle, error) {
	return NewPickle(b, Options{})
}

// NewPickle is CreateFromBuffer with explicit options.
func NewPickle(b []byte, opts Options) (*Pickle, error) {
	hs, err := opts.headerSize()
	if err != nil {
		return nil, err
	}
	size, err := parseHeader(b, hs)
	if err != nil {
		return nil, err
	}
	return &Pickle{
		data:          b[:hs+size : hs+size],
		headerSize:    hs,
		payloadSize:   size,
		unsafeStrings: opts.UnsafeStrings,
	}, nil
}

func parseHeader(b []byte, headerSize int) (int, error) {
	if len(b) < headerSize {
		return 0, errors.Wrapf(ErrMalformedHeader, "need %d header bytes, found %d", headerSize, len(b))
	}
	size := uint64(binary.LittleEndian.Uint32(b))
	if avail := uint64(len(b) - headerSize); size > avail {
		return 0, errors.Wrapf(ErrTruncatedPayload, "payload size %d, only %d bytes follow the header", size, avail)
	}
	return int(size), nil
}

// CreateIterator returns a new cursor positioned at the start of the payload.
func (p *Pickle) CreateIterator() *Iterator {
	return &Iterator{
		payload:       p.data[p.headerSize:],
		unsafeStrings: p.unsafeStrings,
	}
}

func (p *Pickle) HeaderSize() int  { return p.headerSize }
func (p *Pickle) PayloadSize() int { return p.payloadSize }

// Payload returns the payload bytes. The slice aliases the pickle and must not be modified.
func (p *Pickle) Payload() []byte { return p.data[p.headerSize:] }

// HeaderMetadata returns the header bytes following payload_size.
func (p *Pickle) HeaderMetadata() []byte { return p.data[DefaultHeaderSize:p.headerSize] }

// Bytes returns header and payload, without any trailing bytes of the original buffer.
func (p *Pickle) Bytes() []byte { return p.data }
