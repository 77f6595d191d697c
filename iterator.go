package pickle

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/rawbytedev/pickle/internal/common"
)

// Iterator reads values from a pickle payload in write order. It is
// single-pass and not safe for concurrent use; create one iterator per
// reader with Pickle.CreateIterator.
//
// After a failed read the cursor moves to the end of the payload, so
// every following read fails with ErrOutOfRange as well.
type Iterator struct {
	payload       []byte
	readIndex     int
	unsafeStrings bool
}

// Remaining returns the number of unread payload bytes.
func (it *Iterator) Remaining() int { return len(it.payload) - it.readIndex }

// Done reports whether the whole payload has been consumed.
func (it *Iterator) Done() bool { return it.readIndex >= len(it.payload) }

// Skip advances past n bytes plus their alignment padding.
func (it *Iterator) Skip(n int) error {
	_, err := it.next(n, "skip")
	return err
}

func (it *Iterator) ReadBool() (bool, error) {
	v, err := it.ReadUInt32()
	return v != 0, err
}

func (it *Iterator) ReadInt16() (int16, error) {
	v, err := it.ReadUInt16()
	return int16(v), err
}

func (it *Iterator) ReadUInt16() (uint16, error) {
	b, err := it.next(2, "uint16")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt reads a 32-bit signed integer.
func (it *Iterator) ReadInt() (int32, error) {
	v, err := it.ReadUInt32()
	return int32(v), err
}

func (it *Iterator) ReadUInt32() (uint32, error) {
	b, err := it.next(4, "uint32")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (it *Iterator) ReadInt64() (int64, error) {
	v, err := it.ReadUInt64()
	return int64(v), err
}

func (it *Iterator) ReadUInt64() (uint64, error) {
	b, err := it.next(8, "uint64")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (it *Iterator) ReadFloat() (float32, error) {
	v, err := it.ReadUInt32()
	return math.Float32frombits(v), err
}

func (it *Iterator) ReadDouble() (float64, error) {
	v, err := it.ReadUInt64()
	return math.Float64frombits(v), err
}

// ReadData reads a length-prefixed blob. The result aliases the pickle bytes.
func (it *Iterator) ReadData() ([]byte, error) {
	n, err := it.readLength("data", 1)
	if err != nil {
		return nil, err
	}
	return it.next(n, "data")
}

// ReadBytes reads exactly n bytes written by Writer.WriteBytes. The
// result aliases the pickle bytes.
func (it *Iterator) ReadBytes(n int) ([]byte, error) {
	return it.next(n, "bytes")
}

// ReadString reads a UTF-8 string prefixed with its byte count.
func (it *Iterator) ReadString() (string, error) {
	n, err := it.readLength("string", 1)
	if err != nil {
		return "", err
	}
	b, err := it.next(n, "string")
	if err != nil {
		return "", err
	}
	if it.unsafeStrings && len(b) > 0 {
		return unsafe.String(&b[0], len(b)), nil
	}
	return string(b), nil
}

// ReadString16 reads a UTF-16 string prefixed with its code-unit count.
func (it *Iterator) ReadString16() (string, error) {
	n, err := it.readLength("string16", 2)
	if err != nil {
		return "", err
	}
	b, err := it.next(n, "string16")
	if err != nil {
		return "", err
	}
	return common.DecodeUTF16(b), nil
}

// readLength reads a uint32 element count and returns the byte length of
// the elements, checked against the remaining payload before any slicing.
func (it *Iterator) readLength(what string, unit uint64) (int, error) {
	count, err := it.ReadUInt32()
	if err != nil {
		return 0, errors.Wrapf(err, "%s length", what)
	}
	size := uint64(count) * unit
	if rem := uint64(it.Remaining()); size > rem {
		it.readIndex = len(it.payload)
		return 0, errors.Wrapf(ErrOutOfRange,
			"%s declares %d bytes, found %d", what, size, rem)
	}
	return int(size), nil
}

// next returns the following n bytes and advances the cursor by n rounded
// up to the alignment, clamped to the end of the payload.
func (it *Iterator) next(n int, what string) ([]byte, error) {
	rem := it.Remaining()
	if n < 0 || n > rem {
		it.readIndex = len(it.payload)
		return nil, errors.Wrapf(ErrOutOfRange,
			"not enough bytes to read %s, expected at least %d, found %d", what, n, rem)
	}
	b := it.payload[it.readIndex : it.readIndex+n : it.readIndex+n]
	if aligned := common.AlignInt(n, common.Alignment); aligned > rem {
		it.readIndex = len(it.payload)
	} else {
		it.readIndex += aligned
	}
	return b, nil
}
