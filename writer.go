package pickle

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/rawbytedev/pickle/internal/common"
)

// Writer builds a pickle by appending values in a fixed order. A Writer
// is owned by a single caller; it is not safe for concurrent use.
//
// Every write leaves the payload length a multiple of 4 and patches the
// payload_size field at offset 0 of the header.
type Writer struct {
	buf buffer
}

// CreateEmpty returns a Writer with the default header and an empty payload.
func CreateEmpty() *Writer {
	w, _ := NewWriter(Options{})
	return w
}

// NewWriter returns an empty Writer configured by opts.
func NewWriter(opts Options) (*Writer, error) {
	hs, err := opts.headerSize()
	if err != nil {
		return nil, err
	}
	w := &Writer{buf: newBuffer(hs, opts.InitialCapacity)}
	w.setPayloadSize()
	return w, nil
}

// CreateFromExistingBuffer returns a Writer that continues appending to
// the pickle held in b. b is copied.
func CreateFromExistingBuffer(b []byte) (*Writer, error) {
	return NewWriterFromBuffer(b, Options{})
}

// NewWriterFromBuffer is CreateFromExistingBuffer with explicit options.
// Bytes after the declared payload are dropped.
func NewWriterFromBuffer(b []byte, opts Options) (*Writer, error) {
	hs, err := opts.headerSize()
	if err != nil {
		return nil, err
	}
	size, err := parseHeader(b, hs)
	if err != nil {
		return nil, err
	}
	if size%common.Alignment != 0 {
		return nil, errors.Wrapf(ErrMalformedHeader, "payload size %d is not %d-byte aligned", size, common.Alignment)
	}
	w := &Writer{buf: newBuffer(hs, max(size, opts.InitialCapacity))}
	copy(w.buf.data, b[:hs])
	w.buf.appendRaw(b[hs : hs+size])
	return w, nil
}

// HeaderSize returns the header width in bytes.
func (w *Writer) HeaderSize() int { return w.buf.headerSize }

// PayloadSize returns the number of payload bytes written so far.
func (w *Writer) PayloadSize() int { return w.buf.payloadLen() }

// Cap returns the current payload capacity.
func (w *Writer) Cap() int { return w.buf.payloadCap() }

// Payload returns a copy of the payload bytes.
func (w *Writer) Payload() []byte {
	return append([]byte(nil), w.buf.data[w.buf.headerSize:]...)
}

// SetHeaderMetadata copies p into the header bytes following payload_size.
// Unused metadata bytes are zeroed.
func (w *Writer) SetHeaderMetadata(p []byte) error {
	meta := w.buf.data[DefaultHeaderSize:w.buf.headerSize]
	if len(p) > len(meta) {
		return errors.Wrapf(ErrTooLarge, "metadata of %d bytes, header holds %d", len(p), len(meta))
	}
	n := copy(meta, p)
	clear(meta[n:])
	return nil
}

// Reset discards the payload and keeps the allocated capacity and header metadata.
func (w *Writer) Reset() {
	w.buf.truncatePayload()
	w.setPayloadSize()
}

// ToBuffer returns a copy of the finished pickle, exactly header plus
// payload bytes. Later writes do not affect the returned slice.
func (w *Writer) ToBuffer() []byte {
	return append(make([]byte, 0, len(w.buf.data)), w.buf.data...)
}

func (w *Writer) WriteBool(v bool) {
	var u uint32
	if v {
		u = 1
	}
	w.WriteUInt32(u)
}

func (w *Writer) WriteInt16(v int16) { w.WriteUInt16(uint16(v)) }

func (w *Writer) WriteUInt16(v uint16) {
	var scratch [2]byte
	binary.LittleEndian.PutUint16(scratch[:], v)
	w.writeAligned(scratch[:])
}

// WriteInt writes a 32-bit signed integer.
func (w *Writer) WriteInt(v int32) { w.WriteUInt32(uint32(v)) }

func (w *Writer) WriteUInt32(v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	w.writeAligned(scratch[:])
}

func (w *Writer) WriteInt64(v int64) { w.WriteUInt64(uint64(v)) }

func (w *Writer) WriteUInt64(v uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	w.writeAligned(scratch[:])
}

// WriteFloat writes an IEEE-754 single.
func (w *Writer) WriteFloat(v float32) { w.WriteUInt32(math.Float32bits(v)) }

// WriteDouble writes an IEEE-754 double.
func (w *Writer) WriteDouble(v float64) { w.WriteUInt64(math.Float64bits(v)) }

// WriteData writes p prefixed with its byte count.
func (w *Writer) WriteData(p []byte) {
	w.writePrefix(len(p))
	w.writeAligned(p)
}

// WriteBytes writes p without a length prefix; the reader must know len(p).
func (w *Writer) WriteBytes(p []byte) {
	w.writeAligned(p)
}

// WriteString writes s as UTF-8 prefixed with its encoded byte count.
func (w *Writer) WriteString(s string) {
	w.writePrefix(len(s))
	w.buf.ensureCapacity(len(s) + common.PadLen(len(s)))
	w.buf.data = append(w.buf.data, s...)
	w.buf.padToAlignment()
	w.setPayloadSize()
}

// WriteString16 writes s as little-endian UTF-16 prefixed with its code-unit count.
func (w *Writer) WriteString16(s string) {
	units, n := common.AppendUTF16(nil, s)
	w.writePrefix(n)
	w.writeAligned(units)
}

func (w *Writer) writePrefix(n int) {
	l, err := common.ToUint32(n)
	if err != nil {
		panic(errors.Wrapf(ErrTooLarge, "length %d", n))
	}
	w.WriteUInt32(l)
}

func (w *Writer) writeAligned(p []byte) {
	w.buf.ensureCapacity(len(p) + common.PadLen(len(p)))
	w.buf.appendRaw(p)
	w.buf.padToAlignment()
	w.setPayloadSize()
}

// setPayloadSize always addresses the header by offset, never through a
// slice kept across a write, so reallocation cannot leave it stale.
func (w *Writer) setPayloadSize() {
	size, err := common.ToUint32(w.buf.payloadLen())
	if err != nil {
		panic(errors.Wrapf(ErrTooLarge, "payload of %d bytes", w.buf.payloadLen()))
	}
	w.buf.putUint32At(0, size)
}
