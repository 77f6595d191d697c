package pickle

import (
	"encoding/binary"

	"github.com/rawbytedev/pickle/internal/common"
)

var zeroPadding [common.Alignment]byte

// buffer is the writer's backing store: a header region of fixed size
// followed by the payload. len(data) is the used length, cap(data) the
// allocated capacity.
type buffer struct {
	data       []byte
	headerSize int
}

func newBuffer(headerSize, payloadCap int) buffer {
	payloadCap = common.AlignInt(max(payloadCap, PayloadUnit), PayloadUnit)
	b := buffer{
		data:       make([]byte, headerSize, headerSize+payloadCap),
		headerSize: headerSize,
	}
	return b
}

func (b *buffer) payloadLen() int { return len(b.data) - b.headerSize }

func (b *buffer) payloadCap() int { return cap(b.data) - b.headerSize }

// ensureCapacity makes room for n more payload bytes. Capacity doubles
// until the bytes fit and is kept a multiple of PayloadUnit.
func (b *buffer) ensureCapacity(n int) {
	need := b.payloadLen() + n
	capacity := b.payloadCap()
	if need <= capacity {
		return
	}
	if capacity < PayloadUnit {
		capacity = PayloadUnit
	}
	for capacity < need {
		capacity *= 2
	}
	capacity = common.AlignInt(capacity, PayloadUnit)
	grown := make([]byte, len(b.data), b.headerSize+capacity)
	copy(grown, b.data)
	b.data = grown
}

// appendRaw copies p after the used region. No alignment is applied.
func (b *buffer) appendRaw(p []byte) {
	b.ensureCapacity(len(p))
	b.data = append(b.data, p...)
}

// padToAlignment appends zero bytes until the payload length is a multiple
// of common.Alignment. The header size is itself aligned, so this also
// aligns the absolute length.
func (b *buffer) padToAlignment() {
	if pad := common.PadLen(b.payloadLen()); pad > 0 {
		b.appendRaw(zeroPadding[:pad])
	}
}

// putUint32At patches a little-endian uint32 at a fixed offset from the
// start of the buffer. Offsets stay valid across growth.
func (b *buffer) putUint32At(off int, v uint32) {
	binary.LittleEndian.PutUint32(b.data[off:], v)
}

func (b *buffer) truncatePayload() {
	b.data = b.data[:b.headerSize]
}
