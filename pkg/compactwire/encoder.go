package compactwire

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/rawbytedev/pickle"
	"github.com/rawbytedev/pickle/internal/common"
	"github.com/valyala/bytebufferpool"
)

// EncodeDataFrame wraps a finished pickle in a data frame. With FlagZstd
// the body is compressed; the flag is dropped again when compression
// does not make the body smaller.
func EncodeDataFrame(p []byte, flags byte) ([]byte, error) {
	if flags&^knownFlags != 0 {
		return nil, errors.Wrapf(ErrFrameType, "unknown flags %#x", flags)
	}
	body := p
	if flags&FlagZstd != 0 {
		packed, err := compress(p)
		if err != nil {
			return nil, err
		}
		if len(packed) < len(p) {
			body = packed
		} else {
			flags &^= FlagZstd
		}
	}
	return encodeFrame(TypeData, flags, body)
}

// EncodeErrorFrame builds an error frame carrying code and msg.
func EncodeErrorFrame(code int32, msg string) ([]byte, error) {
	w := pickle.CreateEmpty()
	w.WriteInt(code)
	w.WriteString(msg)
	return encodeFrame(TypeError, 0, w.ToBuffer())
}

func encodeFrame(typ, flags byte, body []byte) ([]byte, error) {
	total, err := common.ToUint32(preambleSize + len(body) + crcSize)
	if err != nil {
		return nil, errors.Wrap(ErrFrameTooLarge, err.Error())
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.B = append(buf.B, magic0, magic1, typ)
	buf.B = binary.LittleEndian.AppendUint32(buf.B, total)
	buf.B = append(buf.B, flags)
	buf.B = append(buf.B, body...)
	buf.B = binary.LittleEndian.AppendUint32(buf.B, crc32.ChecksumIEEE(buf.B[2:]))

	// buf goes back to the pool
	return append(make([]byte, 0, len(buf.B)), buf.B...), nil
}

func compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, errors.Wrap(err, "zstd encoder")
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}
