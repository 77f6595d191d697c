package compactwire

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/rawbytedev/pickle"
)

// DecodeDataFrame validates a data frame and returns the pickle it
// carries, decompressed if needed, along with the frame flags. An
// uncompressed result aliases frame.
func DecodeDataFrame(frame []byte) ([]byte, byte, error) {
	return decodeData(frame, DefaultMaxFrameSize)
}

// DecodeErrorFrame validates an error frame and returns its content.
func DecodeErrorFrame(frame []byte) (*RemoteError, error) {
	typ, _, body, err := decodeFrame(frame)
	if err != nil {
		return nil, err
	}
	if typ != TypeError {
		return nil, errors.Wrapf(ErrFrameType, "got %#x, want error frame", typ)
	}
	return decodeRemoteError(body)
}

func decodeData(frame []byte, maxSize int) ([]byte, byte, error) {
	typ, flags, body, err := decodeFrame(frame)
	if err != nil {
		return nil, 0, err
	}
	if typ != TypeData {
		return nil, 0, errors.Wrapf(ErrFrameType, "got %#x, want data frame", typ)
	}
	if flags&^knownFlags != 0 {
		return nil, 0, errors.Wrapf(ErrFrameType, "unknown flags %#x", flags)
	}
	if flags&FlagZstd != 0 {
		body, err = decompress(body, maxSize)
		if err != nil {
			return nil, 0, err
		}
	}
	return body, flags, nil
}

// decodeFrame checks the envelope and returns the body, aliasing frame.
func decodeFrame(frame []byte) (typ, flags byte, body []byte, err error) {
	if len(frame) < MinFrameSize {
		return 0, 0, nil, errors.Wrapf(ErrFrameLength,
			"expected at least %d bytes, found %d", MinFrameSize, len(frame))
	}
	if frame[0] != magic0 || frame[1] != magic1 {
		return 0, 0, nil, errors.Wrapf(ErrBadMagic, "got %q", frame[:2])
	}
	if n := binary.LittleEndian.Uint32(frame[3:]); uint64(n) != uint64(len(frame)) {
		return 0, 0, nil, errors.Wrapf(ErrFrameLength, "header says %d, found %d", n, len(frame))
	}
	end := len(frame) - crcSize
	if got, want := crc32.ChecksumIEEE(frame[2:end]), binary.LittleEndian.Uint32(frame[end:]); got != want {
		return 0, 0, nil, errors.Wrapf(ErrChecksum, "computed %08x, frame has %08x", got, want)
	}
	return frame[2], frame[7], frame[preambleSize:end], nil
}

func decodeRemoteError(body []byte) (*RemoteError, error) {
	p, err := pickle.CreateFromBuffer(body)
	if err != nil {
		return nil, errors.Wrap(err, "error frame body")
	}
	it := p.CreateIterator()
	code, err := it.ReadInt()
	if err != nil {
		return nil, errors.Wrap(err, "error frame code")
	}
	msg, err := it.ReadString()
	if err != nil {
		return nil, errors.Wrap(err, "error frame message")
	}
	return &RemoteError{Code: code, Message: msg}, nil
}

func decompress(body []byte, maxSize int) ([]byte, error) {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(uint64(maxSize)))
	if err != nil {
		return nil, errors.Wrap(err, "zstd decoder")
	}
	defer dec.Close()
	out, err := dec.DecodeAll(body, nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd body")
	}
	if len(out) > maxSize {
		return nil, errors.Wrapf(ErrFrameTooLarge, "decompressed body is %d bytes, limit %d", len(out), maxSize)
	}
	return out, nil
}
