// Package compactwire frames pickles for byte streams.
//
// Every frame is
//
//	[magic "PK"][type u8][length u32 LE][flags u8][body...][crc32 u32 LE]
//
// where length counts the whole frame, magic and checksum included, and
// the IEEE CRC-32 covers everything from type through the end of body.
// A data frame body is a pickle, zstd-compressed when FlagZstd is set.
// An error frame body is a pickle holding an int32 code and a string.
package compactwire

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rawbytedev/pickle"
	"go.uber.org/zap"
)

const (
	TypeData  byte = 0x01
	TypeError byte = 0x02
)

// FlagZstd marks a zstd-compressed data frame body.
const FlagZstd byte = 1 << 0

const knownFlags = FlagZstd

const (
	magic0 = 'P'
	magic1 = 'K'

	preambleSize = 8 // magic, type, length, flags
	crcSize      = 4
	MinFrameSize = preambleSize + crcSize

	// DefaultMaxFrameSize bounds both encoded frames and decompressed bodies.
	DefaultMaxFrameSize = 16 << 20
)

var (
	ErrBadMagic      = errors.New("compactwire: bad magic")
	ErrFrameType     = errors.New("compactwire: unexpected frame type")
	ErrFrameLength   = errors.New("compactwire: frame length mismatch")
	ErrChecksum      = errors.New("compactwire: checksum mismatch")
	ErrFrameTooLarge = errors.New("compactwire: frame too large")
)

// RemoteError is the content of an error frame.
type RemoteError struct {
	Code    int32
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("compactwire: remote error %d: %s", e.Code, e.Message)
}

// Options configures stream readers and writers.
type Options struct {
	// Logger receives debug events for written and rejected frames.
	Logger *zap.Logger
	// MaxFrameSize caps incoming frames and decompressed bodies. Zero
	// selects DefaultMaxFrameSize.
	MaxFrameSize int
	// Compress sends data frames with FlagZstd when it shrinks the body.
	Compress bool
	// Pickle selects the header layout of carried pickles.
	Pickle pickle.Options
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) maxFrameSize() int {
	if o.MaxFrameSize <= 0 {
		return DefaultMaxFrameSize
	}
	return o.MaxFrameSize
}
