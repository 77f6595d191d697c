package compactwire

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/rawbytedev/pickle"
	"go.uber.org/zap"
)

// Writer sends pickles as frames. It is safe for concurrent use; each
// frame is written with a single Write call.
type Writer struct {
	mu   sync.Mutex
	w    io.Writer
	opts Options
	log  *zap.Logger
}

func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{w: w, opts: opts, log: opts.logger()}
}

// WritePickle validates p as a pickle and sends it in a data frame.
// Bytes after the declared payload are not sent.
func (w *Writer) WritePickle(p []byte) error {
	pk, err := pickle.NewPickle(p, w.opts.Pickle)
	if err != nil {
		return err
	}
	var flags byte
	if w.opts.Compress {
		flags |= FlagZstd
	}
	frame, err := EncodeDataFrame(pk.Bytes(), flags)
	if err != nil {
		return err
	}
	if len(frame) > w.opts.maxFrameSize() {
		return errors.Wrapf(ErrFrameTooLarge, "frame is %d bytes, limit %d", len(frame), w.opts.maxFrameSize())
	}
	return w.write(frame, "data")
}

// WriteError sends an error frame.
func (w *Writer) WriteError(code int32, msg string) error {
	frame, err := EncodeErrorFrame(code, msg)
	if err != nil {
		return err
	}
	return w.write(frame, "error")
}

func (w *Writer) write(frame []byte, kind string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(frame); err != nil {
		return errors.Wrapf(err, "write %s frame", kind)
	}
	w.log.Debug("frame written",
		zap.String("type", kind),
		zap.Int("size", len(frame)),
		zap.Bool("zstd", frame[7]&FlagZstd != 0))
	return nil
}

// Reader receives frames written by Writer. It is not safe for
// concurrent use.
type Reader struct {
	r    io.Reader
	opts Options
	log  *zap.Logger
	head [preambleSize]byte
}

func NewReader(r io.Reader, opts Options) *Reader {
	return &Reader{r: r, opts: opts, log: opts.logger()}
}

// ReadPickle returns the pickle in the next frame. An error frame is
// returned as a *RemoteError. At a clean end of stream the error is
// io.EOF; a stream ending inside a frame gives io.ErrUnexpectedEOF.
// The returned pickle owns its bytes.
func (r *Reader) ReadPickle() (*pickle.Pickle, error) {
	frame, err := r.readFrame()
	if err != nil {
		return nil, err
	}
	switch frame[2] {
	case TypeData:
		body, _, err := decodeData(frame, r.opts.maxFrameSize())
		if err != nil {
			return nil, r.reject(err, len(frame))
		}
		p, err := pickle.NewPickle(body, r.opts.Pickle)
		if err != nil {
			return nil, r.reject(err, len(frame))
		}
		return p, nil
	case TypeError:
		remote, err := DecodeErrorFrame(frame)
		if err != nil {
			return nil, r.reject(err, len(frame))
		}
		return nil, remote
	default:
		return nil, r.reject(errors.Wrapf(ErrFrameType, "got %#x", frame[2]), len(frame))
	}
}

func (r *Reader) readFrame() ([]byte, error) {
	if _, err := io.ReadFull(r.r, r.head[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "frame preamble")
	}
	if r.head[0] != magic0 || r.head[1] != magic1 {
		return nil, r.reject(errors.Wrapf(ErrBadMagic, "got %q", r.head[:2]), 0)
	}
	size := uint64(binary.LittleEndian.Uint32(r.head[3:]))
	if size < MinFrameSize {
		return nil, r.reject(errors.Wrapf(ErrFrameLength, "declared %d bytes", size), int(size))
	}
	if size > uint64(r.opts.maxFrameSize()) {
		return nil, r.reject(errors.Wrapf(ErrFrameTooLarge,
			"declared %d bytes, limit %d", size, r.opts.maxFrameSize()), 0)
	}
	frame := make([]byte, size)
	copy(frame, r.head[:])
	if _, err := io.ReadFull(r.r, frame[preambleSize:]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrap(err, "frame body")
	}
	return frame, nil
}

func (r *Reader) reject(err error, size int) error {
	r.log.Debug("frame rejected", zap.Int("size", size), zap.Error(err))
	return err
}
