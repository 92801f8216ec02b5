package membuffer

import (
	"github.com/performancecopilot/membuffer/bytebuffer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Buffer is a growable byte region with a single cursor used by both reads
// and writes
//
// a Buffer is not safe for concurrent use, callers sharing one must guard the
// whole instance with a mutex
type Buffer struct {
	opts     options
	storage  bytebuffer.Storage
	data     []byte // storage.Bytes(), len(data) is the capacity
	length   int    // bytes written or supplied initially
	offset   int
	handlers *handlerCache
	stats    *Stats
}

// New creates a Buffer holding a copy of initial
func New(initial []byte, opts ...Option) (*Buffer, error) {
	o := defaults
	for _, opt := range opts {
		opt.apply(&o)
	}

	if o.creator == nil {
		o.creator = bytebuffer.HeapCreator{}
	}

	storage, err := o.creator.New(roundUp(len(initial), o.chunkSize))
	if err != nil {
		return nil, errors.Wrap(err, "cannot create buffer storage")
	}

	b := &Buffer{
		opts:    o,
		storage: storage,
		data:    storage.Bytes(),
		length:  len(initial),
	}
	copy(b.data, initial)

	b.offset = o.startOffset
	if b.offset < 0 {
		b.offset = 0
	}
	if b.offset > b.length {
		b.offset = b.length
	}

	if o.memoize {
		b.handlers = newHandlerCache(o.memoKey)
	}

	if o.stats {
		b.stats = newStats()
	}

	return b, nil
}

// MustNew is a New that panics on failure
func MustNew(initial []byte, opts ...Option) *Buffer {
	b, err := New(initial, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// roundUp returns the smallest multiple of chunk not below n
func roundUp(n, chunk int) int {
	if n <= 0 {
		return 0
	}
	return (n + chunk - 1) / chunk * chunk
}

// Offset returns the current cursor position
func (b *Buffer) Offset() int { return b.offset }

// Len returns the logical length, the number of valid bytes
func (b *Buffer) Len() int { return b.length }

// Cap returns the capacity of the backing storage
func (b *Buffer) Cap() int { return len(b.data) }

// Remaining returns the number of valid bytes after the cursor
func (b *Buffer) Remaining() int { return b.length - b.offset }

// Bytes returns a copy of the valid bytes
func (b *Buffer) Bytes() []byte {
	out := make([]byte, b.length)
	copy(out, b.data[:b.length])
	return out
}

// Skip moves the cursor n bytes from its current position, n may be negative
func (b *Buffer) Skip(n int) error {
	return b.SkipFrom(b.offset, n)
}

// SkipFrom moves the cursor to start and then n bytes further, a negative
// start means the current position
func (b *Buffer) SkipFrom(start, n int) error {
	if start < 0 {
		start = b.offset
	}

	target := start + n
	if target < 0 || target > b.length {
		return newError("skip", b.offset, errors.Wrapf(ErrOutOfBounds, "target %d outside [0, %d]", target, b.length))
	}

	b.offset = target
	return nil
}

// MustSkip is a Skip that panics on failure
func (b *Buffer) MustSkip(n int) {
	if err := b.Skip(n); err != nil {
		panic(err)
	}
}

// Resume moves the cursor back to the start
func (b *Buffer) Resume() *Buffer {
	b.offset = 0
	return b
}

// ResumeAt moves the cursor to start, a negative start means 0
func (b *Buffer) ResumeAt(start int) error {
	if start < 0 {
		start = 0
	}

	if start > b.length {
		return newError("resume", b.offset, errors.Wrapf(ErrOutOfBounds, "start %d past length %d", start, b.length))
	}

	b.offset = start
	return nil
}

// MustResumeAt is a ResumeAt that panics on failure
func (b *Buffer) MustResumeAt(start int) {
	if err := b.ResumeAt(start); err != nil {
		panic(err)
	}
}

// Clear empties the buffer and releases its storage
func (b *Buffer) Clear() error {
	b.offset, b.length = 0, 0

	if err := b.storage.Reset(); err != nil {
		return errors.Wrap(err, "cannot release buffer storage")
	}
	b.data = b.storage.Bytes()

	if logging {
		logger.Info("cleared buffer", zap.String("module", "buffer"))
	}

	return nil
}

// Close releases the backing storage, the Buffer must not be used afterwards
func (b *Buffer) Close() error {
	b.offset, b.length, b.data = 0, 0, nil
	return b.storage.Close()
}

// span consumes n valid bytes at the cursor and returns them without copying
func (b *Buffer) span(op string, n int) ([]byte, error) {
	if n < 0 || n > b.length-b.offset {
		return nil, newError(op, b.offset, errors.Wrapf(ErrOutOfBounds, "%d bytes requested, %d remaining", n, b.length-b.offset))
	}

	s := b.data[b.offset : b.offset+n : b.offset+n]
	b.offset += n
	b.stats.read(n)

	return s, nil
}

// ReadBytes reads n bytes, returning a copy unless the buffer was built
// WithZeroCopy
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	s, err := b.span("read bytes", n)
	if err != nil {
		return nil, err
	}

	if b.opts.zeroCopy {
		return s, nil
	}

	out := make([]byte, n)
	copy(out, s)
	return out, nil
}

// grow makes room for n bytes at the cursor
func (b *Buffer) grow(n int) error {
	need := b.offset + n
	if need <= len(b.data) {
		return nil
	}

	size := roundUp(need, b.opts.chunkSize)
	data, err := b.storage.Enlarge(size)
	if err != nil {
		b.refresh()
		return errors.Wrapf(err, "cannot grow storage to %d bytes", size)
	}

	if logging {
		logger.Info("enlarged buffer storage",
			zap.String("module", "buffer"),
			zap.Int("from", len(b.data)),
			zap.Int("to", size),
		)
	}

	b.data = data
	b.stats.grow()

	return nil
}

// refresh picks up the current storage region after a failed Enlarge, a
// storage may have released the region the buffer still points into
func (b *Buffer) refresh() {
	b.data = b.storage.Bytes()
	if b.length > len(b.data) {
		b.length = len(b.data)
	}
	if b.offset > b.length {
		b.offset = b.length
	}
}

// WriteBytes writes p at the cursor, growing the storage as needed
func (b *Buffer) WriteBytes(p []byte) error {
	return b.writeSpan("write bytes", p)
}

// MustWriteBytes is a WriteBytes that panics on failure
func (b *Buffer) MustWriteBytes(p []byte) {
	if err := b.WriteBytes(p); err != nil {
		panic(err)
	}
}

func (b *Buffer) writeSpan(op string, p []byte) error {
	if err := b.grow(len(p)); err != nil {
		return newError(op, b.offset, err)
	}

	copy(b.data[b.offset:], p)
	b.offset += len(p)
	if b.offset > b.length {
		b.length = b.offset
	}
	b.stats.write(len(p))

	return nil
}

type mark struct {
	offset, length int
}

func (b *Buffer) snapshot() mark { return mark{b.offset, b.length} }

// reset rewinds the cursor and logical length to m, bytes overwritten in
// between are not restored
func (b *Buffer) reset(m mark) {
	b.offset, b.length = m.offset, m.length
	if len(b.data) < b.length {
		b.refresh()
	}
}
