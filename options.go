package membuffer

import (
	"encoding/binary"

	"github.com/performancecopilot/membuffer/bytebuffer"
)

// DefaultChunkSize is the granularity storage grows by when none is configured
const DefaultChunkSize = 128

type options struct {
	startOffset int
	signed      bool
	chunkSize   int
	memoize     bool
	memoKey     func(Schema) string
	floatOrder  binary.ByteOrder
	zeroCopy    bool
	stats       bool
	creator     bytebuffer.Creator
}

func defaultOptions() options {
	return options{
		chunkSize:  DefaultChunkSize,
		memoize:    true,
		floatOrder: binary.LittleEndian,
	}
}

// Option configures a Buffer at construction
type Option interface {
	apply(opt *options)
}

type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(o *options) {
	fo.f(o)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{f: f}
}

// WithStartOffset places the cursor at n, clamped to the initial length
func WithStartOffset(n int) Option {
	return newFuncOption(func(o *options) {
		o.startOffset = n
	})
}

// WithSignedNumbers sets the signedness used by integer reads and writes that
// do not specify one
func WithSignedNumbers(signed bool) Option {
	return newFuncOption(func(o *options) {
		o.signed = signed
	})
}

// WithChunkSize sets the granularity of storage growth, non positive sizes
// select DefaultChunkSize
func WithChunkSize(n int) Option {
	return newFuncOption(func(o *options) {
		if n <= 0 {
			n = DefaultChunkSize
		}
		o.chunkSize = n
	})
}

// WithMemoize enables or disables caching of compiled schema handlers
func WithMemoize(enable bool) Option {
	return newFuncOption(func(o *options) {
		o.memoize = enable
	})
}

// WithMemoizeKey enables handler caching keyed by key instead of the
// structural form of the schema. Schemas for which key returns "" are not
// cached.
func WithMemoizeKey(key func(Schema) string) Option {
	return newFuncOption(func(o *options) {
		o.memoize = true
		o.memoKey = key
	})
}

// WithFloatByteOrder sets the byte order of float and double values that do
// not specify one
func WithFloatByteOrder(order binary.ByteOrder) Option {
	return newFuncOption(func(o *options) {
		if order == nil {
			order = binary.LittleEndian
		}
		o.floatOrder = order
	})
}

// WithZeroCopy makes ReadBytes and byte fields return views into the buffer
// instead of copies. A view is only valid until the next write or Clear.
func WithZeroCopy() Option {
	return newFuncOption(func(o *options) {
		o.zeroCopy = true
	})
}

// WithStats enables collection of read and write statistics
func WithStats() Option {
	return newFuncOption(func(o *options) {
		o.stats = true
	})
}

// WithStorage makes the buffer allocate its backing storage from c
func WithStorage(c bytebuffer.Creator) Option {
	return newFuncOption(func(o *options) {
		o.creator = c
	})
}
