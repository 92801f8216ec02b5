// Package bytebuffer implements the backing storage for a membuffer.Buffer
//
// the buffer itself only tracks a cursor and a logical length, the bytes live
// in a Storage that can be asked to grow to a given capacity. a Storage never
// shrinks on its own, the only way to give memory back is Reset
//
// two storages are provided, a plain heap slice and a memory mapped file, the
// latter being useful when the encoded data should survive the process or be
// shared with another one reading the same file
package bytebuffer

import "github.com/pkg/errors"

// ErrShrink is returned when a storage is asked to become smaller
var ErrShrink = errors.New("storage cannot shrink")

// Storage defines an abstraction for a growable region of bytes
type Storage interface {
	Bytes() []byte                    // the whole allocated region, len is the capacity
	Enlarge(size int) ([]byte, error) // grows to exactly size bytes preserving contents
	Reset() error                     // releases the region, capacity becomes 0
	Close() error                     // releases every resource held
}

// Creator creates Storage instances of an initial size
type Creator interface {
	New(size int) (Storage, error)
}

func checkEnlarge(current, size int) error {
	if size < current {
		return errors.Wrapf(ErrShrink, "from %d to %d bytes", current, size)
	}
	return nil
}
