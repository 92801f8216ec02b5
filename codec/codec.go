// Package codec implements the primitive encodings used by membuffer
//
// every function works on a caller supplied byte span, the width of a number
// is the length of the span it is decoded from or encoded into. this keeps the
// cursor handling in one place (the buffer) and lets the encodings be tested
// without one
//
// integers are little endian, floats follow IEEE-754 binary32/binary64 in a
// caller chosen byte order, and strings map bytes to runes one to one
// (Latin-1), so only characters up to U+00FF survive a round trip
package codec

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// MaxWidth is the widest integer span supported
const MaxWidth = 8

var (
	// ErrOverflow is returned when a value does not fit the requested width
	ErrOverflow = errors.New("value does not fit in the requested width")

	// ErrInvalidText is returned when a string contains a character that has
	// no single byte representation
	ErrInvalidText = errors.New("character outside the single byte range")

	// ErrWidth is returned for integer widths outside 1..MaxWidth
	ErrWidth = errors.New("unsupported integer width")
)

// ValidWidth reports whether w bytes can hold an integer
func ValidWidth(w int) bool { return w > 0 && w <= MaxWidth }

// Uint decodes b as an unsigned little endian integer
func Uint(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// Int decodes b as a little endian two's complement integer, sign extending
// from the most significant bit of the last byte
func Int(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	shift := uint(64 - 8*len(b))
	return int64(Uint(b)<<shift) >> shift
}

// FitsUint reports whether v can be stored unsigned in width bytes
func FitsUint(v uint64, width int) bool {
	if width >= MaxWidth {
		return true
	}
	return v < 1<<(8*uint(width))
}

// FitsInt reports whether v can be stored as two's complement in width bytes
func FitsInt(v int64, width int) bool {
	if width >= MaxWidth {
		return true
	}
	limit := int64(1) << (8*uint(width) - 1)
	return v >= -limit && v < limit
}

// PutUint encodes v little endian into all of dst
func PutUint(dst []byte, v uint64) error {
	if !ValidWidth(len(dst)) {
		return errors.Wrapf(ErrWidth, "width %d", len(dst))
	}
	if !FitsUint(v, len(dst)) {
		return errors.Wrapf(ErrOverflow, "%d in %d unsigned bytes", v, len(dst))
	}
	putUint(dst, v)
	return nil
}

// PutInt encodes v as little endian two's complement into all of dst
func PutInt(dst []byte, v int64) error {
	if !ValidWidth(len(dst)) {
		return errors.Wrapf(ErrWidth, "width %d", len(dst))
	}
	if !FitsInt(v, len(dst)) {
		return errors.Wrapf(ErrOverflow, "%d in %d signed bytes", v, len(dst))
	}
	putUint(dst, uint64(v))
	return nil
}

func putUint(dst []byte, v uint64) {
	for i := range dst {
		dst[i] = byte(v)
		v >>= 8
	}
}

// Float32 decodes the first 4 bytes of b
func Float32(b []byte, order binary.ByteOrder) float32 {
	return math.Float32frombits(order.Uint32(b))
}

// Float64 decodes the first 8 bytes of b
func Float64(b []byte, order binary.ByteOrder) float64 {
	return math.Float64frombits(order.Uint64(b))
}

// PutFloat32 encodes v into the first 4 bytes of dst
func PutFloat32(dst []byte, v float32, order binary.ByteOrder) {
	order.PutUint32(dst, math.Float32bits(v))
}

// PutFloat64 encodes v into the first 8 bytes of dst
func PutFloat64(dst []byte, v float64, order binary.ByteOrder) {
	order.PutUint64(dst, math.Float64bits(v))
}

// IndexNUL returns the index of the first zero byte in b, or -1
func IndexNUL(b []byte) int { return bytes.IndexByte(b, 0) }

// String decodes b as Latin-1 text, dropping any trailing NUL padding
func String(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	b = b[:end]

	ascii := true
	for _, c := range b {
		if c >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}

	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// TextLen returns the encoded length of s, which is its character count
func TextLen(s string) int { return utf8.RuneCountInString(s) }

// PutString encodes s into dst, truncating characters that do not fit and
// NUL padding the rest
func PutString(dst []byte, s string) error {
	i := 0
	for _, r := range s {
		if i == len(dst) {
			break
		}
		if r > 0xFF {
			return errors.Wrapf(ErrInvalidText, "%q", r)
		}
		dst[i] = byte(r)
		i++
	}
	for ; i < len(dst); i++ {
		dst[i] = 0
	}
	return nil
}
