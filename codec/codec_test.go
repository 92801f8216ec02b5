package codec

import (
	"encoding/binary"
	"math"
	"testing"
	"testing/quick"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintLittleEndian(t *testing.T) {
	cases := []struct {
		in   []byte
		want uint64
	}{
		{[]byte{0x02, 0x00, 0x00, 0x00}, 2},
		{[]byte{0x01, 0x22, 0x00, 0x00}, 8705},
		{[]byte{0xFF}, 255},
		{[]byte{0xFF, 0xFF}, 65535},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, math.MaxUint64},
		{nil, 0},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Uint(c.in), "% x", c.in)
	}
}

func TestIntSignExtension(t *testing.T) {
	cases := []struct {
		in   []byte
		want int64
	}{
		{[]byte{0xFF}, -1},
		{[]byte{0x80}, -128},
		{[]byte{0x7F}, 127},
		{[]byte{0x00, 0x80}, -32768},
		{[]byte{0xFE, 0xFF, 0xFF, 0xFF}, -2},
		{[]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80}, math.MinInt64},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}, math.MaxInt64},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Int(c.in), "% x", c.in)
	}
}

func TestIntRoundTrip(t *testing.T) {
	for _, w := range []int{1, 2, 4, 8} {
		w := w
		check := func(v int64) bool {
			if !FitsInt(v, w) {
				v >>= uint(64 - 8*w)
			}
			dst := make([]byte, w)
			if err := PutInt(dst, v); err != nil {
				return false
			}
			return Int(dst) == v
		}
		require.NoError(t, quick.Check(check, nil), "width %d", w)
	}
}

func TestUintRoundTrip(t *testing.T) {
	for _, w := range []int{1, 2, 4, 8} {
		w := w
		check := func(v uint64) bool {
			if w < 8 {
				v &= 1<<(8*uint(w)) - 1
			}
			dst := make([]byte, w)
			if err := PutUint(dst, v); err != nil {
				return false
			}
			return Uint(dst) == v
		}
		require.NoError(t, quick.Check(check, nil), "width %d", w)
	}
}

func TestPutOverflow(t *testing.T) {
	err := PutUint(make([]byte, 1), 256)
	assert.True(t, errors.Is(err, ErrOverflow))

	err = PutInt(make([]byte, 2), 32768)
	assert.True(t, errors.Is(err, ErrOverflow))

	err = PutInt(make([]byte, 2), -32769)
	assert.True(t, errors.Is(err, ErrOverflow))

	assert.NoError(t, PutInt(make([]byte, 2), -32768))

	err = PutUint(make([]byte, 9), 1)
	assert.True(t, errors.Is(err, ErrWidth))

	err = PutInt(nil, 0)
	assert.True(t, errors.Is(err, ErrWidth))
}

func TestFloatRoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		order := order
		f32 := func(v float32) bool {
			b := make([]byte, 4)
			PutFloat32(b, v, order)
			return math.Float32bits(Float32(b, order)) == math.Float32bits(v)
		}
		require.NoError(t, quick.Check(f32, nil))

		f64 := func(v float64) bool {
			b := make([]byte, 8)
			PutFloat64(b, v, order)
			return math.Float64bits(Float64(b, order)) == math.Float64bits(v)
		}
		require.NoError(t, quick.Check(f64, nil))
	}
}

func TestFloatByteOrder(t *testing.T) {
	le := make([]byte, 4)
	be := make([]byte, 4)
	PutFloat32(le, 1, binary.LittleEndian)
	PutFloat32(be, 1, binary.BigEndian)

	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, le)
	assert.Equal(t, []byte{0x3F, 0x80, 0x00, 0x00}, be)
}

func TestString(t *testing.T) {
	assert.Equal(t, "hello", String([]byte("hello\x00\x00\x00")))
	assert.Equal(t, "", String([]byte{0, 0}))
	assert.Equal(t, "a\x00b", String([]byte("a\x00b\x00")))
	assert.Equal(t, "café", String([]byte{'c', 'a', 'f', 0xE9}))
}

func TestPutString(t *testing.T) {
	dst := make([]byte, 8)
	require.NoError(t, PutString(dst, "abc"))
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0, 0, 0}, dst)

	dst = make([]byte, 2)
	require.NoError(t, PutString(dst, "abc"))
	assert.Equal(t, []byte("ab"), dst)

	dst = make([]byte, 4)
	require.NoError(t, PutString(dst, "café"))
	assert.Equal(t, []byte{'c', 'a', 'f', 0xE9}, dst)

	err := PutString(make([]byte, 4), "日本")
	assert.True(t, errors.Is(err, ErrInvalidText))

	// characters past the truncation point are never encoded
	require.NoError(t, PutString(make([]byte, 1), "a日"))
}

func TestStringRoundTrip(t *testing.T) {
	check := func(raw []byte, pad uint8) bool {
		runes := make([]rune, 0, len(raw))
		for _, c := range raw {
			if c != 0 {
				runes = append(runes, rune(c))
			}
		}
		s := string(runes)

		dst := make([]byte, TextLen(s)+int(pad%16))
		if err := PutString(dst, s); err != nil {
			return false
		}
		return String(dst) == s
	}
	require.NoError(t, quick.Check(check, nil))
}

func TestIndexNUL(t *testing.T) {
	assert.Equal(t, 3, IndexNUL([]byte{'a', 'b', 'c', 0, 'd'}))
	assert.Equal(t, -1, IndexNUL([]byte("abc")))
}
