package membuffer

import (
	"encoding/binary"
	"math"
	"testing"
	"testing/quick"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIntSequence(t *testing.T) {
	b := MustNew([]byte{0x02, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00})

	v, err := b.ReadValue(KindInt)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v)

	v, err = b.ReadValue(KindInt)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	_, err = b.ReadValue(KindInt)
	assert.True(t, errors.Is(err, ErrOutOfBounds))
}

func TestHelloWorld(t *testing.T) {
	b := MustNew(nil)
	require.NoError(t, b.WriteString("hello world", -1))

	b.Resume()
	s, err := b.ReadString(-1)
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)
	assert.Equal(t, 11, b.Offset())
}

func TestIntsThenLong(t *testing.T) {
	b := MustNew(nil)
	for _, v := range []int{1, 2, 3} {
		require.NoError(t, b.WriteValue(KindInt, v))
	}
	require.NoError(t, b.WriteValue(KindLong, 4))
	assert.Equal(t, 20, b.Len())

	b.Resume()
	for _, want := range []uint32{1, 2, 3} {
		v, err := b.ReadUint32()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	v, err := b.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), v)
}

func TestNumberRoundTrip(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8} {
		bits := uint(8 * width)

		signed := func(v int64) bool {
			if width < 8 {
				v = v << (64 - bits) >> (64 - bits)
			}
			b := MustNew(nil)
			if err := b.WriteNumber(v, width); err != nil {
				return false
			}
			b.Resume()
			got, err := b.ReadNumber(width)
			return err == nil && got == v && b.Len() == width
		}
		require.NoError(t, quick.Check(signed, nil), "signed width %d", width)

		unsigned := func(v uint64) bool {
			if width < 8 {
				v &= 1<<bits - 1
			}
			b := MustNew(nil)
			if err := b.WriteUNumber(v, width); err != nil {
				return false
			}
			b.Resume()
			got, err := b.ReadUNumber(width)
			return err == nil && got == v
		}
		require.NoError(t, quick.Check(unsigned, nil), "unsigned width %d", width)
	}
}

func TestSixtyFourBitSigned(t *testing.T) {
	b := MustNew(nil)
	for _, v := range []int64{math.MinInt64, -1 << 40, -1, math.MaxInt64} {
		b.MustWriteInt64(v)
	}

	b.Resume()
	for _, want := range []int64{math.MinInt64, -1 << 40, -1, math.MaxInt64} {
		v, err := b.ReadInt64()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestSignedness(t *testing.T) {
	raw := []byte{0xff, 0xfe, 0xff}

	v, err := MustNew(raw).ReadValue(KindByte)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), v)

	v, err = MustNew(raw, WithSignedNumbers(true)).ReadValue(KindByte)
	require.NoError(t, err)
	assert.Equal(t, int8(-1), v)

	v, err = MustNew(raw, WithSignedNumbers(true)).ReadValue(KindUByte)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), v)

	b := MustNew(raw, WithStartOffset(1))
	v, err = b.Read(Param(KindShort, true))
	require.NoError(t, err)
	assert.Equal(t, int16(-2), v)
}

func TestWriteOverflow(t *testing.T) {
	cases := []struct {
		kind   Kind
		signed bool
		v      any
	}{
		{KindByte, false, 256},
		{KindByte, false, -1},
		{KindByte, true, 128},
		{KindByte, true, -129},
		{KindShort, false, 70000},
		{KindInt, true, int64(math.MaxInt32) + 1},
		{KindUInt, true, -5},
		{KindLong, true, uint64(math.MaxUint64)},
		{KindULong, false, -1},
	}

	for _, c := range cases {
		b := MustNew([]byte{9}, WithSignedNumbers(c.signed), WithStartOffset(1))
		err := b.WriteValue(c.kind, c.v)
		require.Error(t, err, "%v %v", c.kind, c.v)
		assert.True(t, errors.Is(err, ErrEncodingOverflow), "%v %v: %v", c.kind, c.v, err)
		assert.Equal(t, 1, b.Offset())
		assert.Equal(t, 1, b.Len())
	}

	b := MustNew(nil)
	assert.True(t, errors.Is(b.WriteNumber(128, 1), ErrEncodingOverflow))
	assert.True(t, errors.Is(b.WriteUNumber(1<<16, 2), ErrEncodingOverflow))
	assert.True(t, errors.Is(b.WriteNumber(1, 3), ErrInvalidWidth))
	assert.Equal(t, 0, b.Len())
}

func TestWriteTypeMismatch(t *testing.T) {
	b := MustNew(nil)
	assert.True(t, errors.Is(b.WriteValue(KindInt, "1"), ErrTypeMismatch))
	assert.True(t, errors.Is(b.WriteValue(KindInt, 1.5), ErrTypeMismatch))
	assert.True(t, errors.Is(b.WriteValue(KindDouble, "x"), ErrTypeMismatch))
	assert.True(t, errors.Is(b.WriteValue(KindString, 1), ErrTypeMismatch))
	assert.Equal(t, 0, b.Len())
}

func TestFloatRoundTrip(t *testing.T) {
	orders := []binary.ByteOrder{nil, binary.LittleEndian, binary.BigEndian}

	for _, order := range orders {
		single := func(v float32) bool {
			b := MustNew(nil)
			b.MustWriteFloat32(v, order)
			b.Resume()
			got, err := b.ReadFloat32(order)
			return err == nil && math.Float32bits(got) == math.Float32bits(v)
		}
		require.NoError(t, quick.Check(single, nil))

		double := func(v float64) bool {
			b := MustNew(nil)
			b.MustWriteFloat64(v, order)
			b.Resume()
			got, err := b.ReadFloat64(order)
			return err == nil && math.Float64bits(got) == math.Float64bits(v)
		}
		require.NoError(t, quick.Check(double, nil))
	}
}

func TestFloatByteOrder(t *testing.T) {
	b := MustNew(nil)
	b.MustWriteFloat32(1, binary.BigEndian)
	b.MustWriteFloat32(1, nil)
	assert.Equal(t, []byte{0x3f, 0x80, 0, 0, 0, 0, 0x80, 0x3f}, b.Bytes())

	b = MustNew(nil, WithFloatByteOrder(binary.BigEndian))
	require.NoError(t, b.Write(2.5, Double))
	require.NoError(t, b.Write(2.5, Param(KindDouble, true)))
	require.NoError(t, b.Write(2.5, Param(KindDouble, "little")))

	p := b.Bytes()
	assert.Equal(t, []byte{0x40, 0x04, 0, 0, 0, 0, 0, 0}, p[:8])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x04, 0x40}, p[8:16])
	assert.Equal(t, p[8:16], p[16:24])

	assert.True(t, errors.Is(b.Write(1e300, Float), ErrEncodingOverflow))
}

func TestStringRoundTrip(t *testing.T) {
	cases := []struct {
		s    string
		n    int
		want string
	}{
		{"abc", 5, "abc"},
		{"abc", 3, "abc"},
		{"abcdef", 3, "abc"},
		{"", 4, ""},
		{"café", 6, "café"},
		{"ÿ", 1, "ÿ"},
	}

	for _, c := range cases {
		b := MustNew(nil)
		require.NoError(t, b.WriteString(c.s, c.n))
		assert.Equal(t, c.n, b.Len(), c.s)

		b.Resume()
		got, err := b.ReadString(c.n)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
		assert.NotContains(t, got, "\x00")
	}
}

func TestWriteStringInvalidText(t *testing.T) {
	b := MustNew(nil)
	err := b.WriteString("snow ☃", -1)
	assert.True(t, errors.Is(err, ErrInvalidText))
	assert.Equal(t, 0, b.Len())

	// characters cut by the length are never encoded
	require.NoError(t, b.WriteString("snow ☃", 4))
	assert.Equal(t, "snow", string(b.Bytes()))
}

func TestReadCString(t *testing.T) {
	b := MustNew([]byte("ab\x00cd"))

	s, err := b.ReadCString()
	require.NoError(t, err)
	assert.Equal(t, "ab", s)
	assert.Equal(t, 2, b.Offset(), "the NUL is left unread")

	b.MustSkip(1)
	s, err = b.ReadString(-1)
	require.NoError(t, err)
	assert.Equal(t, "cd", s)
	assert.Equal(t, 5, b.Offset())

	s, err = b.ReadCString()
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestTypedReadWrite(t *testing.T) {
	b := MustNew(nil)
	require.NoError(t, b.WriteInt8(-2))
	require.NoError(t, b.WriteInt16(-300))
	b.MustWriteInt32(-70000)
	require.NoError(t, b.WriteUint8(200))
	require.NoError(t, b.WriteUint16(60000))
	b.MustWriteUint32(4000000000)
	b.MustWriteUint64(math.MaxUint64)
	assert.Equal(t, 1+2+4+1+2+4+8, b.Len())

	b.Resume()
	i8, _ := b.ReadInt8()
	i16, _ := b.ReadInt16()
	i32, _ := b.ReadInt32()
	u8, _ := b.ReadUint8()
	u16, _ := b.ReadUint16()
	u32, _ := b.ReadUint32()
	u64, err := b.ReadUint64()
	require.NoError(t, err)

	assert.Equal(t, int8(-2), i8)
	assert.Equal(t, int16(-300), i16)
	assert.Equal(t, int32(-70000), i32)
	assert.Equal(t, uint8(200), u8)
	assert.Equal(t, uint16(60000), u16)
	assert.Equal(t, uint32(4000000000), u32)
	assert.Equal(t, uint64(math.MaxUint64), u64)
}

func TestValueUnknownKind(t *testing.T) {
	b := MustNew([]byte{1, 2, 3, 4})

	_, err := b.ReadValue(KindInvalid)
	assert.True(t, errors.Is(err, ErrUnknownSchemaType))

	err = b.WriteValue(Kind(200), 1)
	assert.True(t, errors.Is(err, ErrUnknownSchemaType))
	assert.Equal(t, 0, b.Offset())
}
