package membuffer

import (
	"encoding/binary"

	"github.com/performancecopilot/membuffer/codec"
	"github.com/pkg/errors"
)

func (b *Buffer) readWidth(op string, width int) ([]byte, error) {
	if !codec.ValidWidth(width) {
		return nil, newError(op, b.offset, errors.Wrapf(ErrInvalidWidth, "%d", width))
	}
	return b.span(op, width)
}

// ReadNumber reads a little endian two's complement integer of width bytes
func (b *Buffer) ReadNumber(width int) (int64, error) {
	s, err := b.readWidth("read number", width)
	if err != nil {
		return 0, err
	}
	return codec.Int(s), nil
}

// ReadUNumber reads a little endian unsigned integer of width bytes
func (b *Buffer) ReadUNumber(width int) (uint64, error) {
	s, err := b.readWidth("read number", width)
	if err != nil {
		return 0, err
	}
	return codec.Uint(s), nil
}

// WriteNumber writes v as a little endian two's complement integer of width bytes
func (b *Buffer) WriteNumber(v int64, width int) error {
	if !codec.ValidWidth(width) {
		return newError("write number", b.offset, errors.Wrapf(ErrInvalidWidth, "%d", width))
	}

	var scratch [codec.MaxWidth]byte
	if err := codec.PutInt(scratch[:width], v); err != nil {
		return newError("write number", b.offset, err)
	}

	return b.writeSpan("write number", scratch[:width])
}

// MustWriteNumber panics if WriteNumber fails
func (b *Buffer) MustWriteNumber(v int64, width int) {
	if err := b.WriteNumber(v, width); err != nil {
		panic(err)
	}
}

// WriteUNumber writes v as a little endian unsigned integer of width bytes
func (b *Buffer) WriteUNumber(v uint64, width int) error {
	if !codec.ValidWidth(width) {
		return newError("write number", b.offset, errors.Wrapf(ErrInvalidWidth, "%d", width))
	}

	var scratch [codec.MaxWidth]byte
	if err := codec.PutUint(scratch[:width], v); err != nil {
		return newError("write number", b.offset, err)
	}

	return b.writeSpan("write number", scratch[:width])
}

// MustWriteUNumber panics if WriteUNumber fails
func (b *Buffer) MustWriteUNumber(v uint64, width int) {
	if err := b.WriteUNumber(v, width); err != nil {
		panic(err)
	}
}

// ReadInt8 reads a signed byte
func (b *Buffer) ReadInt8() (int8, error) {
	v, err := b.ReadNumber(1)
	return int8(v), err
}

// ReadInt16 reads a signed short
func (b *Buffer) ReadInt16() (int16, error) {
	v, err := b.ReadNumber(2)
	return int16(v), err
}

// ReadInt32 reads a signed int
func (b *Buffer) ReadInt32() (int32, error) {
	v, err := b.ReadNumber(4)
	return int32(v), err
}

// ReadInt64 reads a signed long
func (b *Buffer) ReadInt64() (int64, error) { return b.ReadNumber(8) }

// ReadUint8 reads an unsigned byte
func (b *Buffer) ReadUint8() (uint8, error) {
	v, err := b.ReadUNumber(1)
	return uint8(v), err
}

// ReadUint16 reads an unsigned short
func (b *Buffer) ReadUint16() (uint16, error) {
	v, err := b.ReadUNumber(2)
	return uint16(v), err
}

// ReadUint32 reads an unsigned int
func (b *Buffer) ReadUint32() (uint32, error) {
	v, err := b.ReadUNumber(4)
	return uint32(v), err
}

// ReadUint64 reads an unsigned long
func (b *Buffer) ReadUint64() (uint64, error) { return b.ReadUNumber(8) }

// WriteInt8 writes a signed byte
func (b *Buffer) WriteInt8(v int8) error { return b.WriteNumber(int64(v), 1) }

// WriteInt16 writes a signed short
func (b *Buffer) WriteInt16(v int16) error { return b.WriteNumber(int64(v), 2) }

// WriteInt32 writes a signed int
func (b *Buffer) WriteInt32(v int32) error { return b.WriteNumber(int64(v), 4) }

// MustWriteInt32 panics if WriteInt32 fails
func (b *Buffer) MustWriteInt32(v int32) {
	if err := b.WriteInt32(v); err != nil {
		panic(err)
	}
}

// WriteInt64 writes a signed long
func (b *Buffer) WriteInt64(v int64) error { return b.WriteNumber(v, 8) }

// MustWriteInt64 panics if WriteInt64 fails
func (b *Buffer) MustWriteInt64(v int64) {
	if err := b.WriteInt64(v); err != nil {
		panic(err)
	}
}

// WriteUint8 writes an unsigned byte
func (b *Buffer) WriteUint8(v uint8) error { return b.WriteUNumber(uint64(v), 1) }

// WriteUint16 writes an unsigned short
func (b *Buffer) WriteUint16(v uint16) error { return b.WriteUNumber(uint64(v), 2) }

// WriteUint32 writes an unsigned int
func (b *Buffer) WriteUint32(v uint32) error { return b.WriteUNumber(uint64(v), 4) }

// MustWriteUint32 panics if WriteUint32 fails
func (b *Buffer) MustWriteUint32(v uint32) {
	if err := b.WriteUint32(v); err != nil {
		panic(err)
	}
}

// WriteUint64 writes an unsigned long
func (b *Buffer) WriteUint64(v uint64) error { return b.WriteUNumber(v, 8) }

// MustWriteUint64 panics if WriteUint64 fails
func (b *Buffer) MustWriteUint64(v uint64) {
	if err := b.WriteUint64(v); err != nil {
		panic(err)
	}
}

func (b *Buffer) byteOrder(order binary.ByteOrder) binary.ByteOrder {
	if order == nil {
		return b.opts.floatOrder
	}
	return order
}

// ReadFloat32 reads an IEEE-754 single, a nil order means the configured default
func (b *Buffer) ReadFloat32(order binary.ByteOrder) (float32, error) {
	s, err := b.span("read float", 4)
	if err != nil {
		return 0, err
	}
	return codec.Float32(s, b.byteOrder(order)), nil
}

// ReadFloat64 reads an IEEE-754 double, a nil order means the configured default
func (b *Buffer) ReadFloat64(order binary.ByteOrder) (float64, error) {
	s, err := b.span("read double", 8)
	if err != nil {
		return 0, err
	}
	return codec.Float64(s, b.byteOrder(order)), nil
}

// WriteFloat32 writes an IEEE-754 single, a nil order means the configured default
func (b *Buffer) WriteFloat32(v float32, order binary.ByteOrder) error {
	var scratch [4]byte
	codec.PutFloat32(scratch[:], v, b.byteOrder(order))
	return b.writeSpan("write float", scratch[:])
}

// MustWriteFloat32 panics if WriteFloat32 fails
func (b *Buffer) MustWriteFloat32(v float32, order binary.ByteOrder) {
	if err := b.WriteFloat32(v, order); err != nil {
		panic(err)
	}
}

// WriteFloat64 writes an IEEE-754 double, a nil order means the configured default
func (b *Buffer) WriteFloat64(v float64, order binary.ByteOrder) error {
	var scratch [8]byte
	codec.PutFloat64(scratch[:], v, b.byteOrder(order))
	return b.writeSpan("write double", scratch[:])
}

// MustWriteFloat64 panics if WriteFloat64 fails
func (b *Buffer) MustWriteFloat64(v float64, order binary.ByteOrder) {
	if err := b.WriteFloat64(v, order); err != nil {
		panic(err)
	}
}

// ReadString reads n bytes as text with trailing NULs removed, a negative n
// behaves like ReadCString
func (b *Buffer) ReadString(n int) (string, error) {
	if n < 0 {
		return b.ReadCString()
	}

	s, err := b.span("read string", n)
	if err != nil {
		return "", err
	}
	return codec.String(s), nil
}

// ReadCString reads text up to the next NUL byte, or to the end of the
// buffer if there is none. The NUL itself is left unread.
func (b *Buffer) ReadCString() (string, error) {
	n := codec.IndexNUL(b.data[b.offset:b.length])
	if n < 0 {
		n = b.length - b.offset
	}

	s, err := b.span("read string", n)
	if err != nil {
		return "", err
	}
	return codec.String(s), nil
}

// WriteString writes s in exactly n bytes, truncating or NUL padding it. A
// negative n means the length of s.
func (b *Buffer) WriteString(s string, n int) error {
	if n < 0 {
		n = codec.TextLen(s)
	}

	p := make([]byte, n)
	if err := codec.PutString(p, s); err != nil {
		return newError("write string", b.offset, err)
	}

	return b.writeSpan("write string", p)
}

// MustWriteString panics if WriteString fails
func (b *Buffer) MustWriteString(s string, n int) {
	if err := b.WriteString(s, n); err != nil {
		panic(err)
	}
}

// ReadValue reads one primitive of kind k using the configured defaults
func (b *Buffer) ReadValue(k Kind) (any, error) {
	r, err := bindReader(k, nil)
	if err != nil {
		return nil, newError("read", b.offset, err)
	}
	return r(b)
}

// WriteValue writes v as one primitive of kind k using the configured defaults
func (b *Buffer) WriteValue(k Kind, v any) error {
	w, err := bindWriter(k, nil)
	if err != nil {
		return newError("write", b.offset, err)
	}
	return w(b, v)
}
