package membuffer

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind is an enumerated type representing the primitive encodings
type Kind uint8

// Possible values for a Kind
const (
	KindInvalid Kind = iota
	KindByte         // 1 byte integer, signedness from the buffer defaults
	KindShort        // 2 byte integer, signedness from the buffer defaults
	KindInt          // 4 byte integer, signedness from the buffer defaults
	KindLong         // 8 byte integer, signedness from the buffer defaults
	KindUByte        // 1 byte unsigned integer
	KindUShort       // 2 byte unsigned integer
	KindUInt         // 4 byte unsigned integer
	KindULong        // 8 byte unsigned integer
	KindFloat        // IEEE-754 single
	KindDouble       // IEEE-754 double
	KindString       // Latin-1 text, fixed length or NUL terminated
	KindBytes        // raw bytes, fixed length or the rest of the buffer
	kindCount
)

var kindNames = [kindCount]string{
	"invalid", "byte", "short", "int", "long",
	"ubyte", "ushort", "uint", "ulong",
	"float", "double", "string", "bytes",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := KindByte; k < kindCount; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

func (k Kind) String() string {
	if k >= kindCount {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Valid reports whether k names a primitive
func (k Kind) Valid() bool { return k > KindInvalid && k < kindCount }

// Width returns the encoded size of numeric kinds, 0 for variable sized ones
func (k Kind) Width() int {
	switch k {
	case KindByte, KindUByte:
		return 1
	case KindShort, KindUShort:
		return 2
	case KindInt, KindUInt, KindFloat:
		return 4
	case KindLong, KindULong, KindDouble:
		return 8
	}
	return 0
}

// ParseKind resolves a type token such as "int", "u_int" or "readDouble" to a
// Kind. Tokens are compared with separators removed and case folded.
func ParseKind(name string) (Kind, error) {
	token := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(name))
	token = strings.TrimPrefix(token, "read")
	token = strings.TrimPrefix(token, "write")

	k, ok := kindsByName[token]
	if !ok {
		return KindInvalid, errors.Wrapf(ErrUnknownSchemaType, "%q", name)
	}
	return k, nil
}

type reader func(b *Buffer) (any, error)
type writer func(b *Buffer, v any) error

// binder turns the extra arguments of a parametrized schema into a handler
type binder struct {
	read  func(args []any) (reader, error)
	write func(args []any) (writer, error)
}

// primitives is the dispatch table for every Kind
var primitives [kindCount]binder

func init() {
	for _, k := range []Kind{KindByte, KindShort, KindInt, KindLong} {
		primitives[k] = integerBinder(k.Width(), false)
	}
	for _, k := range []Kind{KindUByte, KindUShort, KindUInt, KindULong} {
		primitives[k] = integerBinder(k.Width(), true)
	}
	primitives[KindFloat] = binder{read: floatReader, write: floatWriter}
	primitives[KindDouble] = binder{read: doubleReader, write: doubleWriter}
	primitives[KindString] = binder{read: stringReader, write: stringWriter}
	primitives[KindBytes] = binder{read: bytesReader, write: bytesWriter}
}

func bindReader(k Kind, args []any) (reader, error) {
	if !k.Valid() {
		return nil, errors.Wrapf(ErrUnknownSchemaType, "kind %v", k)
	}
	return primitives[k].read(args)
}

func bindWriter(k Kind, args []any) (writer, error) {
	if !k.Valid() {
		return nil, errors.Wrapf(ErrUnknownSchemaType, "kind %v", k)
	}
	return primitives[k].write(args)
}

func tooManyArgs(args []any, limit int) error {
	if len(args) > limit {
		return errors.Wrapf(ErrInvalidSchema, "%d arguments, at most %d accepted", len(args), limit)
	}
	return nil
}

// signedArg parses the optional signedness override of integer kinds
func signedArg(args []any) (*bool, error) {
	if err := tooManyArgs(args, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}

	s, ok := args[0].(bool)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidSchema, "signedness must be a bool, got %T", args[0])
	}
	return &s, nil
}

// orderArg parses the optional byte order of float kinds, a bool selects
// little endian when true
func orderArg(args []any) (binary.ByteOrder, error) {
	if err := tooManyArgs(args, 1); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}

	switch a := args[0].(type) {
	case binary.ByteOrder:
		return a, nil
	case string:
		order, err := parseByteOrder(a)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidSchema, err.Error())
		}
		return order, nil
	case bool:
		if a {
			return binary.LittleEndian, nil
		}
		return binary.BigEndian, nil
	}
	return nil, errors.Wrapf(ErrInvalidSchema, "byte order must be a binary.ByteOrder, string or bool, got %T", args[0])
}

// lengthArg parses the optional length of string and bytes kinds, -1 when absent
func lengthArg(args []any) (int, error) {
	if err := tooManyArgs(args, 1); err != nil {
		return 0, err
	}
	if len(args) == 0 {
		return -1, nil
	}

	n, ok := argInt(args[0])
	if !ok || n < 0 {
		return 0, errors.Wrapf(ErrInvalidSchema, "length must be a non negative integer, got %v", args[0])
	}
	return n, nil
}

func argInt(a any) (int, bool) {
	switch v := a.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), v <= math.MaxInt32
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), v <= math.MaxInt32
	case float64:
		return int(v), v == math.Trunc(v) && math.Abs(v) <= math.MaxInt32
	}
	return 0, false
}

func integerBinder(width int, unsigned bool) binder {
	return binder{
		read: func(args []any) (reader, error) {
			override, err := signedArg(args)
			if err != nil {
				return nil, err
			}

			return func(b *Buffer) (any, error) {
				if isSigned(b, unsigned, override) {
					v, err := b.ReadNumber(width)
					if err != nil {
						return nil, err
					}
					return sizedInt(v, width), nil
				}

				v, err := b.ReadUNumber(width)
				if err != nil {
					return nil, err
				}
				return sizedUint(v, width), nil
			}, nil
		},
		write: func(args []any) (writer, error) {
			override, err := signedArg(args)
			if err != nil {
				return nil, err
			}

			return func(b *Buffer, v any) error {
				i, iok, u, uok, err := splitInteger(v)
				if err != nil {
					return newError("write number", b.offset, err)
				}

				if isSigned(b, unsigned, override) {
					if !iok {
						return newError("write number", b.offset, errors.Wrapf(ErrEncodingOverflow, "%v in %d signed bytes", v, width))
					}
					return b.WriteNumber(i, width)
				}

				if !uok {
					return newError("write number", b.offset, errors.Wrapf(ErrEncodingOverflow, "%v in %d unsigned bytes", v, width))
				}
				return b.WriteUNumber(u, width)
			}, nil
		},
	}
}

func isSigned(b *Buffer, unsigned bool, override *bool) bool {
	switch {
	case unsigned:
		return false
	case override != nil:
		return *override
	}
	return b.opts.signed
}

func sizedInt(v int64, width int) any {
	switch width {
	case 1:
		return int8(v)
	case 2:
		return int16(v)
	case 4:
		return int32(v)
	}
	return v
}

func sizedUint(v uint64, width int) any {
	switch width {
	case 1:
		return uint8(v)
	case 2:
		return uint16(v)
	case 4:
		return uint32(v)
	}
	return v
}

// splitInteger returns v as an int64 and as a uint64 along with whether each
// representation is exact
func splitInteger(v any) (i int64, iok bool, u uint64, uok bool, err error) {
	switch n := v.(type) {
	case int:
		return int64(n), true, uint64(n), n >= 0, nil
	case int8:
		return int64(n), true, uint64(n), n >= 0, nil
	case int16:
		return int64(n), true, uint64(n), n >= 0, nil
	case int32:
		return int64(n), true, uint64(n), n >= 0, nil
	case int64:
		return n, true, uint64(n), n >= 0, nil
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64, uint64(n), true, nil
	case uint8:
		return int64(n), true, uint64(n), true, nil
	case uint16:
		return int64(n), true, uint64(n), true, nil
	case uint32:
		return int64(n), true, uint64(n), true, nil
	case uint64:
		return int64(n), n <= math.MaxInt64, n, true, nil
	case float64:
		// numbers decoded from text formats arrive as float64
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			break
		}
		iok = n >= math.MinInt64 && n < math.MaxInt64
		uok = n >= 0 && n < math.MaxUint64
		return int64(n), iok, uint64(n), uok, nil
	}
	return 0, false, 0, false, errors.Wrapf(ErrTypeMismatch, "expected an integer, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	}

	i, iok, u, _, err := splitInteger(v)
	if err != nil {
		return 0, errors.Wrapf(ErrTypeMismatch, "expected a number, got %T", v)
	}
	if iok {
		return float64(i), nil
	}
	return float64(u), nil
}

func floatReader(args []any) (reader, error) {
	order, err := orderArg(args)
	if err != nil {
		return nil, err
	}

	return func(b *Buffer) (any, error) {
		v, err := b.ReadFloat32(order)
		if err != nil {
			return nil, err
		}
		return v, nil
	}, nil
}

func floatWriter(args []any) (writer, error) {
	order, err := orderArg(args)
	if err != nil {
		return nil, err
	}

	return func(b *Buffer, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return newError("write float", b.offset, err)
		}

		if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
			return newError("write float", b.offset, errors.Wrapf(ErrEncodingOverflow, "%v as a single", f))
		}

		return b.WriteFloat32(float32(f), order)
	}, nil
}

func doubleReader(args []any) (reader, error) {
	order, err := orderArg(args)
	if err != nil {
		return nil, err
	}

	return func(b *Buffer) (any, error) {
		v, err := b.ReadFloat64(order)
		if err != nil {
			return nil, err
		}
		return v, nil
	}, nil
}

func doubleWriter(args []any) (writer, error) {
	order, err := orderArg(args)
	if err != nil {
		return nil, err
	}

	return func(b *Buffer, v any) error {
		f, err := toFloat(v)
		if err != nil {
			return newError("write double", b.offset, err)
		}
		return b.WriteFloat64(f, order)
	}, nil
}

func stringReader(args []any) (reader, error) {
	n, err := lengthArg(args)
	if err != nil {
		return nil, err
	}

	return func(b *Buffer) (any, error) {
		s, err := b.ReadString(n)
		if err != nil {
			return nil, err
		}
		return s, nil
	}, nil
}

func stringWriter(args []any) (writer, error) {
	n, err := lengthArg(args)
	if err != nil {
		return nil, err
	}

	return func(b *Buffer, v any) error {
		switch s := v.(type) {
		case string:
			return b.WriteString(s, n)
		case []byte:
			return b.writeFixed("write string", s, n, true)
		}
		return newError("write string", b.offset, errors.Wrapf(ErrTypeMismatch, "expected a string, got %T", v))
	}, nil
}

func bytesReader(args []any) (reader, error) {
	n, err := lengthArg(args)
	if err != nil {
		return nil, err
	}
	return byteCountReader(n), nil
}

func bytesWriter(args []any) (writer, error) {
	n, err := lengthArg(args)
	if err != nil {
		return nil, err
	}
	return byteCountWriter(n), nil
}

// byteCountReader reads n raw bytes, or everything left for a negative n
func byteCountReader(n int) reader {
	return func(b *Buffer) (any, error) {
		count := n
		if count < 0 {
			count = b.Remaining()
		}

		p, err := b.ReadBytes(count)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// byteCountWriter writes exactly n raw bytes, zero padding shorter values, or
// the whole value for a negative n
func byteCountWriter(n int) writer {
	return func(b *Buffer, v any) error {
		switch p := v.(type) {
		case []byte:
			return b.writeFixed("write bytes", p, n, false)
		case string:
			return b.writeFixed("write bytes", []byte(p), n, false)
		}
		return newError("write bytes", b.offset, errors.Wrapf(ErrTypeMismatch, "expected []byte, got %T", v))
	}
}

// writeFixed writes p in n bytes, zero padding it. Longer values are
// truncated if truncate is set and rejected otherwise.
func (b *Buffer) writeFixed(op string, p []byte, n int, truncate bool) error {
	if n < 0 || n == len(p) {
		return b.writeSpan(op, p)
	}

	if len(p) > n {
		if !truncate {
			return newError(op, b.offset, errors.Wrapf(ErrEncodingOverflow, "%d bytes in a %d byte field", len(p), n))
		}
		return b.writeSpan(op, p[:n])
	}

	padded := make([]byte, n)
	copy(padded, p)
	return b.writeSpan(op, padded)
}
