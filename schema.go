package membuffer

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Schema describes how a region of bytes maps to a value
//
// the set of schemas is closed, a Schema is one of ByteCount, Primitive,
// Parametrized, Object or Custom. String returns the structural form used to
// key compiled handlers, equal strings mean equal layouts.
type Schema interface {
	fmt.Stringer
	schema()
}

// ByteCount reads or writes exactly that many raw bytes
type ByteCount int

// Primitive reads or writes a single value of its Kind
type Primitive struct {
	Kind Kind
}

// Parametrized is a Primitive with extra arguments: a signedness override
// for integers, a byte order for floats, a length for strings and bytes
type Parametrized struct {
	Kind Kind
	Args []any
}

// Field is a named member of an Object
type Field struct {
	Name   string
	Schema Schema
}

// Object is an ordered list of fields, read and written in this order
type Object []Field

// Custom delegates to caller functions. Read receives the buffer positioned at
// the field and returns its value, Write receives the value to encode. Either
// may be nil if the schema is only used in one direction.
type Custom struct {
	Name  string
	Read  func(b *Buffer) (any, error)
	Write func(b *Buffer, v any) error
}

func (ByteCount) schema()    {}
func (Primitive) schema()    {}
func (Parametrized) schema() {}
func (Object) schema()       {}
func (Custom) schema()       {}

// commonly used primitives
var (
	Byte   = Primitive{KindByte}
	Short  = Primitive{KindShort}
	Int    = Primitive{KindInt}
	Long   = Primitive{KindLong}
	UByte  = Primitive{KindUByte}
	UShort = Primitive{KindUShort}
	UInt   = Primitive{KindUInt}
	ULong  = Primitive{KindULong}
	Float  = Primitive{KindFloat}
	Double = Primitive{KindDouble}
	String = Primitive{KindString}
)

// Bytes returns a schema for n raw bytes
func Bytes(n int) ByteCount { return ByteCount(n) }

// Prim returns a schema for one value of kind k
func Prim(k Kind) Primitive { return Primitive{k} }

// Param returns a schema for one value of kind k with extra arguments
func Param(k Kind, args ...any) Parametrized { return Parametrized{Kind: k, Args: args} }

// F returns a field for use in an Object literal
func F(name string, s Schema) Field { return Field{Name: name, Schema: s} }

// Type builds a Primitive or Parametrized schema from a type token such as
// "int" or "string"
func Type(name string, args ...any) (Schema, error) {
	k, err := ParseKind(name)
	if err != nil {
		return nil, err
	}

	if len(args) == 0 {
		return Primitive{k}, nil
	}
	return Parametrized{Kind: k, Args: args}, nil
}

// MustType is a Type that panics on failure
func MustType(name string, args ...any) Schema {
	s, err := Type(name, args...)
	if err != nil {
		panic(err)
	}
	return s
}

func (n ByteCount) String() string { return strconv.Itoa(int(n)) }

func (p Primitive) String() string { return p.Kind.String() }

func (p Parametrized) String() string {
	var sb strings.Builder
	sb.WriteString(p.Kind.String())
	sb.WriteByte('(')
	for i, a := range p.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%T:%v", a, a)
	}
	sb.WriteByte(')')
	return sb.String()
}

func (o Object) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Quote(f.Name))
		sb.WriteByte(':')
		if f.Schema == nil {
			sb.WriteString("nil")
		} else {
			sb.WriteString(f.Schema.String())
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

func (c Custom) String() string {
	return fmt.Sprintf("custom(%q,%#x,%#x)", c.Name, funcPointer(c.Read), funcPointer(c.Write))
}

func funcPointer(f any) uintptr {
	v := reflect.ValueOf(f)
	if !v.IsValid() || v.IsNil() {
		return 0
	}
	return v.Pointer()
}

// Validate checks o for nil schemas and duplicate or empty field names,
// descending into nested objects
func (o Object) Validate() error {
	seen := make(map[string]struct{}, len(o))
	for _, f := range o {
		if f.Name == "" {
			return errors.Wrap(ErrInvalidSchema, "empty field name")
		}

		if _, dup := seen[f.Name]; dup {
			return errors.Wrapf(ErrInvalidSchema, "duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Schema == nil {
			return errors.Wrapf(ErrInvalidSchema, "field %q has no schema", f.Name)
		}

		if nested, ok := f.Schema.(Object); ok {
			if err := nested.Validate(); err != nil {
				return errors.Wrapf(err, "in field %q", f.Name)
			}
		}
	}
	return nil
}
