// Package schemadef reads membuffer schemas from YAML or JSON documents.
//
// A definition is one of
//
//	8                     a byte count
//	"int"                 a primitive type token, or the name of a registered schema
//	["string", 16]        a parametrized primitive, the type token followed by its arguments
//	{"a": "int", ...}     an object, fields kept in document order
//
// Load functions take a document whose top level maps names to definitions
// and register each of them in order, so later definitions may refer to
// earlier ones by name.
package schemadef

import (
	"github.com/performancecopilot/membuffer"
	"github.com/pkg/errors"
)

// resolve turns a type token into a schema. Primitive tokens win over
// registered names.
func resolve(token string, reg *membuffer.Registry) (membuffer.Schema, error) {
	s, err := membuffer.Type(token)
	if err == nil {
		return s, nil
	}

	if reg != nil {
		if named, ok := reg.Lookup(token); ok {
			return named, nil
		}
	}

	return nil, err
}

func param(token string, args []any) (membuffer.Schema, error) {
	s, err := membuffer.Type(token, args...)
	if err != nil {
		return nil, err
	}

	if err := membuffer.Check(s); err != nil {
		return nil, err
	}
	return s, nil
}

func byteCount(n int64) (membuffer.Schema, error) {
	if n < 0 {
		return nil, errors.Wrapf(membuffer.ErrInvalidSchema, "negative byte count %d", n)
	}
	return membuffer.Bytes(int(n)), nil
}

func object(fields []membuffer.Field) (membuffer.Schema, error) {
	o := membuffer.Object(fields)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// entry is a named top level definition
type entry struct {
	name  string
	parse func(reg *membuffer.Registry) (membuffer.Schema, error)
}

func load(entries []entry, reg *membuffer.Registry) ([]string, error) {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		s, err := e.parse(reg)
		if err != nil {
			return names, errors.Wrapf(err, "schema %q", e.name)
		}

		if err := reg.Register(e.name, s); err != nil {
			return names, err
		}
		names = append(names, e.name)
	}
	return names, nil
}
