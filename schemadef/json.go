package schemadef

import (
	"math"
	"os"

	"github.com/performancecopilot/membuffer"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ParseJSON reads a single schema definition. Type tokens that are not
// primitives are looked up in reg, which may be nil.
func ParseJSON(data []byte, reg *membuffer.Registry) (membuffer.Schema, error) {
	root, err := jsonRoot(data)
	if err != nil {
		return nil, err
	}
	return jsonSchema(root, reg)
}

// LoadJSON registers every definition of a top level object in reg and
// returns their names in document order
func LoadJSON(data []byte, reg *membuffer.Registry) ([]string, error) {
	root, err := jsonRoot(data)
	if err != nil {
		return nil, err
	}

	if !root.IsObject() {
		return nil, jsonError(root, "top level must map names to schemas")
	}

	var entries []entry
	root.ForEach(func(key, value gjson.Result) bool {
		entries = append(entries, entry{
			name: key.String(),
			parse: func(reg *membuffer.Registry) (membuffer.Schema, error) {
				return jsonSchema(value, reg)
			},
		})
		return true
	})

	return load(entries, reg)
}

// LoadJSONFile is LoadJSON on the contents of a file
func LoadJSONFile(path string, reg *membuffer.Registry) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read schema file")
	}
	return LoadJSON(data, reg)
}

func jsonRoot(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, errors.Wrap(membuffer.ErrInvalidSchema, "malformed JSON schema")
	}
	return gjson.ParseBytes(data), nil
}

func jsonError(r gjson.Result, msg string) error {
	return errors.Wrapf(membuffer.ErrInvalidSchema, "at %s: %s", r.Raw, msg)
}

func integral(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32
}

func jsonSchema(r gjson.Result, reg *membuffer.Registry) (membuffer.Schema, error) {
	switch {
	case r.Type == gjson.Number:
		if !integral(r.Num) {
			return nil, jsonError(r, "byte count must be an integer")
		}
		return byteCount(int64(r.Num))

	case r.Type == gjson.String:
		return resolve(r.Str, reg)

	case r.IsArray():
		items := r.Array()
		if len(items) == 0 {
			return nil, jsonError(r, "empty parametrized type")
		}
		if items[0].Type != gjson.String {
			return nil, jsonError(items[0], "parametrized type must start with a type name")
		}

		args := make([]any, 0, len(items)-1)
		for _, item := range items[1:] {
			a, err := jsonArg(item)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return param(items[0].Str, args)

	case r.IsObject():
		var (
			fields []membuffer.Field
			err    error
		)
		r.ForEach(func(key, value gjson.Result) bool {
			var s membuffer.Schema
			s, err = jsonSchema(value, reg)
			if err != nil {
				err = errors.Wrapf(err, "field %q", key.String())
				return false
			}
			fields = append(fields, membuffer.F(key.String(), s))
			return true
		})
		if err != nil {
			return nil, err
		}
		return object(fields)
	}

	return nil, jsonError(r, "expected a byte count, a type name, an array or an object")
}

func jsonArg(r gjson.Result) (any, error) {
	switch r.Type {
	case gjson.Number:
		if integral(r.Num) {
			return int(r.Num), nil
		}
		return r.Num, nil
	case gjson.String:
		return r.Str, nil
	case gjson.True, gjson.False:
		return r.Bool(), nil
	}
	return nil, jsonError(r, "unsupported argument")
}
