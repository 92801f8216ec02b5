package membuffer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a mapping from field names to values that remembers insertion
// order. Objects are read into Records, so their key order matches the schema.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord builds a Record from alternating names and values
func NewRecord(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("membuffer: NewRecord needs name, value pairs")
	}

	r := newRecord(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("membuffer: NewRecord field name must be a string, got %T", kv[i]))
		}
		r.Set(name, kv[i+1])
	}
	return r
}

func newRecord(n int) *Record {
	return &Record{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set stores v under name, keeping the original position of existing names
func (r *Record) Set(name string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}

	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = v
}

// Get returns the value stored under name
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Keys returns the field names in order
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of fields
func (r *Record) Len() int { return len(r.keys) }

// Map converts the record to a plain map, nested records included
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		v := r.values[k]
		if nested, ok := v.(*Record); ok {
			v = nested.Map()
		}
		m[k] = v
	}
	return m
}

// MarshalJSON encodes the record as a JSON object in field order
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Record) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%s:%v", k, r.values[k])
	}
	buf.WriteByte('}')
	return buf.String()
}

// lookup returns a field accessor for the values accepted by object writers
func lookup(v any) (func(string) (any, bool), bool) {
	switch r := v.(type) {
	case *Record:
		if r == nil {
			return nil, false
		}
		return r.Get, true
	case Record:
		return r.Get, true
	case map[string]any:
		return func(name string) (any, bool) {
			val, ok := r[name]
			return val, ok
		}, true
	}
	return nil, false
}
