package membuffer

import (
	"github.com/pkg/errors"
)

// compileReader returns the reader for s, from the cache when possible
func (b *Buffer) compileReader(s Schema) (reader, error) {
	key := b.handlers.keyOf(s)
	if r, ok := b.handlers.reader(key); ok {
		b.stats.hit()
		return r, nil
	}
	b.stats.miss()

	r, err := b.buildReader(s)
	if err != nil {
		return nil, err
	}

	b.handlers.putReader(key, r)
	return r, nil
}

func (b *Buffer) buildReader(s Schema) (reader, error) {
	switch s := s.(type) {
	case nil:
		return nil, errors.Wrap(ErrInvalidSchema, "nil schema")
	case ByteCount:
		if s < 0 {
			return nil, errors.Wrapf(ErrInvalidSchema, "negative byte count %d", int(s))
		}
		return byteCountReader(int(s)), nil
	case Primitive:
		return bindReader(s.Kind, nil)
	case Parametrized:
		return bindReader(s.Kind, s.Args)
	case Object:
		return b.objectReader(s)
	case Custom:
		if s.Read == nil {
			return nil, errors.Wrapf(ErrInvalidSchema, "custom schema %q cannot be read", s.Name)
		}
		return s.Read, nil
	}
	return nil, errors.Wrapf(ErrInvalidSchema, "unsupported schema %T", s)
}

func (b *Buffer) objectReader(o Object) (reader, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	readers := make([]reader, len(o))
	for i, f := range o {
		r, err := b.compileReader(f.Schema)
		if err != nil {
			return nil, fieldError(err, f.Name, "compile", -1)
		}
		readers[i] = r
	}

	return func(b *Buffer) (any, error) {
		rec := newRecord(len(o))
		for i, f := range o {
			start := b.offset
			v, err := readers[i](b)
			if err != nil {
				return nil, fieldError(err, f.Name, "read", start)
			}
			rec.Set(f.Name, v)
		}
		return rec, nil
	}, nil
}

// compileWriter returns the writer for s, from the cache when possible
func (b *Buffer) compileWriter(s Schema) (writer, error) {
	key := b.handlers.keyOf(s)
	if w, ok := b.handlers.writer(key); ok {
		b.stats.hit()
		return w, nil
	}
	b.stats.miss()

	w, err := b.buildWriter(s)
	if err != nil {
		return nil, err
	}

	b.handlers.putWriter(key, w)
	return w, nil
}

func (b *Buffer) buildWriter(s Schema) (writer, error) {
	switch s := s.(type) {
	case nil:
		return nil, errors.Wrap(ErrInvalidSchema, "nil schema")
	case ByteCount:
		if s < 0 {
			return nil, errors.Wrapf(ErrInvalidSchema, "negative byte count %d", int(s))
		}
		return byteCountWriter(int(s)), nil
	case Primitive:
		return bindWriter(s.Kind, nil)
	case Parametrized:
		return bindWriter(s.Kind, s.Args)
	case Object:
		return b.objectWriter(s)
	case Custom:
		if s.Write == nil {
			return nil, errors.Wrapf(ErrInvalidSchema, "custom schema %q cannot be written", s.Name)
		}
		return s.Write, nil
	}
	return nil, errors.Wrapf(ErrInvalidSchema, "unsupported schema %T", s)
}

func (b *Buffer) objectWriter(o Object) (writer, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	writers := make([]writer, len(o))
	for i, f := range o {
		w, err := b.compileWriter(f.Schema)
		if err != nil {
			return nil, fieldError(err, f.Name, "compile", -1)
		}
		writers[i] = w
	}

	return func(b *Buffer, v any) error {
		get, ok := lookup(v)
		if !ok {
			return newError("write", b.offset, errors.Wrapf(ErrTypeMismatch, "expected a record, got %T", v))
		}

		for i, f := range o {
			val, ok := get(f.Name)
			if !ok {
				return fieldError(ErrMissingField, f.Name, "write", b.offset)
			}

			start := b.offset
			if err := writers[i](b, val); err != nil {
				return fieldError(err, f.Name, "write", start)
			}
		}
		return nil
	}, nil
}

func compileError(op string, offset int, err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return newError(op, offset, err)
}

// Read reads one value described by s. On failure the cursor is left where
// it was.
func (b *Buffer) Read(s Schema) (any, error) {
	r, err := b.compileReader(s)
	if err != nil {
		return nil, compileError("compile", b.offset, err)
	}

	m := b.snapshot()
	v, err := r(b)
	if err != nil {
		b.reset(m)
		return nil, err
	}
	return v, nil
}

// Write writes v as described by s. On failure the cursor and length are
// left where they were, bytes already overwritten are not restored.
func (b *Buffer) Write(v any, s Schema) error {
	w, err := b.compileWriter(s)
	if err != nil {
		return compileError("compile", b.offset, err)
	}

	m := b.snapshot()
	if err := w(b, v); err != nil {
		b.reset(m)
		return err
	}
	return nil
}

// ReadObject reads the fields of o in order into a Record
func (b *Buffer) ReadObject(o Object) (*Record, error) {
	v, err := b.Read(o)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(*Record)
	if !ok {
		return nil, newError("read", b.offset, errors.Wrapf(ErrInvalidSchema, "object handler produced %T, memo key collision", v))
	}
	return rec, nil
}

// WriteObject writes the fields of o in order, taking each value from v which
// may be a *Record, a Record or a map[string]any
func (b *Buffer) WriteObject(v any, o Object) error {
	return b.Write(v, o)
}

// ReadArray reads count consecutive values described by s
func (b *Buffer) ReadArray(s Schema, count int) ([]any, error) {
	if count < 0 {
		return nil, newError("read", b.offset, errors.Wrapf(ErrInvalidSchema, "negative count %d", count))
	}

	r, err := b.compileReader(s)
	if err != nil {
		return nil, compileError("compile", b.offset, err)
	}

	m := b.snapshot()
	// count may come from the data itself, so it only bounds the loop
	out := make([]any, 0, min(count, b.Remaining()))
	for i := 0; i < count; i++ {
		start := b.offset
		v, err := r(b)
		if err != nil {
			b.reset(m)
			return nil, fieldError(err, indexField(i), "read", start)
		}
		out = append(out, v)
	}
	return out, nil
}

// WriteArray writes every element of values as described by s
func (b *Buffer) WriteArray(values []any, s Schema) error {
	w, err := b.compileWriter(s)
	if err != nil {
		return compileError("compile", b.offset, err)
	}

	m := b.snapshot()
	for i, v := range values {
		start := b.offset
		if err := w(b, v); err != nil {
			b.reset(m)
			return fieldError(err, indexField(i), "write", start)
		}
	}
	return nil
}

// Check reports whether a reader can be compiled for s, catching unknown
// kinds and malformed arguments before any buffer is involved
func Check(s Schema) error {
	_, err := (&Buffer{}).buildReader(s)
	return err
}
