// Package schema describes the field order of a pickle in TOML so tools
// can decode pickles they did not write.
//
//	header_size = 4
//
//	[[field]]
//	name = "is_dir"
//	kind = "bool"
//
//	[[field]]
//	name = "magic"
//	kind = "bytes"
//	size = 4
package schema

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/rawbytedev/pickle"
)

var (
	ErrInvalidSchema = errors.New("schema: invalid")
	ErrValueCount    = errors.New("schema: value count mismatch")
	ErrTrailing      = errors.New("schema: unread payload bytes")
)

// Field is one value in a pickle. A Size above zero marks raw bytes
// written with WriteBytes; Kind is then KindData.
type Field struct {
	Name string
	Kind pickle.Kind
	Size int
}

func (f Field) String() string {
	if f.Size > 0 {
		return "bytes"
	}
	return f.Kind.String()
}

type Schema struct {
	HeaderSize int
	Fields     []Field
}

// Value is a decoded field.
type Value struct {
	Field Field
	V     any
}

type fileField struct {
	Name string `toml:"name"`
	Kind string `toml:"kind"`
	Size int    `toml:"size"`
}

type fileSchema struct {
	HeaderSize int         `toml:"header_size"`
	Fields     []fileField `toml:"field"`
}

// Load reads a schema file.
func Load(path string) (*Schema, error) {
	var raw fileSchema
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.Wrapf(err, "load schema %s", path)
	}
	return build(raw, meta)
}

// Parse reads a schema from TOML text.
func Parse(text string) (*Schema, error) {
	var raw fileSchema
	meta, err := toml.Decode(text, &raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse schema")
	}
	return build(raw, meta)
}

func build(raw fileSchema, meta toml.MetaData) (*Schema, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Wrapf(ErrInvalidSchema, "unknown key %s", undecoded[0])
	}
	s := &Schema{HeaderSize: pickle.DefaultHeaderSize}
	if meta.IsDefined("header_size") {
		if _, err := pickle.NewWriter(pickle.Options{HeaderSize: raw.HeaderSize}); err != nil || raw.HeaderSize == 0 {
			return nil, errors.Wrapf(ErrInvalidSchema, "header_size %d", raw.HeaderSize)
		}
		s.HeaderSize = raw.HeaderSize
	}

	seen := make(map[string]bool, len(raw.Fields))
	for i, ff := range raw.Fields {
		name := strings.TrimSpace(ff.Name)
		if name == "" {
			return nil, errors.Wrapf(ErrInvalidSchema, "field %d has no name", i)
		}
		if seen[name] {
			return nil, errors.Wrapf(ErrInvalidSchema, "duplicate field %q", name)
		}
		seen[name] = true

		f := Field{Name: name}
		if strings.EqualFold(strings.TrimSpace(ff.Kind), "bytes") {
			if ff.Size <= 0 {
				return nil, errors.Wrapf(ErrInvalidSchema, "field %q: bytes needs a positive size", name)
			}
			f.Kind, f.Size = pickle.KindData, ff.Size
		} else {
			k, err := pickle.ParseKind(ff.Kind)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidSchema, "field %q: %v", name, err)
			}
			if ff.Size != 0 {
				return nil, errors.Wrapf(ErrInvalidSchema, "field %q: size only applies to bytes", name)
			}
			f.Kind = k
		}
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

// Options returns the pickle options matching the schema header.
func (s *Schema) Options() pickle.Options {
	return pickle.Options{HeaderSize: s.HeaderSize}
}

// Decode reads every field from p. On failure the values decoded so far
// are returned with the error. Payload left over after the last field is
// reported as ErrTrailing.
func (s *Schema) Decode(p *pickle.Pickle) ([]Value, error) {
	if p.HeaderSize() != s.HeaderSize {
		return nil, errors.Wrapf(ErrInvalidSchema, "pickle header is %d bytes, schema expects %d", p.HeaderSize(), s.HeaderSize)
	}
	it := p.CreateIterator()
	out := make([]Value, 0, len(s.Fields))
	for _, f := range s.Fields {
		var v any
		var err error
		if f.Size > 0 {
			v, err = it.ReadBytes(f.Size)
		} else {
			v, err = it.ReadValue(f.Kind)
		}
		if err != nil {
			return out, errors.Wrapf(err, "field %s (%s)", f.Name, f)
		}
		out = append(out, Value{Field: f, V: v})
	}
	if !it.Done() {
		return out, errors.Wrapf(ErrTrailing, "%d bytes", it.Remaining())
	}
	return out, nil
}

// Encode writes values in field order and returns the finished pickle.
func (s *Schema) Encode(values []any) ([]byte, error) {
	if len(values) != len(s.Fields) {
		return nil, errors.Wrapf(ErrValueCount, "got %d values for %d fields", len(values), len(s.Fields))
	}
	w, err := pickle.NewWriter(s.Options())
	if err != nil {
		return nil, err
	}
	for i, f := range s.Fields {
		if f.Size > 0 {
			b, ok := values[i].([]byte)
			if !ok || len(b) != f.Size {
				return nil, errors.Wrapf(pickle.ErrUnsupported, "field %s wants %d raw bytes", f.Name, f.Size)
			}
			w.WriteBytes(b)
			continue
		}
		if err := w.WriteValue(f.Kind, values[i]); err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
	}
	return w.ToBuffer(), nil
}
