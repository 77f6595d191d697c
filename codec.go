package pickle

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Codec maps exported struct fields, in declaration order, onto pickle
// writes and reads. Field plans are computed once per type and cached;
// a Codec is safe for concurrent use.
//
// Struct tag `pickle:"-"` skips a field and `pickle:"string16"` stores a
// string field as UTF-16.
type Codec struct {
	Opts Options
	plan map[reflect.Type]*structPlan
	mu   sync.RWMutex
}

type structPlan struct {
	fields []fieldInfo
}

type fieldInfo struct {
	idx  int
	name string
	kind Kind
}

var defaultCodec = NewCodec(Options{})

// NewCodec returns a Codec producing pickles configured by opts.
func NewCodec(opts Options) *Codec {
	return &Codec{
		Opts: opts,
		plan: make(map[reflect.Type]*structPlan),
	}
}

// Marshal encodes the exported fields of struct v into a new pickle.
func Marshal(v any) ([]byte, error) { return defaultCodec.Marshal(v) }

// Unmarshal decodes a pickle produced by Marshal into the struct pointed to by out.
func Unmarshal(data []byte, out any) error { return defaultCodec.Unmarshal(data, out) }

func (c *Codec) Marshal(v any) ([]byte, error) {
	w, err := NewWriter(c.Opts)
	if err != nil {
		return nil, err
	}
	if err := c.Encode(w, v); err != nil {
		return nil, err
	}
	return w.ToBuffer(), nil
}

func (c *Codec) Unmarshal(data []byte, out any) error {
	p, err := NewPickle(data, c.Opts)
	if err != nil {
		return err
	}
	return c.Decode(p.CreateIterator(), out)
}

// Encode appends the fields of struct v (or pointer to struct) to w.
func (c *Codec) Encode(w *Writer, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return ErrNotStruct
	}
	plan, err := c.getPlan(rv.Type())
	if err != nil {
		return err
	}
	for _, f := range plan.fields {
		fv := rv.Field(f.idx)
		switch f.kind {
		case KindBool:
			w.WriteBool(fv.Bool())
		case KindInt16:
			w.WriteInt16(int16(fv.Int()))
		case KindUInt16:
			w.WriteUInt16(uint16(fv.Uint()))
		case KindInt:
			w.WriteInt(int32(fv.Int()))
		case KindUInt32:
			w.WriteUInt32(uint32(fv.Uint()))
		case KindInt64:
			w.WriteInt64(fv.Int())
		case KindUInt64:
			w.WriteUInt64(fv.Uint())
		case KindFloat:
			w.WriteFloat(float32(fv.Float()))
		case KindDouble:
			w.WriteDouble(fv.Float())
		case KindData:
			w.WriteData(fv.Bytes())
		case KindString:
			w.WriteString(fv.String())
		case KindString16:
			w.WriteString16(fv.String())
		}
	}
	return nil
}

// Decode reads the fields of the struct pointed to by out from it.
// Decoded []byte fields are copies and do not alias the pickle.
func (c *Codec) Decode(it *Iterator, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPtr
	}
	dst := rv.Elem()
	plan, err := c.getPlan(dst.Type())
	if err != nil {
		return err
	}
	for _, f := range plan.fields {
		if err := decodeField(it, dst.Field(f.idx), f.kind); err != nil {
			return errors.Wrapf(err, "field %s", f.name)
		}
	}
	return nil
}

func decodeField(it *Iterator, fv reflect.Value, k Kind) error {
	switch k {
	case KindBool:
		v, err := it.ReadBool()
		if err != nil {
			return err
		}
		fv.SetBool(v)
	case KindInt16, KindInt, KindInt64:
		v, err := it.ReadValue(k)
		if err != nil {
			return err
		}
		n := reflect.ValueOf(v).Int()
		if fv.OverflowInt(n) {
			return errors.Wrapf(ErrOverflow, "%d does not fit %s", n, fv.Type())
		}
		fv.SetInt(n)
	case KindUInt16, KindUInt32, KindUInt64:
		v, err := it.ReadValue(k)
		if err != nil {
			return err
		}
		n := reflect.ValueOf(v).Uint()
		if fv.OverflowUint(n) {
			return errors.Wrapf(ErrOverflow, "%d does not fit %s", n, fv.Type())
		}
		fv.SetUint(n)
	case KindFloat:
		v, err := it.ReadFloat()
		if err != nil {
			return err
		}
		fv.SetFloat(float64(v))
	case KindDouble:
		v, err := it.ReadDouble()
		if err != nil {
			return err
		}
		fv.SetFloat(v)
	case KindData:
		v, err := it.ReadData()
		if err != nil {
			return err
		}
		fv.SetBytes(append([]byte(nil), v...))
	case KindString:
		v, err := it.ReadString()
		if err != nil {
			return err
		}
		fv.SetString(v)
	case KindString16:
		v, err := it.ReadString16()
		if err != nil {
			return err
		}
		fv.SetString(v)
	}
	return nil
}

func (c *Codec) getPlan(t reflect.Type) (*structPlan, error) {
	c.mu.RLock()
	if plan, ok := c.plan[t]; ok {
		c.mu.RUnlock()
		return plan, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if plan, ok := c.plan[t]; ok {
		return plan, nil
	}

	plan := &structPlan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("pickle")
		if tag == "-" {
			continue
		}
		k := fieldKind(sf.Type)
		if k == KindString && tag == "string16" {
			k = KindString16
		}
		if k == KindInvalid {
			return nil, errors.Wrapf(ErrUnsupported, "field %s of type %s", sf.Name, sf.Type)
		}
		plan.fields = append(plan.fields, fieldInfo{idx: i, name: sf.Name, kind: k})
	}

	c.plan[t] = plan
	return plan, nil
}

func fieldKind(t reflect.Type) Kind {
	switch t.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int8, reflect.Int16:
		return KindInt16
	case reflect.Uint8, reflect.Uint16:
		return KindUInt16
	case reflect.Int32:
		return KindInt
	case reflect.Uint32:
		return KindUInt32
	case reflect.Int, reflect.Int64:
		return KindInt64
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return KindUInt64
	case reflect.Float32:
		return KindFloat
	case reflect.Float64:
		return KindDouble
	case reflect.String:
		return KindString
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindData
		}
	}
	return KindInvalid
}
