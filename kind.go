package pickle

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind names a value type that can be written to and read from a pickle.
// Kinds are never stored on the wire; they describe what the reader
// expects next.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt16
	KindUInt16
	KindInt
	KindUInt32
	KindInt64
	KindUInt64
	KindFloat
	KindDouble
	KindData
	KindString
	KindString16
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindBool:     "bool",
	KindInt16:    "int16",
	KindUInt16:   "uint16",
	KindInt:      "int",
	KindUInt32:   "uint32",
	KindInt64:    "int64",
	KindUInt64:   "uint64",
	KindFloat:    "float",
	KindDouble:   "double",
	KindData:     "data",
	KindString:   "string",
	KindString16: "string16",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a kind name back to its Kind. Matching is case-insensitive;
// "int32" and "float32"/"float64" are accepted as aliases.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "int32":
		return KindInt, nil
	case "float32":
		return KindFloat, nil
	case "float64":
		return KindDouble, nil
	}
	for k, n := range kindNames {
		if k != int(KindInvalid) && n == name {
			return Kind(k), nil
		}
	}
	return KindInvalid, errors.Wrapf(ErrUnsupported, "unknown kind %q", s)
}

// FixedSize returns the unpadded width of fixed-size kinds and -1 for
// length-prefixed ones.
func (k Kind) FixedSize() int {
	switch k {
	case KindInt16, KindUInt16:
		return 2
	case KindBool, KindInt, KindUInt32, KindFloat:
		return 4
	case KindInt64, KindUInt64, KindDouble:
		return 8
	default:
		return -1
	}
}

// WriteValue writes v as kind k. v must have the Go type ReadValue
// returns for k: bool, int16, uint16, int32, uint32, int64, uint64,
// float32, float64, []byte or string.
func (w *Writer) WriteValue(k Kind, v any) error {
	ok := true
	switch k {
	case KindBool:
		var x bool
		if x, ok = v.(bool); ok {
			w.WriteBool(x)
		}
	case KindInt16:
		var x int16
		if x, ok = v.(int16); ok {
			w.WriteInt16(x)
		}
	case KindUInt16:
		var x uint16
		if x, ok = v.(uint16); ok {
			w.WriteUInt16(x)
		}
	case KindInt:
		var x int32
		if x, ok = v.(int32); ok {
			w.WriteInt(x)
		}
	case KindUInt32:
		var x uint32
		if x, ok = v.(uint32); ok {
			w.WriteUInt32(x)
		}
	case KindInt64:
		var x int64
		if x, ok = v.(int64); ok {
			w.WriteInt64(x)
		}
	case KindUInt64:
		var x uint64
		if x, ok = v.(uint64); ok {
			w.WriteUInt64(x)
		}
	case KindFloat:
		var x float32
		if x, ok = v.(float32); ok {
			w.WriteFloat(x)
		}
	case KindDouble:
		var x float64
		if x, ok = v.(float64); ok {
			w.WriteDouble(x)
		}
	case KindData:
		var x []byte
		if x, ok = v.([]byte); ok {
			w.WriteData(x)
		}
	case KindString:
		var x string
		if x, ok = v.(string); ok {
			w.WriteString(x)
		}
	case KindString16:
		var x string
		if x, ok = v.(string); ok {
			w.WriteString16(x)
		}
	default:
		return errors.Wrapf(ErrUnsupported, "kind %s", k)
	}
	if !ok {
		return errors.Wrapf(ErrUnsupported, "%T cannot be written as %s", v, k)
	}
	return nil
}

// ReadValue reads the next value as kind k.
func (it *Iterator) ReadValue(k Kind) (any, error) {
	switch k {
	case KindBool:
		return it.ReadBool()
	case KindInt16:
		return it.ReadInt16()
	case KindUInt16:
		return it.ReadUInt16()
	case KindInt:
		return it.ReadInt()
	case KindUInt32:
		return it.ReadUInt32()
	case KindInt64:
		return it.ReadInt64()
	case KindUInt64:
		return it.ReadUInt64()
	case KindFloat:
		return it.ReadFloat()
	case KindDouble:
		return it.ReadDouble()
	case KindData:
		return it.ReadData()
	case KindString:
		return it.ReadString()
	case KindString16:
		return it.ReadString16()
	default:
		return nil, errors.Wrapf(ErrUnsupported, "kind %s", k)
	}
}

// ReadKinds reads one value per kind, stopping at the first error.
func (it *Iterator) ReadKinds(kinds ...Kind) ([]any, error) {
	out := make([]any, 0, len(kinds))
	for i, k := range kinds {
		v, err := it.ReadValue(k)
		if err != nil {
			return out, errors.Wrapf(err, "field %d (%s)", i, k)
		}
		out = append(out, v)
	}
	return out, nil
}
