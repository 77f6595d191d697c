package pickle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindStringAndParse(t *testing.T) {
	for k := KindBool; k <= KindString16; k++ {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, got)
	}
	require.Equal(t, "Kind(99)", Kind(99).String())

	for alias, want := range map[string]Kind{
		"int32": KindInt, "Float32": KindFloat, " float64 ": KindDouble, "STRING16": KindString16,
	} {
		got, err := ParseKind(alias)
		require.NoError(t, err)
		require.Equal(t, want, got, alias)
	}

	_, err := ParseKind("invalid")
	require.ErrorIs(t, err, ErrUnsupported)
	_, err = ParseKind("complex128")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestKindFixedSize(t *testing.T) {
	require.Equal(t, 2, KindInt16.FixedSize())
	require.Equal(t, 4, KindBool.FixedSize())
	require.Equal(t, 4, KindFloat.FixedSize())
	require.Equal(t, 8, KindDouble.FixedSize())
	require.Equal(t, -1, KindData.FixedSize())
	require.Equal(t, -1, KindString16.FixedSize())
	require.Equal(t, -1, KindInvalid.FixedSize())
}

func TestWriteReadValue(t *testing.T) {
	values := []struct {
		kind Kind
		v    any
	}{
		{KindBool, true},
		{KindInt16, int16(-300)},
		{KindUInt16, uint16(65000)},
		{KindInt, int32(-70000)},
		{KindUInt32, uint32(4000000000)},
		{KindInt64, int64(-1 << 50)},
		{KindUInt64, uint64(1 << 63)},
		{KindFloat, float32(2.5)},
		{KindDouble, 6.25},
		{KindData, []byte{7, 7}},
		{KindString, "plain"},
		{KindString16, "wide"},
	}
	w := CreateEmpty()
	kinds := make([]Kind, 0, len(values))
	for _, v := range values {
		require.NoError(t, w.WriteValue(v.kind, v.v))
		kinds = append(kinds, v.kind)
	}

	p, err := CreateFromBuffer(w.ToBuffer())
	require.NoError(t, err)
	got, err := p.CreateIterator().ReadKinds(kinds...)
	require.NoError(t, err)
	require.Len(t, got, len(values))
	for i, v := range values {
		require.Equal(t, v.v, got[i], v.kind.String())
	}
}

func TestWriteValueTypeMismatch(t *testing.T) {
	w := CreateEmpty()
	require.ErrorIs(t, w.WriteValue(KindInt, 5), ErrUnsupported)
	require.ErrorIs(t, w.WriteValue(KindString, []byte("x")), ErrUnsupported)
	require.ErrorIs(t, w.WriteValue(KindInvalid, nil), ErrUnsupported)
	require.Equal(t, 0, w.PayloadSize())
}

func TestReadKindsStopsAtFirstError(t *testing.T) {
	w := CreateEmpty()
	w.WriteInt(1)
	w.WriteString("two")
	p, err := CreateFromBuffer(w.ToBuffer())
	require.NoError(t, err)

	got, err := p.CreateIterator().ReadKinds(KindInt, KindString, KindDouble)
	require.ErrorIs(t, err, ErrOutOfRange)
	require.Contains(t, err.Error(), "field 2 (double)")
	require.Equal(t, []any{int32(1), "two"}, got)

	_, err = p.CreateIterator().ReadValue(Kind(200))
	require.ErrorIs(t, err, ErrUnsupported)
}
