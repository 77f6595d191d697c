package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlignInt(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 0}, {1, 4}, {3, 4}, {4, 4}, {5, 8}, {13, 16}, {64, 64},
	}
	for _, c := range cases {
		require.Equal(t, c.want, AlignInt(c.in, Alignment), "AlignInt(%d)", c.in)
		require.Equal(t, c.want-c.in, PadLen(c.in), "PadLen(%d)", c.in)
	}
	require.Equal(t, 128, AlignInt(65, 64))
}

func TestToUint32(t *testing.T) {
	v, err := ToUint32(42)
	require.NoError(t, err)
	require.EqualValues(t, 42, v)

	_, err = ToUint32(-1)
	require.Error(t, err)
	if math.MaxInt > math.MaxUint32 {
		_, err = ToUint32(math.MaxUint32 + 1)
		require.Error(t, err)
	}
}

func TestUTF16RoundTrip(t *testing.T) {
	for _, s := range []string{"", "hi", "女の子.txt", "emoji \U0001F600 pair"} {
		b, n := AppendUTF16(nil, s)
		require.Len(t, b, 2*n)
		require.Equal(t, s, DecodeUTF16(b))
	}
	// surrogate pair counts as two code units
	_, n := AppendUTF16(nil, "\U0001F600")
	require.Equal(t, 2, n)
}

func TestUTF16LittleEndian(t *testing.T) {
	b, n := AppendUTF16([]byte{0xAA}, "hi")
	require.Equal(t, 2, n)
	require.Equal(t, []byte{0xAA, 'h', 0, 'i', 0}, b)
}

func TestDecodeUTF16LoneSurrogate(t *testing.T) {
	require.Equal(t, "\uFFFD", DecodeUTF16([]byte{0x00, 0xD8}))
}
