package pickle

import (
	"math"
	"sync"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MixedStruct struct {
	Val      string
	Mod      int8
	Data     []byte
	Integers int16
	Float3   float32
	Float6   float64
	Wide     string `pickle:"string16"`
	Skipped  string `pickle:"-"`
	hidden   int
}

func FuzzCodecEncodeDecode(f *testing.F) {
	f.Add("azerty", int8(17), []byte("bin"), int16(12), float32(12.3), 1236.2, "wide")
	f.Fuzz(fuzzMixedTypes)
}

func fuzzMixedTypes(t *testing.T, val string, mod int8, data []byte, integers int16, f32 float32, f64 float64, wide string) {
	in := MixedStruct{Val: val, Mod: mod, Data: data, Integers: integers, Float3: f32, Float6: f64, Wide: wide}
	if data == nil {
		in.Data = []byte{}
	}
	out := &MixedStruct{}
	b, err := Marshal(in)
	require.NoError(t, err)
	require.NoError(t, Unmarshal(b, out))
	require.Equal(t, in.Val, out.Val)
	require.Equal(t, in.Mod, out.Mod)
	require.Equal(t, in.Data, out.Data)
	require.Equal(t, in.Integers, out.Integers)
	require.Equal(t, math.Float32bits(in.Float3), math.Float32bits(out.Float3))
	require.Equal(t, math.Float64bits(in.Float6), math.Float64bits(out.Float6))
}

func TestCodecSimpleTypes(t *testing.T) {
	in := MixedStruct{
		Val: "azerty", Mod: -17, Data: []byte("testing"), Integers: 12,
		Float3: 12.3, Float6: 1236.2, Wide: "女の子", Skipped: "gone", hidden: 3,
	}
	b, err := Marshal(&in)
	require.NoError(t, err)

	out := &MixedStruct{}
	require.NoError(t, Unmarshal(b, out))
	require.Equal(t, in.Val, out.Val)
	require.Equal(t, in.Mod, out.Mod)
	require.Equal(t, in.Data, out.Data)
	require.Equal(t, in.Wide, out.Wide)
	require.Empty(t, out.Skipped)
	require.Zero(t, out.hidden)
}

func TestCodecMatchesManualWrites(t *testing.T) {
	type pair struct {
		Flag bool
		Name string
	}
	b, err := Marshal(pair{Flag: true, Name: "ok"})
	require.NoError(t, err)

	w := CreateEmpty()
	w.WriteBool(true)
	w.WriteString("ok")
	require.Equal(t, w.ToBuffer(), b)
}

func TestCodecIntegers(t *testing.T) {
	type ints struct {
		Int1  uint8
		Int2  int8
		Int3  uint16
		Int4  int16
		Int5  uint32
		Int6  int32
		Int7  uint64
		Int8  int64
		Int9  int
		Int10 uint
		Const bool
	}
	c := NewCodec(Options{})
	condition := func(z ints) bool {
		data, err := c.Marshal(z)
		require.NoError(t, err)
		res := &ints{}
		require.NoError(t, c.Unmarshal(data, res))
		return assert.ObjectsAreEqual(z, *res)
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))
}

func TestCodecCustomHeader(t *testing.T) {
	type small struct{ A uint32 }
	c := NewCodec(Options{HeaderSize: 16})
	b, err := c.Marshal(small{A: 5})
	require.NoError(t, err)
	require.Len(t, b, 20)

	var out small
	require.NoError(t, c.Unmarshal(b, &out))
	require.EqualValues(t, 5, out.A)
}

func TestCodecErrors(t *testing.T) {
	type withMap struct{ M map[string]int }
	type withSlice struct{ S []string }

	_, err := Marshal(42)
	require.ErrorIs(t, err, ErrNotStruct)
	_, err = Marshal(withMap{})
	require.ErrorIs(t, err, ErrUnsupported)
	_, err = Marshal(withSlice{})
	require.ErrorIs(t, err, ErrUnsupported)

	var out MixedStruct
	require.ErrorIs(t, Unmarshal([]byte{0, 0, 0, 0}, out), ErrNotStructPtr)
	require.ErrorIs(t, Unmarshal([]byte{0, 0, 0, 0}, (*MixedStruct)(nil)), ErrNotStructPtr)
	require.ErrorIs(t, Unmarshal([]byte{1, 0}, &out), ErrMalformedHeader)

	err = Unmarshal([]byte{0, 0, 0, 0}, &out)
	require.ErrorIs(t, err, ErrOutOfRange)
	require.Contains(t, err.Error(), "field Val")
}

func TestCodecOverflow(t *testing.T) {
	type wide struct{ V int16 }
	type narrow struct{ V int8 }
	type wideU struct{ V uint16 }
	type narrowU struct{ V uint8 }

	b, err := Marshal(wide{V: 300})
	require.NoError(t, err)
	require.ErrorIs(t, Unmarshal(b, &narrow{}), ErrOverflow)

	b, err = Marshal(wideU{V: 256})
	require.NoError(t, err)
	require.ErrorIs(t, Unmarshal(b, &narrowU{}), ErrOverflow)

	b, err = Marshal(wide{V: -128})
	require.NoError(t, err)
	var n narrow
	require.NoError(t, Unmarshal(b, &n))
	require.EqualValues(t, -128, n.V)
}

func TestCodecDecodedBytesAreCopies(t *testing.T) {
	type blob struct{ B []byte }
	b, err := Marshal(blob{B: []byte{1, 2, 3}})
	require.NoError(t, err)
	var out blob
	require.NoError(t, Unmarshal(b, &out))
	b[8] = 0xff
	require.Equal(t, []byte{1, 2, 3}, out.B)
}

func TestCodecConcurrentPlans(t *testing.T) {
	c := NewCodec(Options{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := MixedStruct{Val: "v", Mod: int8(i), Data: []byte{byte(i)}}
			b, err := c.Marshal(in)
			assert.NoError(t, err)
			var out MixedStruct
			assert.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in.Mod, out.Mod)
		}(i)
	}
	wg.Wait()
	require.Len(t, c.plan, 1)
}
