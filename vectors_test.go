package pickle

import (
	"encoding/hex"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type vectorValue struct {
	Kind  string    `yaml:"kind"`
	Value yaml.Node `yaml:"value"`
}

type vector struct {
	Name   string        `yaml:"name"`
	Values []vectorValue `yaml:"values"`
	Hex    string        `yaml:"hex"`
}

func loadVectors(t *testing.T) []vector {
	t.Helper()
	raw, err := os.ReadFile("testdata/vectors.yaml")
	require.NoError(t, err)
	var vs []vector
	require.NoError(t, yaml.Unmarshal(raw, &vs))
	require.NotEmpty(t, vs)
	return vs
}

func decodeAs[T any](t *testing.T, n *yaml.Node) T {
	t.Helper()
	var x T
	require.NoError(t, n.Decode(&x))
	return x
}

// goValue decodes the YAML scalar into the Go type ReadValue returns for k.
func goValue(t *testing.T, k Kind, n *yaml.Node) any {
	t.Helper()
	switch k {
	case KindBool:
		return decodeAs[bool](t, n)
	case KindInt16:
		return decodeAs[int16](t, n)
	case KindUInt16:
		return decodeAs[uint16](t, n)
	case KindInt:
		return decodeAs[int32](t, n)
	case KindUInt32:
		return decodeAs[uint32](t, n)
	case KindInt64:
		return decodeAs[int64](t, n)
	case KindUInt64:
		return decodeAs[uint64](t, n)
	case KindFloat:
		return decodeAs[float32](t, n)
	case KindDouble:
		return decodeAs[float64](t, n)
	case KindData:
		b, err := hex.DecodeString(decodeAs[string](t, n))
		require.NoError(t, err)
		return b
	case KindString, KindString16:
		return decodeAs[string](t, n)
	}
	t.Fatalf("no vector decoding for kind %s", k)
	return nil
}

func TestVectors(t *testing.T) {
	for _, vec := range loadVectors(t) {
		t.Run(vec.Name, func(t *testing.T) {
			want, err := hex.DecodeString(vec.Hex)
			require.NoError(t, err)

			kinds := make([]Kind, 0, len(vec.Values))
			values := make([]any, 0, len(vec.Values))
			w := CreateEmpty()
			for _, vv := range vec.Values {
				k, err := ParseKind(vv.Kind)
				require.NoError(t, err)
				v := goValue(t, k, &vv.Value)
				require.NoError(t, w.WriteValue(k, v))
				kinds = append(kinds, k)
				values = append(values, v)
			}
			require.Equal(t, want, w.ToBuffer(), "encoding")

			p, err := CreateFromBuffer(want)
			require.NoError(t, err)
			it := p.CreateIterator()
			got, err := it.ReadKinds(kinds...)
			require.NoError(t, err)
			require.Equal(t, values, got)
			require.True(t, it.Done())
		})
	}
}
