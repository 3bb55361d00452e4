package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type columnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func TestCodecs(t *testing.T) {
	in := []columnInfo{{"id", "Int"}, {"label", "String"}}

	for _, name := range []string{"json", "go-json"} {
		t.Run(name, func(t *testing.T) {
			c, err := ByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			b, err := c.Marshal(in)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"name":"id","type":"Int"},{"name":"label","type":"String"}]`, string(b))

			var out []columnInfo
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in, out)
		})
	}

	_, err := ByName("xml")
	assert.Error(t, err)
	assert.Equal(t, "go-json", Default.Name())
}

func BenchmarkGoJSON(b *testing.B) {
	v := map[string]any{"Name": "price", "Index": 3, "Mean": 1.5}
	b.ReportAllocs()
	for b.Loop() {
		_, _ = GoJSON{}.Marshal(v)
	}
}
