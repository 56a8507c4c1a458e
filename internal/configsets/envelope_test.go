package configsets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSquashDropsHeaderAndKeepsOrder(t *testing.T) {
	r := require.New(t)

	env := NewEnvelope()
	r.True(env.HTTPCaching())
	r.NoError(env.Squash(&UploadResult{
		Header:  ResponseHeader{Status: 0, QTime: 12},
		Name:    "foo",
		Files:   []string{"solrconfig.xml"},
		Created: true,
	}))

	r.Equal([]string{"name", "files", "created"}, env.Keys())
	_, ok := env.Get("responseHeader")
	r.False(ok)

	raw, err := json.Marshal(env)
	r.NoError(err)
	r.Equal(`{"name":"foo","files":["solrconfig.xml"],"created":true}`, string(raw))
}

func TestSquashMergesResults(t *testing.T) {
	r := require.New(t)

	env := NewEnvelope()
	r.NoError(env.Squash(map[string]any{"a": 1}))
	r.NoError(env.Squash(map[string]any{"a": 2, "b": 3}))

	var out map[string]int
	r.NoError(env.Decode(&out))
	r.Equal(map[string]int{"a": 2, "b": 3}, out)
	r.Equal([]string{"a", "b"}, env.Keys())
}

func TestSquashNilResult(t *testing.T) {
	r := require.New(t)

	env := NewEnvelope()
	var res *ListResult
	r.NoError(env.Squash(res))
	r.Empty(env.Keys())

	raw, err := env.MarshalJSON()
	r.NoError(err)
	r.Equal("{}", string(raw))
}

func TestSquashRejectsNonObject(t *testing.T) {
	require.Error(t, NewEnvelope().Squash([]string{"x"}))
}
