package save

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/k4210/dtengine/internal/typereg"
	"github.com/k4210/dtengine/pkg/types"
)

type innerSV struct {
	A int32 `dt:"a"`
}

type sampleSV struct {
	Name   string           `dt:"name"`
	Values []int32          `dt:"values"`
	Tags   map[string]int32 `dt:"tags"`
	Inner  innerSV          `dt:"inner"`
	Arr    [3]int32         `dt:"arr"`
}

func buildSampleSV(t *testing.T) (*typereg.Registry, types.StructID) {
	t.Helper()
	r := typereg.NewRegistry()
	_, err := typereg.NewStructureBuilder(r, reflect.TypeOf(innerSV{})).Build()
	require.NoError(t, err, "build inner")
	s, err := typereg.NewStructureBuilder(r, reflect.TypeOf(sampleSV{})).Build()
	require.NoError(t, err, "build sample")
	return r, s.ID
}

func TestSaveProducesOneTagPerWrittenProperty(t *testing.T) {
	r, id := buildSampleSV(t)
	obj := sampleSV{
		Name:   "hello",
		Values: []int32{1, 2, 3},
		Tags:   map[string]int32{"b": 2, "a": 1},
		Inner:  innerSV{A: 7},
		Arr:    [3]int32{9, 0, 0},
	}
	dt, err := Save(r, id, &obj, types.SaveFlagsNone)
	require.NoError(t, err)
	require.False(t, dt.IsEmpty(), "expected populated template")

	// name, values(+3 elems), tags(+2 pairs = 4 tags), inner(+1), arr(+3 elems)
	want := 1 + (1 + 3) + (1 + 4) + (1 + 1) + (1 + 3)
	require.Len(t, dt.Tags, want)
}

func TestSaveSkipsDefaultsWhenFlagSet(t *testing.T) {
	r, id := buildSampleSV(t)
	obj := sampleSV{}
	dt, err := Save(r, id, &obj, types.SkipNativeDefaultValues)
	require.NoError(t, err)
	// name elided, empty values/tags elided (no length-prefix tags), inner.A elided, arr elements elided
	for _, tag := range dt.Tags {
		require.False(t, tag.IsKey, "unexpected key tag in all-default object: %+v", tag)
	}
}

func TestSaveOnPopulatedTemplatePanics(t *testing.T) {
	r, id := buildSampleSV(t)
	obj := sampleSV{Name: "x"}
	dt, err := Save(r, id, &obj, types.SaveFlagsNone)
	require.NoError(t, err)
	require.Panics(t, func() { dt.MarkPopulated(id) }, "expected panic re-populating a populated template")
}

func TestMapKeysAreSortedAscending(t *testing.T) {
	r, id := buildSampleSV(t)
	obj := sampleSV{Tags: map[string]int32{"z": 1, "a": 2, "m": 3}}
	dt, err := Save(r, id, &obj, types.SaveFlagsNone)
	require.NoError(t, err)

	var keys []string
	for i, tag := range dt.Tags {
		if tag.IsKey {
			keys = append(keys, string(dt.PayloadFor(i)[2:]))
		}
	}
	require.Equal(t, []string{"a", "m", "z"}, keys)
}
