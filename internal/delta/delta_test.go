package delta

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/k4210/dtengine/internal/load"
	"github.com/k4210/dtengine/internal/save"
	"github.com/k4210/dtengine/internal/typereg"
	"github.com/k4210/dtengine/pkg/types"
)

type widgetDL struct {
	A int32   `dt:"a"`
	B string  `dt:"b"`
	C []int32 `dt:"c"`
}

func buildWidgetDL(t *testing.T) (*typereg.Registry, types.StructID) {
	t.Helper()
	r := typereg.NewRegistry()
	s, err := typereg.NewStructureBuilder(r, reflect.TypeOf(widgetDL{})).Build()
	require.NoError(t, err, "build widget")
	return r, s.ID
}

func TestMergeOfDiffReconstructsHigher(t *testing.T) {
	r, id := buildWidgetDL(t)

	lowerObj := widgetDL{A: 1, B: "x", C: []int32{1, 2}}
	higherObj := widgetDL{A: 2, B: "x", C: []int32{1, 2, 3}}

	lowerDT, err := save.Save(r, id, &lowerObj, types.SaveFlagsNone)
	require.NoError(t, err, "save lower")
	higherDT, err := save.Save(r, id, &higherObj, types.SaveFlagsNone)
	require.NoError(t, err, "save higher")

	diffDT, err := Diff(r, higherDT, lowerDT)
	require.NoError(t, err)

	lowerDT2, err := save.Save(r, id, &lowerObj, types.SaveFlagsNone)
	require.NoError(t, err, "re-save lower")
	mergedDT, err := Merge(r, lowerDT2, diffDT)
	require.NoError(t, err)

	var out widgetDL
	require.NoError(t, load.Load(r, mergedDT, &out))
	require.Equal(t, higherObj, out, "merge(lower, diff(higher,lower)) should reconstruct higher")
}

func TestDiffDropsUnchangedScalar(t *testing.T) {
	r, id := buildWidgetDL(t)
	obj := widgetDL{A: 5, B: "same", C: []int32{9}}

	lowerDT, err := save.Save(r, id, &obj, types.SaveFlagsNone)
	require.NoError(t, err, "save lower")
	higherDT, err := save.Save(r, id, &obj, types.SaveFlagsNone)
	require.NoError(t, err, "save higher")

	diffDT, err := Diff(r, higherDT, lowerDT)
	require.NoError(t, err)
	require.Empty(t, diffDT.Tags, "diff of identical templates should be empty")
}

func TestMergeKeepsLowerOnlyElementWithinBounds(t *testing.T) {
	r, id := buildWidgetDL(t)
	// Same vector length in both; higher elides its middle element (a
	// native default) while lower has a non-default value there. Merge
	// must preserve lower's value since the element index is still within
	// higher's declared length ("lower-only, within bound").
	lowerObj := widgetDL{A: 1, B: "x", C: []int32{1, 2, 3}}
	higherObj := widgetDL{A: 1, B: "x", C: []int32{1, 0, 3}}

	lowerDT, err := save.Save(r, id, &lowerObj, types.SaveFlagsNone)
	require.NoError(t, err, "save lower")
	higherDT, err := save.Save(r, id, &higherObj, types.SkipNativeDefaultValues)
	require.NoError(t, err, "save higher")

	mergedDT, err := Merge(r, lowerDT, higherDT)
	require.NoError(t, err)
	var out widgetDL
	require.NoError(t, load.Load(r, mergedDT, &out))
	require.Equal(t, widgetDL{A: 1, B: "x", C: []int32{1, 2, 3}}, out, "merge should keep lower's middle element")
}
