package layout

import (
	"testing"

	"github.com/k4210/dtengine/internal/codec"
	"github.com/k4210/dtengine/internal/typereg"
	"github.com/k4210/dtengine/pkg/dtcore"
	"github.com/k4210/dtengine/pkg/types"
)

const widgetID = types.StructID(42)

func buildWidgetTemplate(t *testing.T, r *typereg.Registry, a, b int32) *dtcore.DataTemplate {
	t.Helper()
	structure, err := r.GetStructure(widgetID)
	if err != nil {
		t.Fatalf("get widget structure: %v", err)
	}

	dt := dtcore.NewEmptyDataTemplate()
	for i, p := range []struct {
		id  types.PropertyID
		val int32
	}{{types.PropertyID(1), a}, {types.PropertyID(2), b}} {
		idx := structure.GetMainPropertyIndex(p.id)
		if idx == types.PropertyIndex(types.WrongID) {
			continue
		}
		dataOffset := uint32(len(dt.Data))
		dt.Tags = append(dt.Tags, dtcore.NewTag(p.id, dataOffset, 0, 0, false, types.KindInt32, 0, idx, 0))
		dt.Data = codec.AppendScalar(dt.Data, types.KindInt32, p.val)
		_ = i
	}
	dt.MarkPopulated(widgetID)
	return dt
}

func TestRefreshAfterLayoutChangedDropsRemovedProperty(t *testing.T) {
	oldReg := typereg.NewRegistry()
	oldStruct, err := oldReg.CreateStructure(widgetID, 0, types.StructID(types.WrongID), "Widget")
	if err != nil {
		t.Fatalf("create old structure: %v", err)
	}
	oldStruct.AddProperty(typereg.Property{Usage: types.UsageMain, Kind: types.KindInt32, Name: "a", ID: types.PropertyID(1)})
	oldStruct.AddProperty(typereg.Property{Usage: types.UsageMain, Kind: types.KindInt32, Name: "b", ID: types.PropertyID(2)})

	dt := buildWidgetTemplate(t, oldReg, 5, 7)
	if len(dt.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(dt.Tags))
	}

	newReg := typereg.NewRegistry()
	newStruct, err := newReg.CreateStructure(widgetID, 0, types.StructID(types.WrongID), "Widget")
	if err != nil {
		t.Fatalf("create new structure: %v", err)
	}
	newStruct.AddProperty(typereg.Property{Usage: types.UsageMain, Kind: types.KindInt32, Name: "a", ID: types.PropertyID(1)})
	// property "b" removed in the new layout.

	refreshed, err := RefreshAfterLayoutChanged(newReg, dt)
	if err != nil {
		t.Fatalf("RefreshAfterLayoutChanged: %v", err)
	}
	if len(refreshed.Tags) != 1 {
		t.Fatalf("expected 1 surviving tag, got %d", len(refreshed.Tags))
	}
	if refreshed.Tags[0].PropertyID != types.PropertyID(1) {
		t.Fatalf("surviving tag has property_id %#x, want 1", refreshed.Tags[0].PropertyID)
	}
	got := codec.DecodeScalar(types.KindInt32, refreshed.PayloadFor(0)).(int32)
	if got != 5 {
		t.Fatalf("surviving payload = %d, want 5", got)
	}
}

func TestRefreshAfterLayoutChangedDropsKindMismatch(t *testing.T) {
	oldReg := typereg.NewRegistry()
	oldStruct, err := oldReg.CreateStructure(widgetID, 0, types.StructID(types.WrongID), "Widget")
	if err != nil {
		t.Fatalf("create old structure: %v", err)
	}
	oldStruct.AddProperty(typereg.Property{Usage: types.UsageMain, Kind: types.KindInt32, Name: "a", ID: types.PropertyID(1)})

	dt := buildWidgetTemplate(t, oldReg, 5, 0)

	newReg := typereg.NewRegistry()
	newStruct, err := newReg.CreateStructure(widgetID, 0, types.StructID(types.WrongID), "Widget")
	if err != nil {
		t.Fatalf("create new structure: %v", err)
	}
	// "a" changed kind from int32 to string.
	newStruct.AddProperty(typereg.Property{Usage: types.UsageMain, Kind: types.KindString, Name: "a", ID: types.PropertyID(1)})

	refreshed, err := RefreshAfterLayoutChanged(newReg, dt)
	if err != nil {
		t.Fatalf("RefreshAfterLayoutChanged: %v", err)
	}
	if len(refreshed.Tags) != 0 {
		t.Fatalf("expected kind-mismatched property to be dropped, got %d tags", len(refreshed.Tags))
	}
}
