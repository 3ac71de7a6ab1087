// Package layout implements RefreshAfterLayoutChanged: reconciling a
// DataTemplate saved against a structure revision with the current
// (possibly mutated) Structure sharing the same StructID, by re-resolving
// every tag through its redundant (property_id, sub_property_offset) pair
// rather than its (now possibly stale) property_index.
package layout

import (
	"log/slog"

	"github.com/k4210/dtengine/internal/typereg"
	"github.com/k4210/dtengine/pkg/dtcore"
	"github.com/k4210/dtengine/pkg/types"
)

type state struct {
	registry *typereg.Registry
	src      *dtcore.DataTemplate
	out      *dtcore.DataTemplate
	dropped  int
}

// RefreshAfterLayoutChanged rebuilds src against the registry's current
// Structure for src.StructureID, dropping (and logging) any subtree whose
// property vanished, moved out of range, resolved to a Handler slot, or
// changed field kind.
func RefreshAfterLayoutChanged(registry *typereg.Registry, src *dtcore.DataTemplate) (*dtcore.DataTemplate, error) {
	newStruct, err := registry.GetStructure(src.StructureID)
	if err != nil {
		return nil, err
	}
	st := &state{registry: registry, src: src, out: dtcore.NewEmptyDataTemplate()}
	st.refreshLevel(newStruct, 0, 0)
	st.out.MarkPopulated(src.StructureID)
	if st.dropped > 0 {
		slog.Info("layout refresh dropped properties", "struct", newStruct.Name, "count", st.dropped)
	}
	return st.out, nil
}

// refreshLevel walks every source tag at exactly nestLevel belonging to
// structureCtx's property vector (Main properties, or the SubType/Handler
// children of whichever composite owns this level), re-resolving each by
// (property_id, sub_property_offset) against structureCtx.
func (st *state) refreshLevel(structureCtx *typereg.Structure, idx int, nestLevel uint8) int {
	for idx < len(st.src.Tags) {
		tag := st.src.Tags[idx]
		if tag.NestLevel != nestLevel {
			break
		}

		if tag.IsSuperStruct() {
			if structureCtx.SuperID == types.StructID(types.WrongID) {
				slog.Warn("layout refresh: super structure no longer exists", "struct", structureCtx.Name)
				st.dropped++
				idx = skipSubtree(st.src, idx)
				continue
			}
			super, ok := st.registry.TryGetStructure(structureCtx.SuperID)
			if !ok {
				slog.Warn("layout refresh: super structure not registered", "struct_id", structureCtx.SuperID)
				st.dropped++
				idx = skipSubtree(st.src, idx)
				continue
			}
			dataOffset := uint32(len(st.out.Data))
			st.out.Tags = append(st.out.Tags, dtcore.NewSuperStructTag(dataOffset, nestLevel))
			idx = st.refreshLevel(super, idx+1, nestLevel+1)
			continue
		}

		mainIdx := structureCtx.GetMainPropertyIndex(tag.PropertyID)
		if mainIdx == types.PropertyIndex(types.WrongID) {
			slog.Warn("layout refresh: property no longer exists, dropping subtree", "struct", structureCtx.Name, "property_id", tag.PropertyID)
			st.dropped++
			idx = skipSubtree(st.src, idx)
			continue
		}
		newPropIdx := mainIdx + types.PropertyIndex(tag.SubPropertyOffset)
		if newPropIdx >= structureCtx.NumberOfProperties() {
			slog.Warn("layout refresh: property index out of range after layout change, dropping subtree", "struct", structureCtx.Name)
			st.dropped++
			idx = skipSubtree(st.src, idx)
			continue
		}
		newProp := structureCtx.GetProperty(newPropIdx)
		if newProp.Usage == types.UsageHandler {
			slog.Warn("layout refresh: property resolved to a handler slot, dropping subtree", "struct", structureCtx.Name)
			st.dropped++
			idx = skipSubtree(st.src, idx)
			continue
		}
		if newProp.Kind != tag.FieldType {
			slog.Warn("layout refresh: property changed type, dropping subtree", "struct", structureCtx.Name, "old", tag.FieldType, "new", newProp.Kind)
			st.dropped++
			idx = skipSubtree(st.src, idx)
			continue
		}

		idx = st.emitValue(structureCtx, newPropIdx, newProp, tag, idx, nestLevel)
	}
	return idx
}

// emitValue copies tag's refreshed form (and, for composites, recurses
// into its children) and returns the next unconsumed source index.
func (st *state) emitValue(structureCtx *typereg.Structure, propIdx types.PropertyIndex, p typereg.Property, tag dtcore.Tag, idx int, nestLevel uint8) int {
	dataOffset := uint32(len(st.out.Data))
	st.out.Tags = append(st.out.Tags, dtcore.NewTag(tag.PropertyID, dataOffset, tag.ElementIndex, tag.NestLevel, tag.IsKey, p.Kind, tag.SubPropertyOffset, propIdx, tag.Flags))

	switch p.Kind {
	case types.KindStruct:
		sub, err := st.registry.GetStructure(p.ElemStructID)
		if err != nil {
			slog.Warn("layout refresh: nested structure no longer registered, dropping subtree", "struct_id", p.ElemStructID)
			st.out.Tags = st.out.Tags[:len(st.out.Tags)-1]
			st.dropped++
			return skipSubtree(st.src, idx)
		}
		return st.refreshLevel(sub, idx+1, nestLevel+1)

	case types.KindArray:
		return st.refreshLevel(structureCtx, idx+1, nestLevel+1)

	case types.KindVector, types.KindMap:
		st.out.Data = append(st.out.Data, st.src.PayloadFor(idx)...)
		return st.refreshLevel(structureCtx, idx+1, nestLevel+1)

	default: // scalar/string/object-ref
		st.out.Data = append(st.out.Data, st.src.PayloadFor(idx)...)
		return idx + 1
	}
}

// skipSubtree advances past idx and every tag nested more deeply than it.
func skipSubtree(dt *dtcore.DataTemplate, idx int) int {
	base := dt.Tags[idx].NestLevel
	cur := idx + 1
	for cur < len(dt.Tags) && dt.Tags[cur].NestLevel > base {
		cur++
	}
	return cur
}
