// Package load implements the Load traversal: an index-driven walk over a
// DataTemplate's tag sequence that reconstitutes a live Go value, allocating
// Vector/Map containers through their handlers.
package load

import (
	"log/slog"
	"reflect"

	"github.com/k4210/dtengine/internal/codec"
	"github.com/k4210/dtengine/internal/typereg"
	"github.com/k4210/dtengine/pkg/dtcore"
	"github.com/k4210/dtengine/pkg/types"
)

type state struct {
	registry *typereg.Registry
	dt       *dtcore.DataTemplate
}

// Load reconstitutes dst (a pointer to a value of dt's declared structure,
// or one derived from it) from dt.
func Load(registry *typereg.Registry, dt *dtcore.DataTemplate, dst any) error {
	structure, err := registry.GetStructure(dt.StructureID)
	if err != nil {
		return err
	}
	v := reflect.ValueOf(dst)
	types.Invariant(v.Kind() == reflect.Ptr, "load: destination must be a pointer")
	v = v.Elem()

	// The destination may be of a structure derived from the template's;
	// descend through the embedded base chain until v is the slice of dst
	// the template actually describes. A destination that is not based on
	// the template's structure is a caller bug.
	if dstStruct, ok := registry.TryGetStructure(types.StructID(types.HashName(v.Type().Name()))); ok && dstStruct.ID != dt.StructureID {
		types.Invariant(dstStruct.IsBasedOn(dt.StructureID),
			"load: destination %s is not based on template structure %#x", dstStruct.Name, uint32(dt.StructureID))
		cur := dstStruct
		for cur.ID != dt.StructureID {
			v = v.FieldByIndex(cur.SuperFieldIndex)
			super, ok := registry.TryGetStructure(cur.SuperID)
			types.Invariant(ok, "load: super structure %#x missing from registry", uint32(cur.SuperID))
			cur = super
		}
	}

	st := &state{registry: registry, dt: dt}
	st.loadStruct(structure, v, 0, 0, 0, false)
	dt.MarkConsumed()
	return nil
}

// loadStruct consumes tags at (expectedNestLevel, expectedElementIndex,
// expectedIsKey) — the "first tag" triple that identifies the next
// expected record — dispatching each to its Main property or recursing
// into the super structure.
func (st *state) loadStruct(structure *typereg.Structure, v reflect.Value, tagsIdx int, expectedNestLevel uint8, expectedElementIndex uint8, expectedIsKey bool) int {
	for tagsIdx < len(st.dt.Tags) {
		tag := st.dt.Tags[tagsIdx]
		if tag.NestLevel != expectedNestLevel || tag.ElementIndex != expectedElementIndex || tag.IsKey != expectedIsKey {
			break
		}
		if tag.IsSuperStruct() {
			super, ok := st.registry.TryGetStructure(structure.SuperID)
			if !ok {
				slog.Warn("load: super structure missing from registry", "struct_id", structure.SuperID)
				tagsIdx++
				continue
			}
			superV := v.FieldByIndex(structure.SuperFieldIndex)
			tagsIdx = st.loadStruct(super, superV, tagsIdx+1, expectedNestLevel+1, 0, false)
			continue
		}
		if int(tag.PropertyIndex) >= int(structure.NumberOfProperties()) {
			slog.Warn("load: property index out of range, skipping", "property_index", tag.PropertyIndex, "struct", structure.Name)
			tagsIdx++
			continue
		}
		p := structure.GetProperty(tag.PropertyIndex)
		fieldV := v.FieldByIndex(p.GoIndex)
		tagsIdx = st.loadValue(structure, tag.PropertyIndex, tag, fieldV, tagsIdx)
	}
	return tagsIdx
}

// loadValue reconstructs the value (scalar, composite, or reference)
// described by the tag at tagsIdx, returning the index of the next
// unconsumed tag.
func (st *state) loadValue(structure *typereg.Structure, propIdx types.PropertyIndex, tag dtcore.Tag, v reflect.Value, tagsIdx int) int {
	p := structure.GetProperty(propIdx)

	switch p.Kind {
	case types.KindString:
		s, _ := codec.DecodeString(st.dt.PayloadFor(tagsIdx))
		if v.CanSet() {
			v.SetString(s)
		}
		return tagsIdx + 1

	case types.KindObjectRef:
		sid, oid := codec.DecodeObjectRef(st.dt.PayloadFor(tagsIdx))
		if oid != types.NullObjectID && v.CanSet() {
			target, ok := st.registry.TryGetStructure(sid)
			if ok && target.HasSolver() {
				ref := target.Solver().FromObjectID(oid, v.Type())
				if ref.IsValid() {
					v.Set(ref)
				}
			} else {
				slog.Warn("load: object reference to structure with no bound solver", "struct_id", sid)
			}
		}
		return tagsIdx + 1

	case types.KindStruct:
		sub, err := st.registry.GetStructure(p.ElemStructID)
		if err != nil {
			slog.Warn("load: nested structure missing from registry, skipping subtree", "struct_id", p.ElemStructID)
			return skipSubtree(st.dt, tagsIdx)
		}
		return st.loadStruct(sub, v, tagsIdx+1, tag.NestLevel+1, 0, false)

	case types.KindArray:
		elemIdx := structure.GetSubPropertyIndex(propIdx, types.SubTypeArrayElement)
		cur := tagsIdx + 1
		for cur < len(st.dt.Tags) {
			t2 := st.dt.Tags[cur]
			if t2.PropertyIndex != elemIdx || t2.NestLevel != tag.NestLevel+1 {
				break
			}
			if int(t2.ElementIndex) >= v.Len() {
				break
			}
			cur = st.loadValue(structure, elemIdx, t2, v.Index(int(t2.ElementIndex)), cur)
		}
		return cur

	case types.KindVector:
		length := codec.DecodeLength16(st.dt.PayloadFor(tagsIdx))
		handler := p.Handler.Vector
		handler.SetSize(v, length)
		elemIdx := structure.GetSubPropertyIndex(propIdx, types.SubTypeVectorElement)
		cur := tagsIdx + 1
		for cur < len(st.dt.Tags) {
			t2 := st.dt.Tags[cur]
			if t2.PropertyIndex != elemIdx || t2.NestLevel != tag.NestLevel+1 {
				break
			}
			cur = st.loadValue(structure, elemIdx, t2, handler.Element(v, int(t2.ElementIndex)), cur)
		}
		return cur

	case types.KindMap:
		codec.DecodeLength16(st.dt.PayloadFor(tagsIdx))
		handler := p.Handler.Map
		keyIdx := structure.GetSubPropertyIndex(propIdx, types.SubTypeKey)
		valIdx := structure.GetSubPropertyIndex(propIdx, types.SubTypeMapValue)
		cur := tagsIdx + 1
		for cur < len(st.dt.Tags) {
			t2 := st.dt.Tags[cur]
			if t2.NestLevel != tag.NestLevel+1 || !t2.IsKey || t2.PropertyIndex != keyIdx {
				break
			}
			keyScratch := handler.NewKeyScratch(v)
			cur = st.loadValue(structure, keyIdx, t2, keyScratch, cur)

			if cur < len(st.dt.Tags) {
				t3 := st.dt.Tags[cur]
				if !t3.IsKey && t3.NestLevel == tag.NestLevel+1 && t3.PropertyIndex == valIdx {
					valueScratch := handler.Add(v, keyScratch)
					cur = st.loadValue(structure, valIdx, t3, valueScratch, cur)
					handler.Commit(v, keyScratch, valueScratch)
					continue
				}
			}
			slog.Warn("load: map value tag missing for key, leaving default", "struct", structure.Name)
			handler.Commit(v, keyScratch, reflect.Zero(v.Type().Elem()))
		}
		return cur

	default: // scalar kinds
		val := codec.DecodeScalar(p.Kind, st.dt.PayloadFor(tagsIdx))
		if v.CanSet() {
			v.Set(reflect.ValueOf(val).Convert(v.Type()))
		}
		return tagsIdx + 1
	}
}

// skipSubtree advances past tagsIdx and every tag nested more deeply than
// it, used when structural drift makes a subtree impossible to interpret.
func skipSubtree(dt *dtcore.DataTemplate, tagsIdx int) int {
	base := dt.Tags[tagsIdx].NestLevel
	cur := tagsIdx + 1
	for cur < len(dt.Tags) && dt.Tags[cur].NestLevel > base {
		cur++
	}
	return cur
}
