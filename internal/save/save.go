// Package save implements the Save traversal: a depth-first preorder walk
// over a registered Structure and a live Go value, emitting a dtcore.Tag
// per property and appending its payload to a byte blob, with optional
// elision of scalar/string/object-ref fields at their zero value.
package save

import (
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

// Save populates a fresh DataTemplate from obj, a Go value (or pointer to
// one) whose dynamic type is registered under structID.
func Save(registry *typereg.Registry, structID types.StructID, obj any, flags types.SaveFlags) (*dtcore.DataTemplate, error) {
	structure, err := registry.GetStructure(structID)
	if err != nil {
		return nil, err
	}
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	st := &state{registry: registry, dt: dtcore.NewEmptyDataTemplate()}
	st.saveStruct(structure, v, 0, flags)
	st.dt.MarkPopulated(structID)
	return st.dt, nil
}

// saveStruct walks structure's super chain (emitting a super-struct tag per
// level) then its own Main properties, base-before-derived.
func (st *state) saveStruct(structure *typereg.Structure, v reflect.Value, nestLevel uint8, flags types.SaveFlags) bool {
	wroteAny := false

	if structure.SuperID != types.StructID(types.WrongID) {
		tagIdx := len(st.dt.Tags)
		dataOffset := uint32(len(st.dt.Data))
		st.dt.Tags = append(st.dt.Tags, dtcore.NewSuperStructTag(dataOffset, nestLevel))

		super, err := st.registry.GetStructure(structure.SuperID)
		types.Invariant(err == nil, "save: super structure %#x missing from registry", uint32(structure.SuperID))
		superV := v.FieldByIndex(structure.SuperFieldIndex)
		wrote := st.saveStruct(super, superV, nestLevel+1, flags)
		if !wrote {
			st.dt.Tags = st.dt.Tags[:tagIdx]
			st.dt.Data = st.dt.Data[:dataOffset]
		}
		wroteAny = wroteAny || wrote
	}

	i := types.PropertyIndex(0)
	for i < structure.NumberOfProperties() {
		p := structure.GetProperty(i)
		if p.Usage == types.UsageMain {
			fieldV := v.FieldByIndex(p.GoIndex)
			wrote := st.saveValue(structure, i, i, fieldV, 0, false, nestLevel, flags)
			wroteAny = wroteAny || wrote
		}
		i = structure.NextOnThisLevel(i)
	}
	return wroteAny
}

// saveValue emits the tag (and, recursively, child tags) for property index
// i, whose owning Main property is mainIdx (equal to i itself when i is a
// Main property). Map keys pass flags with SkipNativeDefaultValues removed
// so the whole key subtree serializes in full.
func (st *state) saveValue(structure *typereg.Structure, mainIdx, i types.PropertyIndex, v reflect.Value, elementIndex uint8, isKey bool, nestLevel uint8, flags types.SaveFlags) bool {
	p := structure.GetProperty(i)
	mainID := structure.GetProperty(mainIdx).ID
	subOffset := types.SubPropertyOffset(i - mainIdx)

	tagIdx := len(st.dt.Tags)
	dataOffset := uint32(len(st.dt.Data))
	st.dt.Tags = append(st.dt.Tags, dtcore.NewTag(mainID, dataOffset, elementIndex, nestLevel, isKey, p.Kind, subOffset, i, p.Flags))

	wrote := st.writeValue(structure, mainIdx, i, p, v, nestLevel, flags)

	if !wrote {
		st.dt.Tags = st.dt.Tags[:tagIdx]
		st.dt.Data = st.dt.Data[:dataOffset]
	}
	return wrote
}

func (st *state) writeValue(structure *typereg.Structure, mainIdx, i types.PropertyIndex, p typereg.Property, v reflect.Value, nestLevel uint8, flags types.SaveFlags) bool {
	elide := flags.Has(types.SkipNativeDefaultValues)

	switch p.Kind {
	case types.KindString:
		s := v.String()
		if elide && s == "" {
			return false
		}
		st.dt.Data = codec.AppendString(st.dt.Data, s)
		return true

	case types.KindObjectRef:
		sid := p.ElemStructID
		oid := types.NullObjectID
		if !v.IsNil() {
			if reflectable, ok := v.Interface().(typereg.Reflectable); ok {
				sid = reflectable.ReflectionStructID()
			}
			target, err := st.registry.GetStructure(sid)
			types.Invariant(err == nil, "save: object reference to unregistered structure %#x", uint32(sid))
			types.Invariant(target.HasSolver(), "save: structure %s has no object solver bound", target.Name)
			oid = target.Solver().ToObjectID(v)
		}
		if oid == types.NullObjectID && elide {
			return false
		}
		st.dt.Data = codec.AppendObjectRef(st.dt.Data, sid, oid)
		return true

	case types.KindStruct:
		sub, err := st.registry.GetStructure(p.ElemStructID)
		types.Invariant(err == nil, "save: nested structure %#x missing from registry", uint32(p.ElemStructID))
		return st.saveStruct(sub, v, nestLevel+1, flags)

	case types.KindArray:
		elemIdx := structure.GetSubPropertyIndex(i, types.SubTypeArrayElement)
		wrote := false
		for idx := 0; idx < p.ArrayLen; idx++ {
			if st.saveValue(structure, mainIdx, elemIdx, v.Index(idx), uint8(idx), false, nestLevel+1, flags) {
				wrote = true
			}
		}
		return wrote

	case types.KindVector:
		handler := p.Handler.Vector
		n := handler.Size(v)
		if n == 0 && elide {
			return false
		}
		st.dt.Data = codec.AppendLength16(st.dt.Data, n)
		elemIdx := structure.GetSubPropertyIndex(i, types.SubTypeVectorElement)
		for idx := 0; idx < n; idx++ {
			st.saveValue(structure, mainIdx, elemIdx, handler.Element(v, idx), uint8(idx), false, nestLevel+1, flags)
		}
		return true // the emitted length prefix counts as written payload

	case types.KindMap:
		handler := p.Handler.Map
		keys := handler.SortedKeys(v)
		if len(keys) == 0 && elide {
			return false
		}
		st.dt.Data = codec.AppendLength16(st.dt.Data, len(keys))
		keyIdx := structure.GetSubPropertyIndex(i, types.SubTypeKey)
		valIdx := structure.GetSubPropertyIndex(i, types.SubTypeMapValue)
		keyFlags := flags.Without(types.SkipNativeDefaultValues)
		for idx, k := range keys {
			val := handler.Value(v, k)
			st.saveValue(structure, mainIdx, keyIdx, k, uint8(idx), true, nestLevel+1, keyFlags)
			st.saveValue(structure, mainIdx, valIdx, val, uint8(idx), false, nestLevel+1, flags)
		}
		return true // the emitted length prefix counts as written payload

	default: // scalar kinds
		if elide && v.IsZero() {
			return false
		}
		st.dt.Data = codec.AppendScalar(st.dt.Data, p.Kind, v.Interface())
		return true
	}
}
