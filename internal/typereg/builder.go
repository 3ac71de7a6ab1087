package typereg

import (
	"reflect"
	"strings"

	"github.com/k4210/dtengine/pkg/types"
)

// StructureBuilder derives a Structure's property vector from a Go struct
// type via reflection: one pass run once at process start replaces
// hand-written per-structure and per-field registration calls.
//
// Field discovery: every exported field not tagged `dt:"-"` is a property,
// named after its `dt:"name"` struct tag or, absent one, the Go field name.
// An anonymous (embedded) field whose type is the one passed to WithSuper is
// treated as the super structure rather than a property; any other embedded
// field is an ordinary property.
type StructureBuilder struct {
	registry  *Registry
	goType    reflect.Type
	superType reflect.Type
	solver    ObjectSolver
}

// NewStructureBuilder starts building a Structure for goType, a struct
// type (or pointer to one).
func NewStructureBuilder(r *Registry, goType reflect.Type) *StructureBuilder {
	for goType.Kind() == reflect.Ptr {
		goType = goType.Elem()
	}
	return &StructureBuilder{registry: r, goType: goType}
}

// WithSuper declares goType's base structure, read from an embedded field
// of this Go type.
func (b *StructureBuilder) WithSuper(superType reflect.Type) *StructureBuilder {
	for superType.Kind() == reflect.Ptr {
		superType = superType.Elem()
	}
	b.superType = superType
	return b
}

// WithSolver attaches the ObjectSolver used to resolve ObjectRef fields
// pointing at this structure's objects.
func (b *StructureBuilder) WithSolver(solver ObjectSolver) *StructureBuilder {
	b.solver = solver
	return b
}

// Build registers the Structure and returns it.
func (b *StructureBuilder) Build() (*Structure, error) {
	id := types.StructID(types.HashName(b.goType.Name()))
	superID := types.StructID(types.WrongID)
	if b.superType != nil {
		superID = types.StructID(types.HashName(b.superType.Name()))
	}

	s, err := b.registry.CreateStructure(id, int(b.goType.Size()), superID, b.goType.Name())
	if err != nil {
		return nil, err
	}
	s.GoType = b.goType
	if b.solver != nil {
		s.SetSolver(b.solver)
	}

	for i := 0; i < b.goType.NumField(); i++ {
		f := b.goType.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && b.superType != nil && f.Type == b.superType {
			s.SuperFieldIndex = []int{i}
			continue // embedded base: represented via SuperID, not a property
		}
		name, skip := propertyName(f)
		if skip {
			continue
		}
		propID := types.PropertyID(types.HashName(name))
		appendField(s, types.UsageMain, 0, name, propID, f.Type, []int{i})
	}
	return s, nil
}

// propertyName reads the `dt:"name"` tag, falling back to the Go field
// name; `dt:"-"` excludes the field from the property vector entirely.
func propertyName(f reflect.StructField) (name string, skip bool) {
	tag := f.Tag.Get("dt")
	if tag == "-" {
		return "", true
	}
	if tag == "" {
		return f.Name, false
	}
	if comma := strings.IndexByte(tag, ','); comma >= 0 {
		tag = tag[:comma]
	}
	if tag == "" {
		return f.Name, false
	}
	return tag, false
}

// appendField appends one property (and, recursively, its SubType/Handler
// children) to s for a field of Go type t reachable at goIndex.
func appendField(s *Structure, usage types.PropertyUsage, sub types.SubType, name string, id types.PropertyID, t reflect.Type, goIndex []int) types.PropertyIndex {
	kind, elemStructID, arrayLen := deriveKind(t)

	p := Property{
		Usage:        usage,
		Kind:         kind,
		Name:         name,
		ID:           id,
		GoIndex:      goIndex,
		ElemStructID: elemStructID,
		ArrayLen:     arrayLen,
		Sub:          sub,
		GoType:       t,
	}
	idx := s.AddProperty(p)

	switch kind {
	case types.KindArray:
		appendField(s, types.UsageSubType, types.SubTypeArrayElement, name+"[]", id, t.Elem(), nil)
	case types.KindVector:
		s.properties[idx].Handler = Handler{Vector: reflectVectorHandler{}}
		s.AddProperty(Property{Usage: types.UsageHandler, Kind: kind, Name: name + ".handler", ID: id})
		appendField(s, types.UsageSubType, types.SubTypeVectorElement, name+"[]", id, t.Elem(), nil)
	case types.KindMap:
		s.properties[idx].Handler = Handler{Map: reflectMapHandler{}}
		s.AddProperty(Property{Usage: types.UsageHandler, Kind: kind, Name: name + ".handler", ID: id})
		appendField(s, types.UsageSubType, types.SubTypeKey, name+".key", id, t.Key(), nil)
		appendField(s, types.UsageSubType, types.SubTypeMapValue, name+".value", id, t.Elem(), nil)
	}
	return idx
}

// deriveKind maps a Go reflect.Type to the closed FieldKind set.
func deriveKind(t reflect.Type) (kind types.FieldKind, elemStructID types.StructID, arrayLen int) {
	switch t.Kind() {
	case reflect.Int8:
		return types.KindInt8, 0, 0
	case reflect.Int16:
		return types.KindInt16, 0, 0
	case reflect.Int32:
		return types.KindInt32, 0, 0
	case reflect.Int, reflect.Int64:
		return types.KindInt64, 0, 0
	case reflect.Uint8:
		return types.KindUint8, 0, 0
	case reflect.Uint16:
		return types.KindUint16, 0, 0
	case reflect.Uint32:
		return types.KindUint32, 0, 0
	case reflect.Uint, reflect.Uint64:
		return types.KindUint64, 0, 0
	case reflect.Float32:
		return types.KindFloat32, 0, 0
	case reflect.Float64:
		return types.KindFloat64, 0, 0
	case reflect.String:
		return types.KindString, 0, 0
	case reflect.Array:
		return types.KindArray, 0, t.Len()
	case reflect.Slice:
		return types.KindVector, 0, 0
	case reflect.Map:
		return types.KindMap, 0, 0
	case reflect.Ptr:
		elem := t.Elem()
		types.Invariant(elem.Kind() == reflect.Struct, "typereg: pointer field %s must point at a registered struct", t)
		return types.KindObjectRef, types.StructID(types.HashName(elem.Name())), 0
	case reflect.Struct:
		return types.KindStruct, types.StructID(types.HashName(t.Name())), 0
	default:
		types.Invariant(false, "typereg: unsupported Go kind %s", t.Kind())
		return 0, 0, 0
	}
}
