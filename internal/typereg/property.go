package typereg

import (
	"reflect"

	"github.com/k4210/dtengine/pkg/types"
)

// Property is one slot of a Structure's flat property vector: a Main
// field, a Handler adapter, or a recursive SubType child.
type Property struct {
	Usage types.PropertyUsage
	Kind  types.FieldKind
	Name  string

	// ID is the property's own stable hash for Main properties; SubType and
	// Handler entries carry the owning Main property's ID so a tag built
	// from them still round-trips through layout refresh.
	ID types.PropertyID

	// GoIndex is the reflect.Value.FieldByIndex path from the owning
	// struct's root down to this field. Only meaningful for Main
	// properties; SubType/Handler entries are reached through their
	// parent's container instead of a field path.
	GoIndex []int

	Access types.AccessSpecifier
	Const  types.ConstSpecifier
	Flags  uint8

	// Sub is the SubType role this entry plays, valid when Usage ==
	// UsageSubType.
	Sub types.SubType

	// ElemStructID names the nested Structure for Kind == KindStruct, or
	// the declared referent structure for Kind == KindObjectRef.
	ElemStructID types.StructID

	// ArrayLen is the declared element count for Kind == KindArray.
	ArrayLen int

	// Handler is the polymorphic container adapter for Kind ==
	// KindVector/KindMap, set on the Main/SubType entry that owns it (not
	// on the synthetic UsageHandler slot, which merely reserves the index).
	Handler Handler

	// GoType is the Go type backing this property, used by
	// NativeFieldSize for scalar kinds.
	GoType reflect.Type
}

// IsMain reports whether p occupies a Main slot.
func (p Property) IsMain() bool { return p.Usage == types.UsageMain }
