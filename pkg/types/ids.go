package types

import "hash/fnv"

// StructID stably identifies a registered structure. It is the FNV-1a 32
// hash of the structure's canonical (Go) name.
type StructID uint32

// PropertyID stably identifies a field within a structure. It is the
// FNV-1a 32 hash of the field's canonical name.
type PropertyID uint32

// ObjectID externally identifies a live object instance. Resolution between
// an ObjectID and the object it names is delegated to a per-structure
// ObjectSolver; this core never assigns or interprets the value itself.
type ObjectID uint64

// PropertyIndex is a position within a Structure's flat property vector.
type PropertyIndex uint32

// SubPropertyOffset is property_index - main_property_index for a property
// that is a child (SubType or Handler) of some Main property.
type SubPropertyOffset uint32

const (
	// WrongID marks "unset" for StructID/PropertyID/PropertyIndex alike.
	WrongID = 0xFFFFFFFF

	// NullObjectID marks an absent/nil object reference on the wire.
	NullObjectID ObjectID = 0xFFFFFFFFFFFFFFFF

	// SuperStructPropertyID marks the synthetic tag/property that carries a
	// derived structure's base-class state.
	SuperStructPropertyID PropertyID = 0xFFFFFFFE

	// SuperStructPropertyIndex is the synthetic property index paired with
	// SuperStructPropertyID.
	SuperStructPropertyIndex PropertyIndex = 0x3FFF
)

// HashName computes the stable 32-bit identifier used for both StructID and
// PropertyID: FNV-1a over the UTF-8 bytes of name.
func HashName(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}

// FieldKind is the closed set of field kinds a property may declare.
type FieldKind uint8

const (
	KindInt8 FieldKind = iota
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindObjectRef
	KindStruct
	KindVector
	KindMap
	KindArray
	numFieldKinds
)

// FitsInBits reports whether value fits in the given number of unsigned
// bits. Tag construction uses it to assert every field-width budget.
func FitsInBits(value uint64, bits uint) bool {
	if bits >= 64 {
		return true
	}
	return value < (uint64(1) << bits)
}

func (k FieldKind) String() string {
	switch k {
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint8:
		return "UInt8"
	case KindUint16:
		return "UInt16"
	case KindUint32:
		return "UInt32"
	case KindUint64:
		return "UInt64"
	case KindFloat32:
		return "Float"
	case KindFloat64:
		return "Double"
	case KindString:
		return "String"
	case KindObjectRef:
		return "ObjPtr"
	case KindStruct:
		return "Struct"
	case KindVector:
		return "Vector"
	case KindMap:
		return "Map"
	case KindArray:
		return "Array"
	default:
		return "Unknown"
	}
}

// IsComposite reports whether the kind recurses into child SubType
// properties (Array, Vector, Map, Struct).
func (k FieldKind) IsComposite() bool {
	switch k {
	case KindArray, KindVector, KindMap, KindStruct:
		return true
	default:
		return false
	}
}

// PropertyUsage classifies a slot in a Structure's flat property vector.
type PropertyUsage uint8

const (
	UsageMain PropertyUsage = iota
	UsageHandler
	UsageSubType
)

func (u PropertyUsage) String() string {
	switch u {
	case UsageMain:
		return "Main"
	case UsageHandler:
		return "Hdlr"
	case UsageSubType:
		return "Sub"
	default:
		return "Unknown"
	}
}

// SubType distinguishes the recursive child roles a composite property can
// carry: an array's element, a vector's element, a map's key, a map's value.
type SubType uint8

const (
	SubTypeArrayElement SubType = iota
	SubTypeVectorElement
	SubTypeKey
	SubTypeMapValue
)

// AccessSpecifier is the access-level metadata a Main property carries.
// No operation in this core branches on it; it exists for debug dumps and
// registration-side introspection.
type AccessSpecifier uint8

const (
	AccessPrivate AccessSpecifier = iota
	AccessProtected
	AccessPublic
)

func (a AccessSpecifier) String() string {
	switch a {
	case AccessPrivate:
		return "Private"
	case AccessProtected:
		return "Protected"
	case AccessPublic:
		return "Public"
	default:
		return "Unknown"
	}
}

// ConstSpecifier is the const-ness metadata a Main property carries.
type ConstSpecifier uint8

const (
	ConstYes ConstSpecifier = iota
	ConstNo
)

func (c ConstSpecifier) String() string {
	switch c {
	case ConstYes:
		return "Const"
	case ConstNo:
		return "NotConst"
	default:
		return "Unknown"
	}
}
