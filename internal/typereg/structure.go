package typereg

import (
	"fmt"
	"reflect"

	"github.com/k4210/dtengine/pkg/types"
)

// Structure is a registered type's immutable identity plus its flat
// property vector.
type Structure struct {
	ID      types.StructID
	Size    int
	SuperID types.StructID // types.WrongID if no base
	Name    string
	GoType  reflect.Type

	// SuperFieldIndex is the reflect.Value.FieldByIndex path to the
	// embedded Go field representing the base structure, nil if SuperID is
	// unset.
	SuperFieldIndex []int

	properties []Property
	solver     ObjectSolver
	registry   *Registry
}

// NumberOfProperties returns the length of the flat property vector.
func (s *Structure) NumberOfProperties() types.PropertyIndex {
	return types.PropertyIndex(len(s.properties))
}

// GetProperty returns the property at index i.
func (s *Structure) GetProperty(i types.PropertyIndex) Property {
	return s.properties[i]
}

// AddProperty appends p to the vector and returns its index.
func (s *Structure) AddProperty(p Property) types.PropertyIndex {
	s.properties = append(s.properties, p)
	return types.PropertyIndex(len(s.properties) - 1)
}

// HasSolver reports whether an ObjectSolver is bound.
func (s *Structure) HasSolver() bool { return s.solver != nil }

// Solver returns the bound ObjectSolver, or nil.
func (s *Structure) Solver() ObjectSolver { return s.solver }

// SetSolver binds the object-identity resolver for this structure.
func (s *Structure) SetSolver(solver ObjectSolver) { s.solver = solver }

// NextOnThisLevel walks past all children of property i (recursively, for
// Array/Vector/Map) and returns the next same-level sibling index. For
// non-composite kinds and for Struct (whose fields live in a separately
// registered Structure, not inline) this is simply i+1.
func (s *Structure) NextOnThisLevel(i types.PropertyIndex) types.PropertyIndex {
	p := s.properties[i]
	switch p.Kind {
	case types.KindArray:
		return s.NextOnThisLevel(i + 1)
	case types.KindVector:
		return s.NextOnThisLevel(i + 2)
	case types.KindMap:
		valueStart := s.NextOnThisLevel(i + 2)
		return s.NextOnThisLevel(valueStart)
	default:
		return i + 1
	}
}

// GetMainPropertyIndex linearly scans Main-usage entries for propertyID,
// returning types.WrongID if absent.
func (s *Structure) GetMainPropertyIndex(propertyID types.PropertyID) types.PropertyIndex {
	for i, p := range s.properties {
		if p.Usage == types.UsageMain && p.ID == propertyID {
			return types.PropertyIndex(i)
		}
	}
	return types.PropertyIndex(types.WrongID)
}

// GetSubPropertyIndex computes the constant-offset arithmetic from a
// composite's Main (or SubType) index i to one of its recursive children.
func (s *Structure) GetSubPropertyIndex(i types.PropertyIndex, sub types.SubType) types.PropertyIndex {
	switch sub {
	case types.SubTypeArrayElement:
		return i + 1
	case types.SubTypeVectorElement:
		return i + 2
	case types.SubTypeKey:
		return i + 2
	case types.SubTypeMapValue:
		return s.NextOnThisLevel(i + 2)
	default:
		types.Invariant(false, "structure %s: unknown sub type %d", s.Name, sub)
		return types.PropertyIndex(types.WrongID)
	}
}

// NativeFieldSize returns the byte size of property i's in-memory
// representation: recursive for Struct, count*element for Array, and the
// Go runtime placeholder size (slice/map header, string header, pointer)
// for Vector/Map/String/ObjectRef.
func (s *Structure) NativeFieldSize(i types.PropertyIndex) int {
	p := s.properties[i]
	switch p.Kind {
	case types.KindStruct:
		if sub, ok := s.registry.tryGetStructure(p.ElemStructID); ok {
			total := 0
			for j := range sub.properties {
				if sub.properties[j].Usage == types.UsageMain {
					total += sub.NativeFieldSize(types.PropertyIndex(j))
				}
			}
			return total
		}
		return 0
	case types.KindArray:
		elemIdx := s.GetSubPropertyIndex(i, types.SubTypeArrayElement)
		return p.ArrayLen * s.NativeFieldSize(elemIdx)
	case types.KindVector:
		return 24 // Go slice header: ptr+len+cap
	case types.KindMap:
		return 8 // Go map header: pointer-sized runtime handle
	case types.KindString:
		return 16 // Go string header: ptr+len
	case types.KindObjectRef:
		return 8 // pointer-sized
	default:
		if p.GoType != nil {
			return int(p.GoType.Size())
		}
		return 0
	}
}

// TryGetSuperStructure resolves the base structure, if any.
func (s *Structure) TryGetSuperStructure() (*Structure, bool) {
	if s.SuperID == types.StructID(types.WrongID) {
		return nil, false
	}
	return s.registry.tryGetStructure(s.SuperID)
}

// IsBasedOn walks the super chain looking for id.
func (s *Structure) IsBasedOn(id types.StructID) bool {
	cur := s
	for {
		if cur.ID == id {
			return true
		}
		super, ok := cur.TryGetSuperStructure()
		if !ok {
			return false
		}
		cur = super
	}
}

// RepresentsObjectClass reports whether s represents an object class: its
// super chain is bound and an ObjectSolver is attached.
func (s *Structure) RepresentsObjectClass() bool {
	return s.SuperID != types.StructID(types.WrongID) && s.solver != nil
}

// Validate checks the structural guarantees a registered Structure must
// hold:
//
//	(a) s is either an object class (super+solver bound) xor a value struct
//	    (no super, at least one property);
//	(b) Main properties appear in strictly increasing Go field-declaration
//	    order (this module's analog of "field_offset", since Go layout is
//	    not manually controlled);
//	(c) between consecutive Main properties the index delta equals
//	    NextOnThisLevel, i.e. SubType/Handler children are well-nested.
func (s *Structure) Validate() error {
	isObjectClass := s.SuperID != types.StructID(types.WrongID)
	if isObjectClass && s.solver == nil {
		return fmt.Errorf("structure %s: super_id set but no object solver bound", s.Name)
	}
	if !isObjectClass && len(s.properties) == 0 {
		return fmt.Errorf("structure %s: value struct with no properties", s.Name)
	}

	lastOffset := -1
	lastMainIdx := types.PropertyIndex(types.WrongID)
	for i, p := range s.properties {
		if p.Usage != types.UsageMain {
			continue
		}
		idx := types.PropertyIndex(i)
		if lastMainIdx != types.PropertyIndex(types.WrongID) {
			if len(p.GoIndex) == 0 || p.GoIndex[0] <= lastOffset {
				return fmt.Errorf("structure %s: main property %s out of declaration order", s.Name, p.Name)
			}
			want := s.NextOnThisLevel(lastMainIdx)
			if want != idx {
				return fmt.Errorf("structure %s: property %s at index %d, expected %d from next_on_this_level", s.Name, p.Name, idx, want)
			}
		}
		if len(p.GoIndex) > 0 {
			lastOffset = p.GoIndex[0]
		}
		lastMainIdx = idx
	}
	return nil
}

// Dump renders a human-readable multi-line description of the structure's
// property vector, one line per slot.
func (s *Structure) Dump() string {
	out := fmt.Sprintf("Structure %s (id=%#x, super=%#x)\n", s.Name, uint32(s.ID), uint32(s.SuperID))
	for i, p := range s.properties {
		out += fmt.Sprintf("  [%d] %s %s kind=%s id=%#x\n", i, p.Usage, p.Name, p.Kind, uint32(p.ID))
	}
	return out
}
