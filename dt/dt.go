package dt

import (
	"reflect"

	"github.com/k4210/dtengine/internal/delta"
	"github.com/k4210/dtengine/internal/layout"
	"github.com/k4210/dtengine/internal/load"
	"github.com/k4210/dtengine/internal/save"
	"github.com/k4210/dtengine/internal/typereg"
	"github.com/k4210/dtengine/pkg/dtcore"
	"github.com/k4210/dtengine/pkg/printer"
	"github.com/k4210/dtengine/pkg/types"
)

// The registry surface is re-exported here so callers registering types and
// driving serialization never name an internal package.
type (
	Registry         = typereg.Registry
	Structure        = typereg.Structure
	Property         = typereg.Property
	StructureBuilder = typereg.StructureBuilder
	ObjectSolver     = typereg.ObjectSolver
	Reflectable      = typereg.Reflectable
	VectorHandler    = typereg.VectorHandler
	MapHandler       = typereg.MapHandler

	DataTemplate = dtcore.DataTemplate
	Tag          = dtcore.Tag
)

// NewRegistry returns an isolated registry; most callers want
// DefaultRegistry instead.
func NewRegistry() *Registry { return typereg.NewRegistry() }

// DefaultRegistry returns the process-wide registry singleton. Types
// register into it from their package init functions, before any
// serialization begins.
func DefaultRegistry() *Registry { return typereg.Default() }

// NewStructureBuilder starts deriving a Structure for goType via reflection.
func NewStructureBuilder(r *Registry, goType reflect.Type) *StructureBuilder {
	return typereg.NewStructureBuilder(r, goType)
}

// Save emits a fresh DataTemplate from obj, a value (or pointer to one)
// registered under structID.
func Save(r *Registry, structID types.StructID, obj any, flags types.SaveFlags) (*DataTemplate, error) {
	return save.Save(r, structID, obj, flags)
}

// SaveObject is the object-class form of Save: the structure is resolved
// from obj's own reflection ID and must represent an object class (super
// structure set, object solver bound).
func SaveObject(r *Registry, obj Reflectable, flags types.SaveFlags) (*DataTemplate, error) {
	structure, err := r.GetStructure(obj.ReflectionStructID())
	if err != nil {
		return nil, err
	}
	if !structure.RepresentsObjectClass() {
		return nil, types.Wrap(types.ErrKindInvariant, types.ErrNotObjectClass, "save_object(%s)", structure.Name)
	}
	return save.Save(r, structure.ID, obj, flags)
}

// Load reconstitutes dst, a pointer to a value of tpl's declared structure
// or of one derived from it.
func Load(r *Registry, tpl *DataTemplate, dst any) error {
	return load.Load(r, tpl, dst)
}

// Merge overlays higher onto lower: where both templates carry the same
// tag, higher wins; one-sided tags within the applicable container bound
// are kept. higher's structure must be based on lower's.
func Merge(r *Registry, lower, higher *DataTemplate) (*DataTemplate, error) {
	return delta.Merge(r, lower, higher)
}

// Diff keeps exactly the tags of higher that differ from lower; tags
// present only in lower are dropped.
func Diff(r *Registry, higher, lower *DataTemplate) (*DataTemplate, error) {
	return delta.Diff(r, higher, lower)
}

// RefreshAfterLayoutChanged re-encodes tpl against the registry's current
// structure for its StructID, preserving every property whose
// (property_id, sub_property_offset, field_type) survived the layout
// change and dropping (with a log line) the rest.
func RefreshAfterLayoutChanged(r *Registry, tpl *DataTemplate) (*DataTemplate, error) {
	return layout.RefreshAfterLayoutChanged(r, tpl)
}

// ToString renders tpl as an indented JSON document for diagnostics.
func ToString(r *Registry, tpl *DataTemplate) (string, error) {
	return printer.New(r).ToString(tpl)
}
