package typereg

import "github.com/k4210/dtengine/pkg/types"

// Reflectable is implemented by registered Go types that name their own
// structure at run time. Save uses ReflectionStructID to resolve a non-nil
// object reference's runtime structure without a type switch (falling back
// to the property's declared structure when the referent does not implement
// it), and dt.SaveObject uses it to find the root structure. Registration
// does not require it.
type Reflectable interface {
	ReflectionStructID() types.StructID
}
