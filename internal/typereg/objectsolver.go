package typereg

import (
	"reflect"

	"github.com/k4210/dtengine/pkg/types"
)

// ObjectSolver converts between a live object reference and the ObjectID
// that names it on the wire. It is injected per structure rather than
// assumed from a global object table.
type ObjectSolver interface {
	// ToObjectID returns the ObjectID for obj (a pointer value), or
	// types.NullObjectID if obj is a nil/zero reference.
	ToObjectID(obj reflect.Value) types.ObjectID
	// FromObjectID resolves id back into a pointer value assignable to
	// pointerType, or an invalid reflect.Value if id is unknown.
	FromObjectID(id types.ObjectID, pointerType reflect.Type) reflect.Value
}
