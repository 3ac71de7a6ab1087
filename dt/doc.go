// Package dt is the public surface of the serialization core. It ties the
// type registry, the save/load traversals, the delta algebra and the
// layout-refresh pass together behind a handful of entry points, so callers
// register their Go types once at startup and then move objects in and out
// of DataTemplates without importing any internal package.
//
// A typical caller:
//
//	reg := dt.DefaultRegistry()
//	_, err := dt.NewStructureBuilder(reg, reflect.TypeOf(Actor{})).Build()
//	...
//	tpl, err := dt.Save(reg, actorID, &actor, types.SkipNativeDefaultValues)
//	var clone Actor
//	err = dt.Load(reg, tpl, &clone)
package dt
