package typereg

import (
	"sync"

	"github.com/k4210/dtengine/pkg/types"
)

// Registry is a process-wide StructID -> *Structure catalog. It is built
// once during registration and then observed read-only. Lookups take the
// read side of an RWMutex, so concurrent readers do not block one another,
// but every lookup still acquires that lock; lookups are not lock-free.
type Registry struct {
	mu         sync.RWMutex
	structures map[types.StructID]*Structure
}

// NewRegistry returns an empty Registry. Most callers use the process-wide
// singleton returned by Default; NewRegistry exists for tests that need
// isolation between structure sets.
func NewRegistry() *Registry {
	return &Registry{structures: make(map[types.StructID]*Structure)}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry singleton.
func Default() *Registry { return defaultRegistry }

// CreateStructure registers a new Structure, failing with
// types.ErrDuplicateID if id is already present.
func (r *Registry) CreateStructure(id types.StructID, size int, superID types.StructID, name string) (*Structure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.structures[id]; exists {
		return nil, types.Wrap(types.ErrKindInvariant, types.ErrDuplicateID, "create_structure(%s)", name)
	}
	s := &Structure{ID: id, Size: size, SuperID: superID, Name: name, registry: r}
	r.structures[id] = s
	return s, nil
}

// GetStructure returns the Structure for id, failing with
// types.ErrUnknownStruct if absent.
func (r *Registry) GetStructure(id types.StructID) (*Structure, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.structures[id]
	if !ok {
		return nil, types.Wrap(types.ErrKindNotFound, types.ErrUnknownStruct, "get_structure(%#x)", uint32(id))
	}
	return s, nil
}

// TryGetStructure returns the Structure for id and whether it was found.
func (r *Registry) TryGetStructure(id types.StructID) (*Structure, bool) {
	return r.tryGetStructure(id)
}

func (r *Registry) tryGetStructure(id types.StructID) (*Structure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.structures[id]
	return s, ok
}

// All returns every registered structure, in no particular order; callers
// must not mutate the result.
func (r *Registry) All() []*Structure {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Structure, 0, len(r.structures))
	for _, s := range r.structures {
		out = append(out, s)
	}
	return out
}
