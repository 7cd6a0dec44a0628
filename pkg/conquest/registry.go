package conquest

import (
	"slices"
)

// Kind classifies a registry entity.
type Kind int

const (
	KindPlayer Kind = iota
	KindTerritory
	KindEdge
	KindUnit
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindTerritory:
		return "territory"
	case KindEdge:
		return "edge"
	case KindUnit:
		return "unit"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "player":
		return KindPlayer, true
	case "territory":
		return KindTerritory, true
	case "edge":
		return KindEdge, true
	case "unit":
		return KindUnit, true
	}
	return 0, false
}

// Entity is any record stored in a Registry.
type Entity interface {
	EntityID() ID
	Kind() Kind
	clone() Entity
}

// Registry maps identifiers to the entities of one snapshot.
type Registry struct {
	entities map[ID]Entity
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[ID]Entity)}
}

// Get returns the entity with the given id, or nil.
func (r *Registry) Get(id ID) Entity {
	return r.entities[id]
}

// Has reports whether id is registered.
func (r *Registry) Has(id ID) bool {
	_, ok := r.entities[id]
	return ok
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.entities)
}

// Put registers e, replacing any entity with the same id.
func (r *Registry) Put(e Entity) {
	r.entities[e.EntityID()] = e
}

// Delete removes id from the registry.
func (r *Registry) Delete(id ID) {
	delete(r.entities, id)
}

// IDs returns every registered id in sorted order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// OfKind returns every entity of the given kind, sorted by id so that
// callers iterate deterministically.
func (r *Registry) OfKind(kind Kind) []Entity {
	var out []Entity
	for _, id := range r.IDs() {
		if e := r.entities[id]; e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of the registry and every entity in it.
func (r *Registry) Clone() *Registry {
	c := &Registry{entities: make(map[ID]Entity, len(r.entities))}
	for id, e := range r.entities {
		c.entities[id] = e.clone()
	}
	return c
}
