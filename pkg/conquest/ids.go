package conquest

import "slices"

// ID identifies an entity within a single snapshot.
type ID string

// NoID is the zero identifier. As an owner or controller it means neutral.
const NoID ID = ""

// IDList is an insertion-ordered set of identifiers. Order matters: combat
// keeps the first units of a group in list order.
type IDList []ID

// Contains reports whether id is in the list.
func (l IDList) Contains(id ID) bool {
	return slices.Contains(l, id)
}

// Add appends id if it is not already present.
func (l *IDList) Add(id ID) {
	if !l.Contains(id) {
		*l = append(*l, id)
	}
}

// Remove deletes id, preserving the order of the remaining entries.
func (l *IDList) Remove(id ID) {
	if i := slices.Index(*l, id); i >= 0 {
		*l = slices.Delete(*l, i, i+1)
	}
}

// Clone returns an independent copy. A nil list stays nil.
func (l IDList) Clone() IDList {
	if l == nil {
		return nil
	}
	return slices.Clone(l)
}

// Intersect returns the ids present in both lists, in l's order.
func (l IDList) Intersect(other IDList) IDList {
	var out IDList
	for _, id := range l {
		if other.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}
