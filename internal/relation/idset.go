package relation

import (
	"slices"
)

// IDSet is an unordered set of entity ids. Duplicate ids collapse.
type IDSet map[int64]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(id int64)      { s[id] = struct{}{} }
func (s IDSet) Has(id int64) bool { _, ok := s[id]; return ok }
func (s IDSet) Len() int          { return len(s) }

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// SortedDesc returns the ids in descending order.
func (s IDSet) SortedDesc() []int64 {
	out := s.Sorted()
	slices.Reverse(out)
	return out
}

// Equal reports whether both sets hold exactly the same ids.
func (s IDSet) Equal(o IDSet) bool {
	if len(s) != len(o) {
		return false
	}
	for id := range s {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
