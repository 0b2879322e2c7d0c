package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name       string
		current    IDSet
		desired    IDSet
		wantAdd    []int64
		wantRemove []int64
	}{
		{"equal sets", NewIDSet(1, 2, 3), NewIDSet(3, 2, 1), []int64{}, []int64{}},
		{"full detach", NewIDSet(1, 2), IDSet{}, []int64{}, []int64{1, 2}},
		{"full attach", IDSet{}, NewIDSet(4, 5), []int64{4, 5}, []int64{}},
		{"partial change", NewIDSet(1, 2, 3), NewIDSet(2, 3, 4), []int64{4}, []int64{1}},
		{"nil current", nil, NewIDSet(7), []int64{7}, []int64{}},
		{"both empty", IDSet{}, IDSet{}, []int64{}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toAdd, toRemove := Reconcile(tt.current, tt.desired)
			assert.Equal(t, tt.wantAdd, toAdd.Sorted())
			assert.Equal(t, tt.wantRemove, toRemove.Sorted())

			for id := range toAdd {
				assert.False(t, toRemove.Has(id), "sets must be disjoint")
			}

			// Applying the delta to current must yield desired.
			applied := IDSet{}
			for id := range tt.current {
				if !toRemove.Has(id) {
					applied.Add(id)
				}
			}
			for id := range toAdd {
				applied.Add(id)
			}
			assert.True(t, applied.Equal(tt.desired))
		})
	}
}

func TestReconcileDoesNotModifyInputs(t *testing.T) {
	current := NewIDSet(1, 2)
	desired := NewIDSet(2, 3)
	Reconcile(current, desired)
	assert.Equal(t, []int64{1, 2}, current.Sorted())
	assert.Equal(t, []int64{2, 3}, desired.Sorted())
}

func TestIDSet(t *testing.T) {
	s := NewIDSet(3, 1, 3, 2)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int64{1, 2, 3}, s.Sorted())
	assert.Equal(t, []int64{3, 2, 1}, s.SortedDesc())
	assert.True(t, s.Has(2))
	assert.False(t, s.Has(4))
	assert.True(t, s.Equal(NewIDSet(1, 2, 3)))
	assert.False(t, s.Equal(NewIDSet(1, 2)))
	assert.False(t, s.Equal(NewIDSet(1, 2, 4)))

	c := s.Clone()
	c.Add(9)
	assert.False(t, s.Has(9))

	var empty IDSet
	assert.Empty(t, empty.SortedDesc())
}
