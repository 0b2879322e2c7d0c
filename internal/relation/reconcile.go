package relation

// Reconcile compares the current membership with the desired one.
// toAdd holds desired ids missing from current, toRemove holds current ids
// that are no longer desired. The two sets are disjoint and applying both to
// current yields desired. Neither input is modified.
func Reconcile(current, desired IDSet) (toAdd, toRemove IDSet) {
	toAdd = IDSet{}
	toRemove = IDSet{}
	for id := range desired {
		if !current.Has(id) {
			toAdd.Add(id)
		}
	}
	for id := range current {
		if !desired.Has(id) {
			toRemove.Add(id)
		}
	}
	return toAdd, toRemove
}
