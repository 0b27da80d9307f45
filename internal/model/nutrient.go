package model

// Nutrient is a tri-state nutrition quantity. The zero value is
// "untracked" (the user logged nothing), which is distinct from a
// tracked zero (a deliberate fast). Keeping the distinction in the
// type rather than in a nil pointer makes the untracked/fasted split
// explicit at every call site.
type Nutrient struct {
	value   float64
	tracked bool
}

// TrackedNutrient returns a tracked quantity; zero is a valid value.
func TrackedNutrient(v float64) Nutrient {
	return Nutrient{value: v, tracked: true}
}

// UntrackedNutrient returns the "no data" state.
func UntrackedNutrient() Nutrient {
	return Nutrient{}
}

// Tracked reports whether the quantity was logged at all.
func (n Nutrient) Tracked() bool {
	return n.tracked
}

// Get returns the logged value and whether it was tracked.
func (n Nutrient) Get() (float64, bool) {
	return n.value, n.tracked
}

// Or returns the logged value, or def when untracked.
func (n Nutrient) Or(def float64) float64 {
	if !n.tracked {
		return def
	}
	return n.value
}
