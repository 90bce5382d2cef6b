package domain

// FieldDependencyRule recomputes Targets whenever Trigger changes.
// Compute must be a pure function of values; its result fully replaces the
// targets (a declared target missing from the result is cleared).
type FieldDependencyRule struct {
	Name    string
	Trigger string
	Targets []string
	Compute func(values Values) Values
}
