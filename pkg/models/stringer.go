package models

// String methods for the custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// SmellKind
func (k SmellKind) String() string { return string(k) }

// Severity
func (s Severity) String() string { return string(s) }

// Rule
func (r Rule) String() string { return string(r) }
