// Package status provides canonical account status values.
//
// Using these constants instead of string literals ensures consistency and
// makes refactoring easier. The constants are plain strings (not a custom type)
// for compatibility with MongoDB queries.
package status

// Account status values for users.
const (
	Active   = "active"
	Disabled = "disabled"
)

// IsValid returns true if s is a recognized status value.
func IsValid(s string) bool {
	return s == Active || s == Disabled
}

// Default returns the default status for new accounts.
func Default() string {
	return Active
}
