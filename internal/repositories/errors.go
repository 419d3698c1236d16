package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrDependentsRemain indicates the record itself was deleted but some of
	// its dependent records could not be swept.
	ErrDependentsRemain = errors.New("record deleted, dependents remain")
)
