package library

import "errors"

var (
	// ErrValidation is returned when a required field is missing.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateKey is returned when an ISBN is already in the catalog.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when an operation targets a record that does not
	// exist or is no longer eligible (e.g. a book that is already borrowed).
	ErrNotFound = errors.New("not found")

	// ErrBuildingQueryFailed wraps goqu failures while rendering SQL.
	ErrBuildingQueryFailed = errors.New("building query failed")
)

// IsUserError reports whether err is one of the request errors above, as
// opposed to a storage failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicateKey) || errors.Is(err, ErrNotFound)
}
