package shared

import "errors"

// Domain-specific errors
var (
	// Validation errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidItemID  = errors.New("invalid item id")
	ErrInvalidLimit   = errors.New("limit must be an integer between 1 and 1000")
	ErrInvalidOffset  = errors.New("offset must be a non-negative integer")

	// Item errors
	ErrItemNotFound = errors.New("item not found")
	ErrNameRequired = errors.New("name is required")
	ErrNameTooLong  = errors.New("name must be at most 255 characters")
	ErrNameNull     = errors.New("name cannot be null")

	// Database errors
	ErrDatabaseConnection  = errors.New("database connection failed")
	ErrDatabaseTransaction = errors.New("database transaction failed")

	// Event errors
	ErrEventsUnavailable = errors.New("item events are not available")
)

// IsValidation reports whether err describes malformed or out-of-range input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest,
		ErrInvalidItemID,
		ErrInvalidLimit,
		ErrInvalidOffset,
		ErrNameRequired,
		ErrNameTooLong,
		ErrNameNull,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
