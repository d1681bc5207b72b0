package domain

import "errors"

var (
	// ErrProfileNotFound is the repository's mapping of sql.ErrNoRows.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileNotSet means the user tried to search before filling a profile.
	ErrProfileNotSet = errors.New("profile not filled in")

	// ErrRatingNotSet means a rating-band search was requested but the
	// requester has no rating on record.
	ErrRatingNotSet = errors.New("requester rating not set")
)

// ValidationError is a malformed user input: bad role token, out-of-range
// rating, non-positive delta, unknown action tag. It is recovered locally by
// re-prompting the same screen and never mutates stored state.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError wraps a user-facing message.
func NewValidationError(msg string) error { return &ValidationError{Msg: msg} }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
