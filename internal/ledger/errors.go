package ledger

import "errors"

// ValidationError rejects a mutation on domain grounds. The HTTP layer maps
// it to a 400 response with the message as the reason.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")
