package contacts

import "errors"

var (
	// ErrMissingFields is returned when name, email, service or message is blank
	ErrMissingFields = errors.New("contacts: required field missing")

	// ErrInvalidEmail is returned when the email does not look like local@domain.tld
	ErrInvalidEmail = errors.New("contacts: invalid email")

	// ErrInvalidService is returned when the service is not one we offer
	ErrInvalidService = errors.New("contacts: invalid service")

	// ErrInvalidStatus is returned for a status outside the lifecycle values
	ErrInvalidStatus = errors.New("contacts: invalid status")

	// ErrSubmissionNotFound is returned when no submission has the requested id
	ErrSubmissionNotFound = errors.New("contacts: submission not found")
)

// IsValidationError reports whether err was caused by the client's input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidService) ||
		errors.Is(err, ErrInvalidStatus)
}
