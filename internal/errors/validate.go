package errors

import "github.com/google/uuid"

// ValidateID rejects values that are not UUIDs with InvalidArgument.
// field names the request field in the message, e.g. "userId must be a valid UUID".
func ValidateID(field, value string) error {
	if value == "" {
		return InvalidArgument(field + " is required")
	}
	if _, err := uuid.Parse(value); err != nil {
		return InvalidArgument(field + " must be a valid UUID")
	}
	return nil
}
