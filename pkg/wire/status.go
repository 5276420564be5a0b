package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the command was accepted.
	StatusSuccess Status = 0

	// StatusInvalidAction indicates an unknown action value.
	StatusInvalidAction Status = 1

	// StatusMissingParameter indicates a required argument was absent
	// (a Continuous request without a mode).
	StatusMissingParameter Status = 2

	// StatusInvalidParameter indicates an argument value is not recognized
	// (a Continuous mode other than "start" or "stop").
	StatusInvalidParameter Status = 3

	// StatusMalformedRequest indicates the request could not be decoded.
	StatusMalformedRequest Status = 4
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalidAction:
		return "INVALID_ACTION"
	case StatusMissingParameter:
		return "MISSING_PARAMETER"
	case StatusInvalidParameter:
		return "INVALID_PARAMETER"
	case StatusMalformedRequest:
		return "MALFORMED_REQUEST"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}
