package coursechat

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")

	// ErrToolRegistration indicates a tool could not be registered:
	// empty schema name or a name already taken. Fatal at startup.
	ErrToolRegistration = errors.New("tool registration error")

	// ErrCourseNotFound indicates no course in the catalog resembles
	// the requested name closely enough.
	ErrCourseNotFound = errors.New("course not found")

	// ErrSessionNotFound indicates an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")
)
