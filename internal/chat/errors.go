package chat

import "errors"

// Domain error taxonomy. Handlers at the event boundary translate
// these into private error events for the triggering session; none of
// them terminates the connection.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("invalid request")
	ErrTransient       = errors.New("temporary failure, retry")
)
