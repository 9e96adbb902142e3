package upstream

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks a 401 from a protected endpoint; the flow surfaces
// it as a "please log in" condition instead of a generic failure.
var ErrUnauthorized = errors.New("please log in")

// Error is a non-2xx response from an upstream service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("upstream: request failed (status %d)", e.Status)
}

// UpstreamMessage exposes the collaborator-provided message for verbatim
// display; empty when the response body carried none.
func (e *Error) UpstreamMessage() string {
	return e.Message
}
