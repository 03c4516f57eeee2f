package erp

import (
	"errors"
	"fmt"
)

// ErrDownstreamUnavailable is matched (with errors.Is) by every failure that means the ERP could
// not be reached: retries exhausted, deadline exceeded, connection refused.
var ErrDownstreamUnavailable = errors.New("erp unavailable")

// TransportError is returned once a request has failed at the network level on every attempt.
type TransportError struct {
	Method   string
	URL      string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrDownstreamUnavailable, e.Err}
}
