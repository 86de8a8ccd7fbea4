package proxy

import (
	"errors"
	"fmt"
)

// ErrMalformedBody indicates the upstream returned 2xx with a body that is
// not valid JSON.
var ErrMalformedBody = errors.New("upstream body is not valid JSON")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d", e.Status)
}
