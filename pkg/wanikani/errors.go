package wanikani

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the API rejects the token.
var ErrUnauthorized = errors.New("wanikani: unauthorized (check WANIKANI_TOKEN)")

// StatusError is returned for any other non-2xx response.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wanikani: %s returned status %d: %s", e.URL, e.Code, e.Body)
}
