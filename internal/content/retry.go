package content

import (
	"errors"
	"fmt"
	"net/http"
)

// statusError is a non-success response from a content server.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.code, e.body)
}

// isRetryable reports whether a failed fetch is worth another attempt:
// transport errors, 429 and 5xx responses.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var te *transportError
	return errors.As(err, &te)
}

// transportError marks failures below HTTP, such as refused connections.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }
