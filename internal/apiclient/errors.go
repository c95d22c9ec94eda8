package apiclient

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable indicates a read against an upstream service failed
// at the network level or returned a non-success status.
var ErrUpstreamUnavailable = errors.New("upstream service unavailable")

// ErrCreateFailed indicates the upstream rejected a create request.
var ErrCreateFailed = errors.New("create request failed")

// ErrContentAttachFailed indicates content could not be appended to an
// item that was already created.
var ErrContentAttachFailed = errors.New("content attach failed")

// ErrMalformedResponse indicates a success response whose body could not be
// decoded. It is never retried.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError describes a non-2xx upstream response. It unwraps to one of
// the sentinel errors above.
type StatusError struct {
	Service    string
	Op         string
	StatusCode int
	Status     string
	Body       string
	Kind       error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Service, e.Op, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

// Retryable reports whether the response status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
