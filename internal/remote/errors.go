// Package remote defines the failure taxonomy shared by the API client and
// the sync services that consume it.
package remote

import "errors"

var (
	// ErrTransport covers network failures, timeouts, and non-2xx responses.
	// Whether a given failure was a timeout or a server error is logged by
	// the client but not distinguished here.
	ErrTransport = errors.New("transport failure")

	// ErrMalformed indicates the response body did not match the expected
	// schema.
	ErrMalformed = errors.New("malformed response")

	// ErrNotFound indicates the remote service has no such resource.
	ErrNotFound = errors.New("remote resource not found")
)

// Recoverable reports whether callers should fall back to cached data
// instead of propagating the error. Storage errors are never recoverable.
func Recoverable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrMalformed)
}
