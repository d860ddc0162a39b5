package client

import "fmt"

// RemoteError is a non-2xx response from the parking service, tagged with
// the operation that failed. The server's message is carried through
// untransformed; user-facing wording is the caller's job.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}
