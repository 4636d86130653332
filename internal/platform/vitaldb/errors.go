package vitaldb

import "fmt"

const bodySnippetLen = 256

// RemoteFetchError is returned when the upstream answers with a non-success
// status.
type RemoteFetchError struct {
	Resource   string
	StatusCode int
	Body       string
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("fetch %s: upstream status %d: %s", e.Resource, e.StatusCode, e.Body)
}

// RemoteUnavailableError is returned when the upstream cannot be reached:
// connection failures, timeouts, and requests rejected by the circuit breaker.
type RemoteUnavailableError struct {
	Resource string
	Err      error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("fetch %s: upstream unavailable: %v", e.Resource, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

// InvalidResourceError rejects a resource name that cannot address an
// upstream document.
type InvalidResourceError struct {
	Resource string
}

func (e *InvalidResourceError) Error() string {
	return fmt.Sprintf("invalid resource name %q", e.Resource)
}

func snippet(body string) string {
	r := []rune(body)
	if len(r) <= bodySnippetLen {
		return body
	}
	return string(r[:bodySnippetLen]) + "..."
}
