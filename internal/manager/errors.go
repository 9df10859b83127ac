package manager

import (
	"fmt"
	"net/http"
)

// alreadyRunningError is returned by Start while a process is active.
type alreadyRunningError struct{}

func (alreadyRunningError) Error() string   { return "Server is already running" }
func (alreadyRunningError) StatusCode() int { return http.StatusBadRequest }

func ErrAlreadyRunning() error { return alreadyRunningError{} }

// IsAlreadyRunning reports whether err rejects a start on a live process.
func IsAlreadyRunning(err error) bool {
	_, ok := err.(alreadyRunningError)
	return ok
}

// notRunningError is returned by Stop when no process is running.
type notRunningError struct{}

func (notRunningError) Error() string   { return "Server is not running" }
func (notRunningError) StatusCode() int { return http.StatusBadRequest }

func ErrNotRunning() error { return notRunningError{} }

func IsNotRunning(err error) bool {
	_, ok := err.(notRunningError)
	return ok
}

// serverNotRunningError is returned by proxy calls without a running server.
type serverNotRunningError struct{}

func (serverNotRunningError) Error() string   { return "vLLM server is not running" }
func (serverNotRunningError) StatusCode() int { return http.StatusBadRequest }

func ErrServerNotRunning() error { return serverNotRunningError{} }

func IsServerNotRunning(err error) bool {
	_, ok := err.(serverNotRunningError)
	return ok
}

// UpstreamError carries a non-success reply from the vLLM server.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("vLLM server returned status %d", e.Status)
	}
	return e.Body
}

// StatusCode forwards the upstream status to the HTTP layer.
func (e *UpstreamError) StatusCode() int { return e.Status }

// IsUpstream reports whether err is an *UpstreamError.
func IsUpstream(err error) bool {
	_, ok := err.(*UpstreamError)
	return ok
}

// transportError wraps a network failure talking to the vLLM server.
type transportError struct{ err error }

func (e transportError) Error() string   { return "vLLM server unreachable: " + e.err.Error() }
func (e transportError) Unwrap() error   { return e.err }
func (e transportError) StatusCode() int { return http.StatusBadGateway }

func ErrTransport(err error) error { return transportError{err: err} }

func IsTransport(err error) bool {
	_, ok := err.(transportError)
	return ok
}

// processIOError is a transient failure reading the child's output. It is
// reported on the log stream and retried, never returned to callers.
type processIOError struct{ err error }

func (e processIOError) Error() string { return "Error reading logs: " + e.err.Error() }
func (e processIOError) Unwrap() error { return e.err }
