package bench

import "net/http"

type alreadyRunningError struct{}

func (alreadyRunningError) Error() string   { return "Benchmark is already running" }
func (alreadyRunningError) StatusCode() int { return http.StatusBadRequest }

func ErrAlreadyRunning() error { return alreadyRunningError{} }

func IsAlreadyRunning(err error) bool {
	_, ok := err.(alreadyRunningError)
	return ok
}

type notRunningError struct{}

func (notRunningError) Error() string   { return "No benchmark is running" }
func (notRunningError) StatusCode() int { return http.StatusBadRequest }

func ErrNotRunning() error { return notRunningError{} }

func IsNotRunning(err error) bool {
	_, ok := err.(notRunningError)
	return ok
}

// serverNotRunningError rejects a start while no vLLM server is running.
type serverNotRunningError struct{}

func (serverNotRunningError) Error() string   { return "vLLM server is not running" }
func (serverNotRunningError) StatusCode() int { return http.StatusBadRequest }

func ErrServerNotRunning() error { return serverNotRunningError{} }

func IsServerNotRunning(err error) bool {
	_, ok := err.(serverNotRunningError)
	return ok
}

type invalidSpecError struct{ msg string }

func (e invalidSpecError) Error() string { return "invalid benchmark spec: " + e.msg }
func (invalidSpecError) StatusCode() int { return http.StatusBadRequest }

func IsInvalidSpec(err error) bool {
	_, ok := err.(invalidSpecError)
	return ok
}
