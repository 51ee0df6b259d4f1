package graphql

import "fmt"

// RemoteError is returned when the service executed the request but reported
// errors. Only the first reported message is kept; Count records how many
// errors the response carried.
type RemoteError struct {
	Message string
	Path    string
	Count   int
}

func (e *RemoteError) Error() string {
	return e.Message
}

// TransportError is returned when the HTTP exchange could not be completed or
// its response could not be decoded.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return "graphql transport failure"
	}
	return e.Cause.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

func transportErrorf(format string, args ...interface{}) *TransportError {
	return &TransportError{Cause: fmt.Errorf(format, args...)}
}
