package responder

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoData is returned when a client closes without sending anything.
	ErrNoData = errors.New("no data received")
	// ErrServerClosed is returned by Serve after Close.
	ErrServerClosed = errors.New("responder: server closed")
)

// MalformedError is returned for a request line that is not exactly
// METHOD PATH VERSION.
type MalformedError struct {
	Line   string
	Tokens int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed request line %q: %s", e.Line, e.Reason)
}

// ConnError is a socket failure while handling one connection.
type ConnError struct {
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Cause implements the causer interface of github.com/pkg/errors.
func (e *ConnError) Cause() error {
	return e.Err
}

// Unwrap supports errors.Is and errors.As from the standard library.
func (e *ConnError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is caused by a malformed request line.
func IsMalformed(err error) bool {
	_, ok := errors.Cause(err).(*MalformedError)
	return ok
}
