//go:build linux
// +build linux

package responder

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Option is an option for configuring a Server.
type Option func(*Server) error

// WithLogger is used to set the logger for diagnostics.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Server) error {
		if log == nil {
			return errors.New("nil logger")
		}
		s.log = log
		return nil
	}
}

// WithOutput sets where the startup line and request lines are printed.
func WithOutput(w io.Writer) Option {
	return func(s *Server) error {
		if w == nil {
			return errors.New("nil output")
		}
		s.out = w
		return nil
	}
}

// WithEngine overrides the engine selected by Config.Engine. The server
// closes the engine when it is closed.
func WithEngine(e Engine) Option {
	return func(s *Server) error {
		if e == nil {
			return errors.New("nil engine")
		}
		s.engine = e
		return nil
	}
}
