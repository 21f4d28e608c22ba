//go:build linux
// +build linux

package responder

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/hodgesds/responder/ring"
)

// Engine reads from and writes to accepted connections.
type Engine interface {
	Read(fd int, b []byte) (int, error)
	Write(fd int, b []byte) (int, error)
	Close() error
}

// newEngine builds the engine named by the config.
func newEngine(cfg Config, log *logrus.Logger) (Engine, error) {
	switch cfg.Engine {
	case EngineSyscall:
		return syscallEngine{}, nil
	case EngineIOUring:
		return NewRingEngine(cfg.RingEntries, log)
	}
	return nil, errors.Errorf("unknown engine %q", cfg.Engine)
}

// syscallEngine does blocking read(2) and write(2).
type syscallEngine struct{}

func (syscallEngine) Read(fd int, b []byte) (int, error) {
	for {
		n, err := unix.Read(fd, b)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func (syscallEngine) Write(fd int, b []byte) (int, error) {
	for {
		n, err := unix.Write(fd, b)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func (syscallEngine) Close() error { return nil }

// ringEngine submits reads and writes to an io_uring.
type ringEngine struct {
	r *ring.Ring
}

// NewRingEngine creates an io_uring backed Engine with the given number of
// entries. Enter failures are logged to log.
func NewRingEngine(entries uint, log *logrus.Logger) (Engine, error) {
	r, err := ring.New(
		entries,
		&ring.Params{},
		ring.WithEnterErrHandler(func(err error) {
			log.WithError(err).Warn("io_uring enter failed")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create io_uring")
	}
	if err := r.Nop(); err != nil {
		r.Close()
		return nil, errors.Wrap(err, "probe io_uring")
	}
	return &ringEngine{r: r}, nil
}

func (e *ringEngine) Read(fd int, b []byte) (int, error) {
	return e.r.Readv(fd, b)
}

func (e *ringEngine) Write(fd int, b []byte) (int, error) {
	return e.r.Writev(fd, b)
}

func (e *ringEngine) Close() error {
	return e.r.Close()
}
