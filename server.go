//go:build linux
// +build linux

package responder

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Stats counts connection outcomes.
type Stats struct {
	Accepted  uint64
	Served    uint64
	Empty     uint64
	Malformed uint64
	Failed    uint64
}

// Server accepts connections one at a time and answers each request with a
// fixed response.
type Server struct {
	cfg    Config
	fd     int
	addr   string
	engine Engine
	log    *logrus.Logger
	out    io.Writer

	// mu guards conn and serving. conn is the connection being handled,
	// -1 between connections.
	mu      sync.Mutex
	conn    int
	serving bool
	done    chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	accepted  atomic.Uint64
	served    atomic.Uint64
	empty     atomic.Uint64
	malformed atomic.Uint64
	failed    atomic.Uint64
}

// New validates cfg, binds the listening socket and returns a Server ready
// to Serve.
func New(cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	s := &Server{
		cfg:  cfg,
		fd:   -1,
		conn: -1,
		log: logrus.StandardLogger(),
		out: os.Stdout,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.engine == nil {
		e, err := newEngine(cfg, s.log)
		if err != nil {
			return nil, err
		}
		s.engine = e
	}

	fd, err := listen(cfg)
	if err != nil {
		s.engine.Close()
		return nil, err
	}
	s.fd = fd
	s.addr, err = boundAddr(fd)
	if err != nil {
		unix.Close(fd)
		s.engine.Close()
		return nil, err
	}
	return s, nil
}

// Addr returns the bound host:port.
func (s *Server) Addr() string {
	return s.addr
}

// Stats returns a snapshot of the connection counters.
func (s *Server) Stats() Stats {
	return Stats{
		Accepted:  s.accepted.Load(),
		Served:    s.served.Load(),
		Empty:     s.empty.Load(),
		Malformed: s.malformed.Load(),
		Failed:    s.failed.Load(),
	}
}

// Serve accepts and handles connections serially until the server is
// closed or the listener fails. It always returns a non-nil error.
func (s *Server) Serve() error {
	s.mu.Lock()
	if s.closed.Load() || s.serving {
		s.mu.Unlock()
		return ErrServerClosed
	}
	s.serving = true
	s.done = make(chan struct{})
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.serving = false
		close(s.done)
		s.mu.Unlock()
	}()

	fmt.Fprintf(s.out, "Serving HTTP on: %s\n", s.addr)
	s.log.WithFields(logrus.Fields{
		"addr":    s.addr,
		"backlog": s.cfg.Backlog,
		"engine":  s.cfg.Engine,
	}).Info("listening")

	for {
		if s.closed.Load() {
			return ErrServerClosed
		}
		nfd, sa, err := unix.Accept4(s.fd, unix.SOCK_CLOEXEC)
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}
			if temporaryAcceptErr(err) {
				s.log.WithError(err).Warn("accept failed")
				continue
			}
			return errors.Wrap(err, "accept")
		}
		s.mu.Lock()
		if s.closed.Load() {
			s.mu.Unlock()
			unix.Close(nfd)
			return ErrServerClosed
		}
		s.conn = nfd
		s.mu.Unlock()
		s.accepted.Add(1)
		remote := sockaddrString(sa)

		err = s.handle(nfd)
		switch {
		case err == nil:
			s.served.Add(1)
		case err == ErrNoData:
			s.empty.Add(1)
			s.log.WithField("remote", remote).Debug("client sent no data")
		case IsMalformed(err):
			s.malformed.Add(1)
			s.log.WithField("remote", remote).WithError(err).Warn("dropping connection")
		default:
			s.failed.Add(1)
			entry := s.log.WithField("remote", remote).WithError(errors.Cause(err))
			if ce, ok := err.(*ConnError); ok {
				entry = entry.WithField("op", ce.Op)
			}
			entry.Error("connection failed")
		}
	}
}

// handle runs one request/response cycle. The connection is closed exactly
// once before returning.
func (s *Server) handle(fd int) (err error) {
	defer func() {
		if cerr := s.closeConn(fd); cerr != nil && err == nil {
			err = &ConnError{Op: "close", Err: cerr}
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		if err := setReadTimeout(fd, s.cfg.ReadTimeout); err != nil {
			return &ConnError{Op: "setsockopt", Err: err}
		}
	}

	buf := make([]byte, s.cfg.ReadSize)
	n, err := s.engine.Read(fd, buf)
	if err != nil {
		return &ConnError{Op: "read", Err: err}
	}

	line, err := ParseRequestLine(buf[:n])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, line.String())

	resp := s.cfg.Response
	for len(resp) > 0 {
		n, err := s.engine.Write(fd, resp)
		if err != nil {
			return &ConnError{Op: "write", Err: err}
		}
		if n == 0 {
			return &ConnError{Op: "write", Err: io.ErrShortWrite}
		}
		resp = resp[n:]
	}
	return nil
}

// closeConn closes a handled connection. It holds mu so Close never shuts
// down a descriptor number that was already closed and reused.
func (s *Server) closeConn(fd int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == fd {
		s.conn = -1
	}
	return unix.Close(fd)
}

// Close stops Serve and releases the listening socket and the engine. A
// connection being handled is shut down so a pending read returns, and Close
// waits for Serve to return before closing the engine. It is safe to call
// more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		// shutdown(2) wakes a goroutine blocked in accept(2) or read(2),
		// close(2) does not.
		unix.Shutdown(s.fd, unix.SHUT_RDWR)
		if s.conn >= 0 {
			unix.Shutdown(s.conn, unix.SHUT_RDWR)
		}
		serving, done := s.serving, s.done
		s.mu.Unlock()
		if serving {
			<-done
		}

		if err := unix.Close(s.fd); err != nil {
			s.closeErr = errors.Wrap(err, "close listener")
		}
		if err := s.engine.Close(); err != nil && s.closeErr == nil {
			s.closeErr = errors.Wrap(err, "close engine")
		}
	})
	return s.closeErr
}
