package responder

import (
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultAddress is the address the responder binds to.
	DefaultAddress = "0.0.0.0"
	// DefaultPort is the TCP port the responder binds to.
	DefaultPort = 8888
	// DefaultBacklog is the listen(2) backlog.
	DefaultBacklog = 128
	// DefaultReadSize is the most bytes read from a connection.
	DefaultReadSize = 1024
	// DefaultRingEntries is the io_uring size used by EngineIOUring.
	DefaultRingEntries = 8
)

// DefaultResponse is written to every client that sends a request line.
var DefaultResponse = []byte("HTTP/1.1 200 OK\r\n\r\nHello, World!")

// EngineKind selects how connections are read and written.
type EngineKind string

const (
	// EngineSyscall uses blocking read(2) and write(2).
	EngineSyscall EngineKind = "syscall"
	// EngineIOUring submits readv and writev through an io_uring.
	EngineIOUring EngineKind = "iouring"
)

// Config is the configuration of a Server.
type Config struct {
	Address   string
	Port      int
	Backlog   int
	ReadSize  int
	ReuseAddr bool
	// ReadTimeout bounds the single read of a connection, zero blocks
	// forever.
	ReadTimeout time.Duration
	Engine      EngineKind
	RingEntries uint
	Response    []byte
}

// DefaultConfig returns the configuration that serves Hello, World! on
// 0.0.0.0:8888.
func DefaultConfig() Config {
	resp := make([]byte, len(DefaultResponse))
	copy(resp, DefaultResponse)
	return Config{
		Address:     DefaultAddress,
		Port:        DefaultPort,
		Backlog:     DefaultBacklog,
		ReadSize:    DefaultReadSize,
		ReuseAddr:   true,
		Engine:      EngineSyscall,
		RingEntries: DefaultRingEntries,
		Response:    resp,
	}
}

// HostPort returns the address and port joined for net.ResolveTCPAddr.
func (c Config) HostPort() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// Validate returns an error when the configuration can't be served.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.Backlog < 1 {
		return errors.Errorf("invalid backlog %d", c.Backlog)
	}
	if c.ReadSize < 1 {
		return errors.Errorf("invalid read size %d", c.ReadSize)
	}
	if c.ReadTimeout < 0 {
		return errors.Errorf("invalid read timeout %s", c.ReadTimeout)
	}
	if len(c.Response) == 0 {
		return errors.New("empty response")
	}
	switch c.Engine {
	case EngineSyscall:
	case EngineIOUring:
		if c.RingEntries == 0 || c.RingEntries > 4096 || c.RingEntries&(c.RingEntries-1) != 0 {
			return errors.Errorf("ring entries must be a power of 2 from 1 to 4096, got %d", c.RingEntries)
		}
	default:
		return errors.Errorf("unknown engine %q", c.Engine)
	}
	return nil
}
