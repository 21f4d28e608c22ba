//go:build linux
// +build linux

package responder

import (
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// listen opens a blocking TCP listening socket for the configured address.
func listen(cfg Config) (int, error) {
	netAddr, err := net.ResolveTCPAddr("tcp", cfg.HostPort())
	if err != nil {
		return -1, errors.Wrapf(err, "resolve %s", cfg.HostPort())
	}

	var (
		family   int
		sockAddr unix.Sockaddr
	)
	if ip4 := netAddr.IP.To4(); ip4 != nil || netAddr.IP == nil {
		family = unix.AF_INET
		sa := &unix.SockaddrInet4{Port: netAddr.Port}
		copy(sa.Addr[:], ip4)
		sockAddr = sa
	} else {
		family = unix.AF_INET6
		sa := &unix.SockaddrInet6{Port: netAddr.Port}
		copy(sa.Addr[:], netAddr.IP.To16())
		if netAddr.Zone != "" {
			if ifi, err := net.InterfaceByName(netAddr.Zone); err == nil {
				sa.ZoneId = uint32(ifi.Index)
			}
		}
		sockAddr = sa
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, errors.Wrap(err, "could not open socket")
	}
	if cfg.ReuseAddr {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			return -1, errors.Wrap(err, "setsockopt SO_REUSEADDR")
		}
	}
	if err := unix.Bind(fd, sockAddr); err != nil {
		unix.Close(fd)
		return -1, errors.Wrapf(err, "bind %s", cfg.HostPort())
	}
	if err := unix.Listen(fd, cfg.Backlog); err != nil {
		unix.Close(fd)
		return -1, errors.Wrap(err, "listen")
	}
	return fd, nil
}

// sockaddrString formats a socket address as host:port.
func sockaddrString(sa unix.Sockaddr) string {
	switch sockType := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(sockType.Addr[:]).String(), strconv.Itoa(sockType.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(sockType.Addr[:]).String(), strconv.Itoa(sockType.Port))
	case *unix.SockaddrUnix:
		return sockType.Name
	}
	return ""
}

// boundAddr returns the local address of fd.
func boundAddr(fd int) (string, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return "", errors.Wrap(err, "getsockname")
	}
	return sockaddrString(sa), nil
}

// setReadTimeout sets SO_RCVTIMEO on a connection.
func setReadTimeout(fd int, d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

// temporaryAcceptErr reports whether an accept(2) failure only affects the
// pending connection and the listener can keep accepting.
func temporaryAcceptErr(err error) bool {
	switch err {
	case unix.EINTR, unix.ECONNABORTED, unix.EAGAIN, unix.EMFILE,
		unix.ENFILE, unix.ENOBUFS, unix.ENOMEM, unix.EPROTO:
		return true
	}
	return false
}
