//go:build linux
// +build linux

package ring

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Enter is used to submit to the queue.
func Enter(fd int, toSubmit uint, minComplete uint, flags uint, sigset *unix.Sigset_t) (int, error) {
	for {
		res, _, errno := unix.Syscall6(
			unix.SYS_IO_URING_ENTER,
			uintptr(fd),
			uintptr(toSubmit),
			uintptr(minComplete),
			uintptr(flags),
			uintptr(unsafe.Pointer(sigset)),
			uintptr(0),
		)
		if errno == unix.EINTR {
			continue
		}
		if errno != 0 {
			return 0, errno
		}
		return int(res), nil
	}
}
