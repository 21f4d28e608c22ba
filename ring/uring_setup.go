//go:build linux
// +build linux

package ring

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var (
	errInvalidEntries = errors.New("entries must be a power of 2 from 1 to 4096, inclusive")
	uint32Size        = unsafe.Sizeof(uint32(0))
	cqeSize           = unsafe.Sizeof(CompletionEntry{})
	sqeSize           = unsafe.Sizeof(SubmitEntry{})
)

// ValidEntries reports whether n is an acceptable ring size.
func ValidEntries(n uint) bool {
	return n > 0 && n <= MaxEntries && n&(n-1) == 0
}

// Setup is used to setup a io_uring using the io_uring_setup syscall.
func Setup(entries uint, params *Params) (int, error) {
	if !ValidEntries(entries) {
		return 0, errInvalidEntries
	}
	fd, _, errno := unix.Syscall(
		unix.SYS_IO_URING_SETUP,
		uintptr(entries),
		uintptr(unsafe.Pointer(params)),
		uintptr(0),
	)
	if errno != 0 {
		return 0, errors.Wrap(errno, "io_uring_setup")
	}
	return int(fd), nil
}

// MmapRing is used to configure the submit and completion queues, it should only
// be called after the Setup function has completed successfully.
// See:
// https://github.com/axboe/liburing/blob/master/src/setup.c#L22
func MmapRing(fd int, p *Params, sq *SubmitQueue, cq *CompletionQueue) error {
	singleMmap := p.Features&FeatSingleMmap != 0
	sq.Size = uint32(uint(p.SqOffset.Array) + (uint(p.SqEntries) * uint(uint32Size)))
	cq.Size = uint32(uint(p.CqOffset.Cqes) + (uint(p.CqEntries) * uint(cqeSize)))

	if singleMmap {
		if cq.Size > sq.Size {
			sq.Size = cq.Size
		} else {
			cq.Size = sq.Size
		}
	}

	var err error
	sq.ring, err = unix.Mmap(
		fd,
		SqRingOffset,
		int(sq.Size),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_POPULATE,
	)
	if err != nil {
		return errors.Wrap(err, "failed to mmap sq ring")
	}
	if singleMmap {
		cq.ring = sq.ring
	} else {
		cq.ring, err = unix.Mmap(
			fd,
			CqRingOffset,
			int(cq.Size),
			unix.PROT_READ|unix.PROT_WRITE,
			unix.MAP_SHARED|unix.MAP_POPULATE,
		)
		if err != nil {
			unix.Munmap(sq.ring)
			return errors.Wrap(err, "failed to mmap cq ring")
		}
	}
	sq.sqes, err = unix.Mmap(
		fd,
		SqeSOffset,
		int(uint(p.SqEntries)*uint(sqeSize)),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_POPULATE,
	)
	if err != nil {
		if !singleMmap {
			unix.Munmap(cq.ring)
		}
		unix.Munmap(sq.ring)
		return errors.Wrap(err, "failed to mmap sqes")
	}

	sq.Head = (*uint32)(unsafe.Pointer(&sq.ring[p.SqOffset.Head]))
	sq.Tail = (*uint32)(unsafe.Pointer(&sq.ring[p.SqOffset.Tail]))
	sq.Mask = (*uint32)(unsafe.Pointer(&sq.ring[p.SqOffset.RingMask]))
	sq.Flags = (*uint32)(unsafe.Pointer(&sq.ring[p.SqOffset.Flags]))
	sq.Dropped = (*uint32)(unsafe.Pointer(&sq.ring[p.SqOffset.Dropped]))
	sq.Array = unsafe.Slice((*uint32)(unsafe.Pointer(&sq.ring[p.SqOffset.Array])), p.SqEntries)
	sq.Entries = unsafe.Slice((*SubmitEntry)(unsafe.Pointer(&sq.sqes[0])), p.SqEntries)

	cq.Head = (*uint32)(unsafe.Pointer(&cq.ring[p.CqOffset.Head]))
	cq.Tail = (*uint32)(unsafe.Pointer(&cq.ring[p.CqOffset.Tail]))
	cq.Mask = (*uint32)(unsafe.Pointer(&cq.ring[p.CqOffset.RingMask]))
	cq.Overflow = (*uint32)(unsafe.Pointer(&cq.ring[p.CqOffset.Overflow]))
	cq.Entries = unsafe.Slice((*CompletionEntry)(unsafe.Pointer(&cq.ring[p.CqOffset.Cqes])), p.CqEntries)
	return nil
}
