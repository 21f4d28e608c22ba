//go:build linux
// +build linux

package ring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var (
	errRingUnavailable = errors.New("ring unavailable")
	errRingClosed      = errors.New("ring closed")
)

// Ring contains an io_uring submit and completion ring. Operations are
// submitted and reaped one at a time, the ring is not meant to be shared by
// concurrent submitters.
type Ring struct {
	fd  int
	p   *Params
	cq  *CompletionQueue
	sq  *SubmitQueue
	mu  sync.Mutex
	idx *uint64
	iov unix.Iovec

	enterErrHandler func(error)
}

// New is used to create an iouring.Ring.
func New(size uint, p *Params, opts ...RingOption) (*Ring, error) {
	if p == nil {
		p = &Params{}
	}
	fd, err := Setup(size, p)
	if err != nil {
		return nil, err
	}
	var (
		cq CompletionQueue
		sq SubmitQueue
	)
	if err := MmapRing(fd, p, &sq, &cq); err != nil {
		unix.Close(fd)
		return nil, err
	}
	idx := uint64(0)
	r := &Ring{
		p:   p,
		fd:  fd,
		cq:  &cq,
		sq:  &sq,
		idx: &idx,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

// Fd returns the file descriptor of the ring.
func (r *Ring) Fd() int {
	return r.fd
}

// ID returns an id for a SQEs, it is a monotonically increasing value (until
// uint64 wrapping).
func (r *Ring) ID() uint64 {
	return atomic.AddUint64(r.idx, 1)
}

// Close is used to close the ring.
func (r *Ring) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sq == nil {
		return nil
	}
	if err := unix.Munmap(r.sq.sqes); err != nil {
		return errors.Wrap(err, "failed to munmap sqes")
	}
	if r.p.Features&FeatSingleMmap == 0 {
		if err := unix.Munmap(r.cq.ring); err != nil {
			return errors.Wrap(err, "failed to munmap cq ring")
		}
	}
	if err := unix.Munmap(r.sq.ring); err != nil {
		return errors.Wrap(err, "failed to munmap sq ring")
	}
	r.sq = nil
	r.cq = nil
	return unix.Close(r.fd)
}

// submitEntry fills the next free SQE with prep and publishes it to the
// kernel by moving the tail.
func (r *Ring) submitEntry(prep func(*SubmitEntry)) (uint64, error) {
	head := atomic.LoadUint32(r.sq.Head)
	tail := atomic.LoadUint32(r.sq.Tail)
	if tail-head >= uint32(len(r.sq.Entries)) {
		return 0, errRingUnavailable
	}
	idx := tail & *r.sq.Mask
	sqe := &r.sq.Entries[idx]
	sqe.Reset()
	prep(sqe)
	sqe.UserData = r.ID()
	r.sq.Array[idx] = idx
	atomic.StoreUint32(r.sq.Tail, tail+1)
	return sqe.UserData, nil
}

// pending returns the number of SQEs published to the ring that the kernel
// has not consumed yet, including ones left behind by a failed enter.
func (r *Ring) pending() uint {
	return uint(atomic.LoadUint32(r.sq.Tail) - atomic.LoadUint32(r.sq.Head))
}

// complete enters the ring until the CQE for id is available and consumes
// it.
func (r *Ring) complete(id uint64) (int32, error) {
	for {
		head := atomic.LoadUint32(r.cq.Head)
		tail := atomic.LoadUint32(r.cq.Tail)
		if head == tail {
			flags := EnterGetEvents
			if atomic.LoadUint32(r.sq.Flags)&SqNeedWakeup != 0 {
				flags |= EnterSqWakeup
			}
			if _, err := Enter(r.fd, r.pending(), 1, flags, nil); err != nil {
				if r.enterErrHandler != nil {
					r.enterErrHandler(err)
				}
				return 0, errors.Wrap(err, "io_uring_enter")
			}
			continue
		}
		cqe := r.cq.Entries[head&*r.cq.Mask]
		atomic.StoreUint32(r.cq.Head, head+1)
		if cqe.UserData != id {
			// Stale completion from an abandoned submission.
			continue
		}
		return cqe.Res, nil
	}
}

// do submits a single SQE and waits for its result.
func (r *Ring) do(prep func(*SubmitEntry)) (int, error) {
	if r.sq == nil {
		return 0, errRingClosed
	}
	id, err := r.submitEntry(prep)
	if err != nil {
		return 0, err
	}
	res, err := r.complete(id)
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return 0, unix.Errno(-res)
	}
	return int(res), nil
}

// Nop submits a nop and waits for it to complete.
func (r *Ring) Nop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.do(func(sqe *SubmitEntry) {
		sqe.Opcode = Nop
	})
	return err
}

// Readv reads into b from fd with a single iovec readv.
func (r *Ring) Readv(fd int, b []byte) (int, error) {
	return r.rw(Readv, fd, b)
}

// Writev writes b to fd with a single iovec writev.
func (r *Ring) Writev(fd int, b []byte) (int, error) {
	return r.rw(Writev, fd, b)
}

func (r *Ring) rw(op Opcode, fd int, b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// The iovec lives in the Ring so its address stays valid until the
	// kernel has consumed the SQE.
	r.iov.Base = &b[0]
	r.iov.SetLen(len(b))
	n, err := r.do(func(sqe *SubmitEntry) {
		sqe.Opcode = op
		sqe.Fd = int32(fd)
		sqe.Addr = uint64(uintptr(unsafe.Pointer(&r.iov)))
		sqe.Len = 1
	})
	r.iov = unix.Iovec{}
	runtime.KeepAlive(b)
	return n, err
}
