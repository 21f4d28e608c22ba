//go:build linux
// +build linux

package ring

import (
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// newTestRing creates a ring or skips when the kernel refuses io_uring
// (old kernels, seccomp profiles in containers).
func newTestRing(t *testing.T, opts ...RingOption) *Ring {
	t.Helper()
	r, err := New(8, nil, opts...)
	if err != nil {
		t.Skipf("io_uring unavailable: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestEntrySizes(t *testing.T) {
	require.Equal(t, uintptr(64), unsafe.Sizeof(SubmitEntry{}))
	require.Equal(t, uintptr(16), unsafe.Sizeof(CompletionEntry{}))
	require.Equal(t, uintptr(120), unsafe.Sizeof(Params{}))
}

func TestValidEntries(t *testing.T) {
	for _, n := range []uint{1, 2, 8, 1024, 4096} {
		require.True(t, ValidEntries(n), "%d", n)
	}
	for _, n := range []uint{0, 3, 100, 8192, 99999} {
		require.False(t, ValidEntries(n), "%d", n)
	}
}

func TestNew(t *testing.T) {
	r := newTestRing(t)

	require.NotZero(t, r.sq.Size)
	require.NotNil(t, r.sq.Head)
	require.NotNil(t, r.sq.Tail)
	require.NotNil(t, r.sq.Mask)
	require.NotNil(t, r.sq.Flags)
	require.NotNil(t, r.sq.Dropped)
	require.Len(t, r.sq.Array, 8)
	require.Len(t, r.sq.Entries, 8)

	require.NotZero(t, r.cq.Size)
	require.NotNil(t, r.cq.Head)
	require.NotNil(t, r.cq.Tail)
	require.NotNil(t, r.cq.Mask)
	require.NotEmpty(t, r.cq.Entries)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestNewRingInvalidSize(t *testing.T) {
	_, err := New(99999, nil)
	require.Error(t, err)
}

func TestWithID(t *testing.T) {
	r := newTestRing(t, WithID(100000))
	require.Equal(t, uint64(100001), r.ID())
}

func TestNop(t *testing.T) {
	r := newTestRing(t)
	// More nops than entries to exercise wrapping of both rings.
	for i := 0; i < 32; i++ {
		require.NoError(t, r.Nop())
	}
}

func TestReadvWritev(t *testing.T) {
	r := newTestRing(t)

	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_CLOEXEC))
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	data := []byte("testing...1,2,3")
	n, err := r.Writev(fds[1], data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	buf := make([]byte, 64)
	n, err = r.Readv(fds[0], buf)
	require.NoError(t, err)
	require.Equal(t, data, buf[:n])
}

func TestReadvBadFd(t *testing.T) {
	r := newTestRing(t)
	_, err := r.Readv(-1, make([]byte, 8))
	require.Equal(t, unix.EBADF, err)
}

func TestClosedRing(t *testing.T) {
	r := newTestRing(t)
	require.NoError(t, r.Close())
	require.Equal(t, errRingClosed, r.Nop())
}

func TestEnterErrHandler(t *testing.T) {
	var got error
	r := newTestRing(t, WithEnterErrHandler(func(err error) { got = err }))
	fd := r.fd
	// Point the ring at a descriptor that is not an io_uring.
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_CLOEXEC))
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])
	r.fd = fds[0]
	err := r.Nop()
	r.fd = fd
	require.Error(t, err)
	require.Error(t, got)
}

func TestNopAfterEnterFailure(t *testing.T) {
	r := newTestRing(t)
	fd := r.fd
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_CLOEXEC))
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	// The failed enter leaves its SQE published but unsubmitted.
	r.fd = fds[0]
	require.Error(t, r.Nop())
	r.fd = fd
	require.Equal(t, uint(1), r.pending())

	done := make(chan error, 1)
	go func() {
		done <- r.Nop()
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Nop did not complete after a failed enter")
	}
	require.Zero(t, r.pending())

	// The ring keeps working for reads and writes as well.
	var p [2]int
	require.NoError(t, unix.Pipe2(p[:], unix.O_CLOEXEC))
	defer unix.Close(p[0])
	defer unix.Close(p[1])
	_, err := r.Writev(p[1], []byte("ok"))
	require.NoError(t, err)
	buf := make([]byte, 8)
	n, err := r.Readv(p[0], buf)
	require.NoError(t, err)
	require.Equal(t, "ok", string(buf[:n]))
}
