//go:build linux
// +build linux

package ring

// See uapi/linux/io_uring.h

// Opcode is an opcode for the ring.
type Opcode uint8

const (
	// Nop does nothing, it is used to probe the ring.
	Nop Opcode = 0
	// Readv is a vectored read.
	Readv Opcode = 1
	// Writev is a vectored write.
	Writev Opcode = 2
)

const (
	/*
	 * io_uring_setup() flags
	 */

	// SetupIOPoll io_context is polled
	SetupIOPoll uint32 = (1 << 0)
	// SetupSQPoll SQ poll thread
	SetupSQPoll uint32 = (1 << 1)
	// SetupSQAFF sq_thread_cpu is valid
	SetupSQAFF uint32 = (1 << 2)

	/*
	 * io_uring_params->features flags
	 */

	// FeatSingleMmap means the SQ and CQ rings share one mmap.
	FeatSingleMmap uint32 = (1 << 0)
	// FeatNoDrop means the kernel does not drop completions on overflow.
	FeatNoDrop uint32 = (1 << 1)

	/*
	 * Magic offsets for the application to mmap the data it needs
	 */

	// SqRingOffset is the offset of the submission queue.
	SqRingOffset int64 = 0
	// CqRingOffset is the offset of the completion queue.
	CqRingOffset int64 = 0x8000000
	// SqeSOffset is the offset of the submission queue entries.
	SqeSOffset int64 = 0x10000000

	/*
	 * sq_ring->flags
	 */

	// SqNeedWakeup needs io_uring_enter wakeup
	SqNeedWakeup uint32 = (1 << 0)

	/*
	 * io_uring_enter(2) flags
	 */

	// EnterGetEvents waits for completions.
	EnterGetEvents uint = (1 << 0)
	// EnterSqWakeup wakes the SQ poll thread.
	EnterSqWakeup uint = (1 << 1)

	// MaxEntries is the largest ring io_uring_setup accepts.
	MaxEntries uint = 4096
)
