//go:build linux
// +build linux

package ring

// Params are used to configured a io uring.
type Params struct {
	SqEntries    uint32
	CqEntries    uint32
	Flags        uint32
	SqThreadCPU  uint32
	SqThreadIdle uint32
	Features     uint32
	WqFd         uint32
	Resv         [3]uint32
	SqOffset     SQRingOffset
	CqOffset     CQRingOffset
}

// CQRingOffset describes the various completion queue offsets.
type CQRingOffset struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	Cqes        uint32
	Flags       uint32
	Resv1       uint32
	Resv2       uint64
}

// SQRingOffset describes the various submit queue offets.
type SQRingOffset struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	Resv2       uint64
}

// SubmitEntry is an IO submission data structure (Submission Queue Entry).
type SubmitEntry struct {
	Opcode      Opcode /* type of operation for this sqe */
	Flags       uint8  /* IOSQE_ flags */
	Ioprio      uint16 /* ioprio for the request */
	Fd          int32  /* file descriptor to do IO on */
	Offset      uint64 /* offset into file */
	Addr        uint64 /* pointer to buffer or iovecs */
	Len         uint32 /* buffer size or number of iovecs */
	UFlags      int32  /* union of various flags */
	UserData    uint64 /* data to be passed back at completion time */
	BufIndex    uint16 /* index into fixed buffers, if used */
	Personality uint16
	SpliceFdIn  int32
	_pad        [2]uint64
}

// Reset is used to reset an SubmitEntry.
func (e *SubmitEntry) Reset() {
	*e = SubmitEntry{Fd: -1}
}

// SubmitQueue represents the submit queue ring buffer.
type SubmitQueue struct {
	Size    uint32
	Head    *uint32
	Tail    *uint32
	Mask    *uint32
	Flags   *uint32
	Dropped *uint32

	// Array holds indexes into Entries, in submission order.
	Array []uint32
	// Entries must never be resized, it is mmap'd.
	Entries []SubmitEntry

	ring []byte
	sqes []byte
}

// CompletionEntry IO completion data structure (Completion Queue Entry).
type CompletionEntry struct {
	UserData uint64 /* sqe->data submission passed back */
	Res      int32  /* result code for this event */
	Flags    uint32
}

// CompletionQueue represents the completion queue ring buffer.
type CompletionQueue struct {
	Size     uint32
	Head     *uint32
	Tail     *uint32
	Mask     *uint32
	Overflow *uint32

	// Entries must never be resized, it is mmap'd.
	Entries []CompletionEntry

	ring []byte
}
