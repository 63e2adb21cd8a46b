// Package svc defines the supervisor-call surface the runtime is built
// against: kernel object handles, memory region descriptors, result codes
// and the per-thread IPC scratch buffer. The Kernel interface is the one
// seam between the self-remapping logic and whatever actually services the
// calls; see package hos for a hosted implementation.
package svc

import "encoding/binary"

// PageSize is the kernel's memory page granularity. Every mapping
// operation works on multiples of it.
const PageSize = 0x1000

// Handle is a capability referencing a kernel object. Handles are
// meaningless values outside the kernel's handle table; closing a handle
// drops the reference.
type Handle uint32

const (
	// InvalidHandle is the zero handle. It never names an object.
	InvalidHandle Handle = 0

	// CurProcessPseudoHandle names the calling process without holding a
	// real handle to it. The kernel accepts it in IPC handle descriptors
	// and resolves it to a real handle while delivering the message,
	// which is the edge case the handle bootstrap relies on.
	CurProcessPseudoHandle Handle = 0xFFFF8001
)

// InfiniteTimeout makes a blocking call wait forever.
const InfiniteTimeout = int64(-1)

// InfoType selects what GetInfo reports.
type InfoType uint32

// InfoTypeCurrentProcessHandle asks the kernel's security monitor for a
// handle to the calling process. Not every kernel build implements it;
// callers must be prepared for ResultInvalidEnumValue.
const InfoTypeCurrentProcessHandle InfoType = 65001

// MemoryState classifies a region of address space.
type MemoryState uint32

const (
	// MemFree is unmapped address space.
	MemFree MemoryState = iota
	// MemCode is executable image memory.
	MemCode
	// MemCodeMutable is a writable alias of code memory created by
	// MapProcessMemory.
	MemCodeMutable
)

// Permission is a region's access mask.
type Permission uint32

const (
	PermNone Permission = 0
	PermR    Permission = 1
	PermW    Permission = 2
	PermX    Permission = 4

	PermRW = PermR | PermW
	PermRX = PermR | PermX
)

// MemoryInfo describes one contiguous block of address space with uniform
// attributes, as reported by QueryMemory. The kernel decides the block
// boundaries; a range the caller thinks of as one unit may be reported as
// several blocks.
type MemoryInfo struct {
	Addr  uintptr
	Size  uintptr
	State MemoryState
	Perm  Permission
}

// Reservation is a claim on a range of address space. The range is
// guaranteed not to be handed out to anyone else until it is released, but
// carries no backing until something is mapped into it.
type Reservation struct {
	Base uintptr
	Size uintptr
}

// TLSSize is the size of a thread's IPC scratch buffer.
const TLSSize = 0x100

// TLS is a thread's IPC scratch buffer. Outgoing requests are formatted
// into it before SendSyncRequest; the kernel writes delivered messages into
// the receiving thread's buffer during ReplyAndReceive. The kernel proper
// keys the buffer off the current thread; goroutines have no stable thread
// identity, so here it travels as an explicit argument.
type TLS [TLSSize]byte

// Word returns the i-th 32-bit message word.
func (t *TLS) Word(i int) uint32 {
	return binary.LittleEndian.Uint32(t[i*4:])
}

// SetWord stores the i-th 32-bit message word.
func (t *TLS) SetWord(i int, v uint32) {
	binary.LittleEndian.PutUint32(t[i*4:], v)
}

// Clear zeroes the message area.
func (t *TLS) Clear() {
	*t = TLS{}
}

// Raw message words of the "copy my process handle" bootstrap request.
// Word 1 flags the presence of a handle descriptor, word 2 declares a
// single copy handle, and the handle word names the calling process through
// the pseudo handle for the kernel to resolve on delivery.
const (
	MsgHasHandleDescriptor uint32 = 0x80000000
	MsgOneCopyHandle       uint32 = 0x00000002
	MsgHandleWord                 = 3
)
