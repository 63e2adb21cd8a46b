package svc

// Kernel is the set of supervisor calls the runtime needs. Methods mirror
// the kernel ABI: they operate on handles, work in page granularity where
// the ABI does, and report failures as Result values (possibly wrapped).
type Kernel interface {
	// QueryMemory reports the uniform-attribute block containing addr.
	// The second return is the kernel's page attribute word, which the
	// runtime does not interpret.
	QueryMemory(addr uintptr) (MemoryInfo, uint32, error)

	// MapProcessMemory maps size bytes of proc's address space starting
	// at src as a read-write alias at dst. Both ranges must be page
	// aligned. The new mapping shares physical backing with src; it is
	// not a copy. proc must carry process-memory rights, which is why
	// a process cannot do this to itself without first acquiring a
	// handle.
	MapProcessMemory(dst uintptr, proc Handle, src, size uintptr) error

	// UnmapProcessMemory undoes a MapProcessMemory with the same
	// arguments.
	UnmapProcessMemory(dst uintptr, proc Handle, src, size uintptr) error

	// GetInfo performs a privileged query. h and sub qualify the query
	// for InfoTypes that need them; the bootstrap only uses
	// InfoTypeCurrentProcessHandle with InvalidHandle.
	GetInfo(what InfoType, h Handle, sub uint64) (uint64, error)

	// ReserveSpace claims an unused, randomly placed range of address
	// space of the given page-aligned size. Nothing is mapped there
	// until MapProcessMemory targets it.
	ReserveSpace(size uintptr) (Reservation, error)

	// UnreserveSpace releases a reservation. Releasing the same
	// reservation twice is a caller bug with undefined consequences.
	UnreserveSpace(r Reservation) error

	// CreateSession creates an IPC session and returns its two
	// endpoints.
	CreateSession() (server, client Handle, err error)

	// SendSyncRequest sends the message formatted in tls over the
	// client endpoint and blocks until the server replies or the
	// session dies. A dead session yields ResultSessionClosed.
	SendSyncRequest(tls *TLS, client Handle) error

	// ReplyAndReceive blocks until a request arrives on one of the
	// given server endpoints, delivers it into tls and returns the
	// index of the endpoint it arrived on. Handle descriptors naming
	// CurProcessPseudoHandle are resolved to real handles of the
	// sending process during delivery. Only the receive-only form
	// (reply == InvalidHandle) is used here.
	ReplyAndReceive(tls *TLS, servers []Handle, reply Handle, timeout int64) (int, error)

	// CreateThread creates a kernel thread that will run entry(arg)
	// once started. priority and core follow the ABI's conventions and
	// are advisory for implementations without real kernel scheduling.
	CreateThread(entry func(arg uintptr), arg uintptr, priority, core int) (Handle, error)

	// StartThread makes a created thread runnable.
	StartThread(t Handle) error

	// ExitThread terminates the calling thread. It does not return.
	ExitThread()

	// WaitSynchronization blocks until the object behind h signals;
	// for a thread handle that is thread exit.
	WaitSynchronization(h Handle, timeout int64) error

	// CloseHandle drops the reference h holds on its object.
	CloseHandle(h Handle) error
}
