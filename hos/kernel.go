//go:build linux || darwin

package hos

import (
	"os"
	"sync"

	"github.com/Pistonight/megaton/svc"
)

// Kernel implements svc.Kernel. The zero value is not usable; construct
// with New.
type Kernel struct {
	mu      sync.Mutex
	handles map[svc.Handle]object
	next    svc.Handle

	directQuery bool

	frames    *os.File
	frameSize int64
	regions   []region
	reserved  map[uintptr]uintptr

	sessionsCreated int
	threadsStarted  int
}

var _ svc.Kernel = (*Kernel)(nil)

// object is an entry in the handle table.
type object interface {
	kindName() string
}

type processObject struct{}

func (processObject) kindName() string { return "process" }

// Option configures New.
type Option func(*Kernel)

// WithDirectHandleQuery makes GetInfo answer the current-process-handle
// query, modeling a kernel whose security monitor implements it. Without
// this option the query fails and callers have to fall back to the IPC
// bootstrap.
func WithDirectHandleQuery() Option {
	return func(k *Kernel) { k.directQuery = true }
}

// New creates a kernel with an empty handle table and no mapped regions.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		handles:  make(map[svc.Handle]object),
		next:     0x1D000,
		reserved: make(map[uintptr]uintptr),
	}
	for _, o := range opts {
		o(k)
	}
	return k
}

// newHandle mints a handle for obj. Callers must hold k.mu.
func (k *Kernel) newHandle(obj object) svc.Handle {
	k.next++
	h := k.next
	k.handles[h] = obj
	return h
}

// lookup resolves a handle. Callers must not hold k.mu.
func (k *Kernel) lookup(h svc.Handle) (object, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	obj, ok := k.handles[h]
	return obj, ok
}

// GetInfo implements svc.Kernel.
func (k *Kernel) GetInfo(what svc.InfoType, h svc.Handle, sub uint64) (uint64, error) {
	if what != svc.InfoTypeCurrentProcessHandle || h != svc.InvalidHandle || sub != 0 {
		return 0, svc.ResultInvalidEnumValue
	}
	if !k.directQuery {
		return 0, svc.ResultInvalidEnumValue
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return uint64(k.newHandle(processObject{})), nil
}

// CloseHandle implements svc.Kernel.
func (k *Kernel) CloseHandle(h svc.Handle) error {
	k.mu.Lock()
	obj, ok := k.handles[h]
	delete(k.handles, h)
	k.mu.Unlock()
	if !ok {
		return svc.ResultInvalidHandle
	}
	if end, isSession := obj.(sessionEnd); isSession && end.server {
		end.s.closeServer()
	}
	return nil
}

// WaitSynchronization implements svc.Kernel. Only thread handles and only
// the infinite timeout are supported, which is all the runtime uses.
func (k *Kernel) WaitSynchronization(h svc.Handle, timeout int64) error {
	obj, ok := k.lookup(h)
	if !ok {
		return svc.ResultInvalidHandle
	}
	t, isThread := obj.(threadObject)
	if !isThread || timeout != svc.InfiniteTimeout {
		return svc.ResultNotImplemented
	}
	<-t.done
	return nil
}

// OpenHandles reports how many handles are live, for leak checks.
func (k *Kernel) OpenHandles() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.handles)
}

// SessionsCreated reports how many sessions were ever created.
func (k *Kernel) SessionsCreated() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.sessionsCreated
}

// ThreadsStarted reports how many threads were ever started.
func (k *Kernel) ThreadsStarted() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.threadsStarted
}

// OpenReservations reports how many address-space reservations are live.
func (k *Kernel) OpenReservations() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.reserved)
}
