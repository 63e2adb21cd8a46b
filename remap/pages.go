package remap

import (
	"bytes"
	"unsafe"

	"github.com/Pistonight/megaton/svc"
)

// Pages is an active writable alias of a read-only range. It owns the
// address-space reservation backing the alias and is the only thing that
// can release it; hand out a View for anything that should merely look.
type Pages struct {
	k      svc.Kernel
	ro     uintptr
	rw     uintptr
	size   uintptr
	res    svc.Reservation
	verify bool
	closed bool
}

// Option configures New.
type Option func(*Pages)

// WithVerify compares the two views byte for byte right after mapping. A
// mismatch means the alias does not mirror the source, which is a mapping
// bug, and is fatal. Debug aid; the check only holds at construction time
// and says nothing about later writes.
func WithVerify() Option {
	return func(p *Pages) { p.verify = true }
}

// New maps a read-write alias of the size bytes at ro and returns the
// owning Pages. ro must already be mapped readable; it does not need to be
// page aligned. The alias is placed at a fresh, randomized reservation and
// offset exactly like ro is within its page, so ro+o and RW()+o name the
// same byte for any o in range. Every failure is fatal.
func New(k svc.Kernel, ro, size uintptr, opts ...Option) *Pages {
	p := &Pages{k: k, ro: ro, size: size}
	for _, o := range opts {
		o(p)
	}

	alignedRo, alignedSize := alignedSpan(ro, size)

	res, err := k.ReserveSpace(alignedSize)
	if err != nil {
		fatalf("remap: reserve %#x bytes: %v", alignedSize, err)
	}
	p.res = res

	proc := CurProcessHandle(k)

	ForEachRegion(k, alignedRo, alignedSize, func(addr, size, offset uintptr) {
		if err := k.MapProcessMemory(res.Base+offset, proc, addr, size); err != nil {
			fatalf("remap: map %#x+%#x: %v", addr, size, err)
		}
	})

	p.rw = res.Base + (ro - alignedRo)

	logger.Debugf("remap: aliased %#x+%#x at %#x", ro, size, p.rw)

	if p.verify && !bytes.Equal(view(p.ro, size), view(p.rw, size)) {
		fatalf("remap: alias at %#x does not mirror %#x", p.rw, p.ro)
	}
	return p
}

// RO returns the base of the original read-only range.
func (p *Pages) RO() uintptr { return p.ro }

// RW returns the base of the writable alias.
func (p *Pages) RW() uintptr { return p.rw }

// Size returns the length of the aliased range.
func (p *Pages) Size() uintptr { return p.size }

// Bytes returns the writable view. Writes land in the same physical memory
// instruction fetch reads from the original range; call Flush before
// executing patched bytes.
func (p *Pages) Bytes() []byte { return view(p.rw, p.size) }

// Flush publishes writes made through the alias to the instruction stream:
// clean the data cache over the aligned alias range and invalidate the
// instruction cache over the same frames.
func (p *Pages) Flush() {
	base, size := alignedSpan(p.rw, p.size)
	dcacheFlush(base, size)
	icacheInvalidate(base, size)
}

// Close unmaps the alias and releases the reservation. The instruction
// cache is invalidated over the original range, the address code actually
// executes from, so the final bytes are what the CPU fetches. Only the
// first call does anything.
func (p *Pages) Close() {
	if p.closed {
		return
	}
	p.closed = true

	dcacheFlush(p.rw, p.size)
	icacheInvalidate(p.ro, p.size)

	proc := CurProcessHandle(p.k)
	alignedRo, alignedSize := alignedSpan(p.ro, p.size)
	ForEachRegion(p.k, alignedRo, alignedSize, func(addr, size, offset uintptr) {
		if err := p.k.UnmapProcessMemory(p.res.Base+offset, proc, addr, size); err != nil {
			fatalf("remap: unmap %#x+%#x: %v", addr, size, err)
		}
	})

	if err := p.k.UnreserveSpace(p.res); err != nil {
		fatalf("remap: release reservation at %#x: %v", p.res.Base, err)
	}
}

// View is a non-owning description of an active alias. It has no release
// path at all, so it can be passed around freely without risking a double
// release; it just must not outlive its Pages.
type View struct {
	ro, rw, size uintptr
}

// View returns a non-owning view of the alias.
func (p *Pages) View() View {
	return View{ro: p.ro, rw: p.rw, size: p.size}
}

// RO returns the base of the original read-only range.
func (v View) RO() uintptr { return v.ro }

// RW returns the base of the writable alias.
func (v View) RW() uintptr { return v.rw }

// Size returns the length of the aliased range.
func (v View) Size() uintptr { return v.size }

// view reinterprets a raw range as a byte slice. The one place this
// package steps outside the type system; callers guarantee the range is
// mapped.
func view(addr, size uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}
