//go:build linux || darwin

package hos

import (
	"sort"
	"unsafe"

	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"

	"github.com/Pistonight/megaton/svc"
)

// region is one uniform-attribute block of the modeled address space. base
// is a real host address; frameOff locates its backing in the frame file.
type region struct {
	base     uintptr
	size     uintptr
	frameOff int64
	state    svc.MemoryState
	perm     svc.Permission
}

func (r region) end() uintptr { return r.base + r.size }

func pageAligned(v uintptr) bool { return v%svc.PageSize == 0 }

func alignUp(n int) uintptr {
	return (uintptr(n) + svc.PageSize - 1) &^ uintptr(svc.PageSize-1)
}

// frameAlloc extends the frame file by size bytes and returns the offset of
// the new frames. Callers must hold k.mu.
func (k *Kernel) frameAlloc(size uintptr) (int64, error) {
	if k.frames == nil {
		f, err := newFrameFile()
		if err != nil {
			return 0, errors.Wrap(err, 0)
		}
		k.frames = f
	}
	off := k.frameSize
	k.frameSize += int64(size)
	if err := unix.Ftruncate(int(k.frames.Fd()), k.frameSize); err != nil {
		return 0, errors.Wrap(err, 0)
	}
	return off, nil
}

// insertRegion adds r to the table, keeping it sorted by base. Callers must
// hold k.mu.
func (k *Kernel) insertRegion(r region) {
	i := sort.Search(len(k.regions), func(i int) bool { return k.regions[i].base > r.base })
	k.regions = append(k.regions, region{})
	copy(k.regions[i+1:], k.regions[i:])
	k.regions[i] = r
}

// AllocText maps data as a fresh read-execute region backed by new frames
// and returns its base address. This is the hosted analogue of the loader
// placing a module's text segment.
func (k *Kernel) AllocText(data []byte) (uintptr, error) {
	size := alignUp(len(data))
	if size == 0 {
		return 0, svc.ResultInvalidAddress
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	off, err := k.frameAlloc(size)
	if err != nil {
		return 0, err
	}

	p, err := mmapFixed(0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED, int(k.frames.Fd()), off)
	if err != nil {
		return 0, errors.Wrap(err, 0)
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(p)), size)
	copy(buf, data)
	if err := unix.Mprotect(buf, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return 0, errors.Wrap(err, 0)
	}

	k.insertRegion(region{
		base:     p,
		size:     size,
		frameOff: off,
		state:    svc.MemCode,
		perm:     svc.PermRX,
	})
	return p, nil
}

// SplitAt forces the region containing addr to be reported as two blocks
// from addr on, without touching the underlying mapping. The kernel does
// this on its own after permission changes and at allocation boundaries;
// exposing it lets callers reproduce discontiguous region reporting at
// will.
func (k *Kernel) SplitAt(addr uintptr) error {
	if !pageAligned(addr) {
		return svc.ResultInvalidAddress
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, r := range k.regions {
		if addr <= r.base || addr >= r.end() {
			continue
		}
		head := r
		head.size = addr - r.base
		tail := r
		tail.base = addr
		tail.size = r.end() - addr
		tail.frameOff = r.frameOff + int64(head.size)
		k.regions[i] = head
		k.insertRegion(tail)
		return nil
	}
	return svc.ResultInvalidAddress
}

// QueryMemory implements svc.Kernel. Addresses outside every region are
// reported as one free block spanning the hole, mirroring how the kernel
// accounts for unmapped space.
func (k *Kernel) QueryMemory(addr uintptr) (svc.MemoryInfo, uint32, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	holeBase := uintptr(0)
	for _, r := range k.regions {
		if addr < r.base {
			return svc.MemoryInfo{
				Addr:  holeBase,
				Size:  r.base - holeBase,
				State: svc.MemFree,
				Perm:  svc.PermNone,
			}, 0, nil
		}
		if addr < r.end() {
			return svc.MemoryInfo{
				Addr:  r.base,
				Size:  r.size,
				State: r.state,
				Perm:  r.perm,
			}, 0, nil
		}
		holeBase = r.end()
	}
	return svc.MemoryInfo{
		Addr:  holeBase,
		Size:  ^uintptr(0) - holeBase,
		State: svc.MemFree,
		Perm:  svc.PermNone,
	}, 0, nil
}

// checkProcess validates that h grants process-memory rights.
func (k *Kernel) checkProcess(h svc.Handle) error {
	obj, ok := k.lookup(h)
	if !ok {
		return svc.ResultInvalidHandle
	}
	if _, isProcess := obj.(processObject); !isProcess {
		return svc.ResultInvalidHandle
	}
	return nil
}

// MapProcessMemory implements svc.Kernel: the frames backing [src,
// src+size) are mapped read-write at dst. The source may be covered by
// several regions; each chunk is mapped from its own frame offset, so the
// result aliases the source byte for byte.
func (k *Kernel) MapProcessMemory(dst uintptr, proc svc.Handle, src, size uintptr) error {
	if err := k.checkProcess(proc); err != nil {
		return err
	}
	if !pageAligned(dst) || !pageAligned(src) || !pageAligned(size) || size == 0 {
		return svc.ResultInvalidAddress
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	end := src + size
	cursor := src
	for cursor < end {
		r, ok := k.regionAt(cursor)
		if !ok || r.state == svc.MemFree {
			return svc.ResultInvalidAddress
		}
		chunk := min(r.end(), end) - cursor
		off := r.frameOff + int64(cursor-r.base)
		at := dst + (cursor - src)

		p, err := mmapFixed(at, chunk, unix.PROT_READ|unix.PROT_WRITE,
			unix.MAP_SHARED|unix.MAP_FIXED, int(k.frames.Fd()), off)
		if err != nil {
			return errors.Wrap(err, 0)
		}
		k.insertRegion(region{
			base:     p,
			size:     chunk,
			frameOff: off,
			state:    svc.MemCodeMutable,
			perm:     svc.PermRW,
		})
		cursor += chunk
	}
	return nil
}

// UnmapProcessMemory implements svc.Kernel, undoing a MapProcessMemory.
// The destination reverts to inaccessible reserved space.
func (k *Kernel) UnmapProcessMemory(dst uintptr, proc svc.Handle, src, size uintptr) error {
	if err := k.checkProcess(proc); err != nil {
		return err
	}
	if !pageAligned(dst) || !pageAligned(src) || !pageAligned(size) || size == 0 {
		return svc.ResultInvalidAddress
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	kept := k.regions[:0]
	for _, r := range k.regions {
		if r.state == svc.MemCodeMutable && r.base >= dst && r.end() <= dst+size {
			continue
		}
		kept = append(kept, r)
	}
	k.regions = kept

	_, err := mmapFixed(dst, size, unix.PROT_NONE,
		unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_FIXED, -1, 0)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}

// regionAt finds the region containing addr. Callers must hold k.mu.
func (k *Kernel) regionAt(addr uintptr) (region, bool) {
	for _, r := range k.regions {
		if addr >= r.base && addr < r.end() {
			return r, true
		}
	}
	return region{}, false
}

// ReserveSpace implements svc.Kernel. The host's mmap placement supplies
// the randomized address; the PROT_NONE mapping keeps anything else from
// landing in the range until it is mapped or released.
func (k *Kernel) ReserveSpace(size uintptr) (svc.Reservation, error) {
	if !pageAligned(size) || size == 0 {
		return svc.Reservation{}, svc.ResultInvalidAddress
	}
	p, err := mmapFixed(0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON, -1, 0)
	if err != nil {
		return svc.Reservation{}, errors.Wrap(err, 0)
	}
	k.mu.Lock()
	k.reserved[p] = size
	k.mu.Unlock()
	return svc.Reservation{Base: p, Size: size}, nil
}

// UnreserveSpace implements svc.Kernel.
func (k *Kernel) UnreserveSpace(r svc.Reservation) error {
	k.mu.Lock()
	size, ok := k.reserved[r.Base]
	delete(k.reserved, r.Base)
	k.mu.Unlock()
	if !ok || size != r.Size {
		return svc.ResultInvalidAddress
	}
	return munmap(r.Base, r.Size)
}
