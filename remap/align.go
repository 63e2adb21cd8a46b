package remap

import "github.com/Pistonight/megaton/svc"

// alignDown rounds addr down to the start of its page.
func alignDown(addr uintptr) uintptr {
	return addr &^ uintptr(svc.PageSize-1)
}

// alignUp rounds addr up to the next page boundary, or leaves it alone if
// it is already on one.
func alignUp(addr uintptr) uintptr {
	return alignDown(addr + svc.PageSize - 1)
}

// alignedSpan widens [addr, addr+size) outward to whole pages and returns
// the covering base and length.
func alignedSpan(addr, size uintptr) (uintptr, uintptr) {
	base := alignDown(addr)
	return base, alignUp(addr+size) - base
}
