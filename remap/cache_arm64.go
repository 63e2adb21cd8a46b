//go:build arm64 && cgo

package remap

/*
static void clearcache(char *start, char *end) {
	__builtin___clear_cache(start, end);
}
*/
import "C"

import "unsafe"

// __builtin___clear_cache cleans the data cache and invalidates the
// instruction cache in one go, so the whole maintenance happens in
// dcacheFlush and the separate invalidate has nothing left to do.

func dcacheFlush(addr, size uintptr) {
	C.clearcache((*C.char)(unsafe.Pointer(addr)), (*C.char)(unsafe.Pointer(addr+size)))
}

func icacheInvalidate(addr, size uintptr) {}
