//go:build arm64 && !cgo

package remap

// arm64 requires a C compiler to flush the instruction cache.
// Install a C compiler and build with CGO_ENABLED=1.
func dcacheFlush(addr, size uintptr) {
	arm64_requires_cgo_for_cache_maintenance()
}

func icacheInvalidate(addr, size uintptr) {}
