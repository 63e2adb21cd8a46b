//go:build !arm64

package remap

// Data and instruction caches are coherent on amd64, so there is nothing
// to maintain. The arm64 version uses the C builtin.

func dcacheFlush(addr, size uintptr) {}

func icacheInvalidate(addr, size uintptr) {}
