//go:build linux

package hos

import (
	"os"

	"golang.org/x/sys/unix"
)

// newFrameFile creates the anonymous file that plays the part of physical
// memory. memfd lives entirely in memory and needs no filesystem cleanup.
func newFrameFile() (*os.File, error) {
	fd, err := unix.MemfdCreate("hos-frames", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), "hos-frames"), nil
}
