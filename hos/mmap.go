//go:build linux || darwin

package hos

import "golang.org/x/sys/unix"

// mmapFixed wraps the raw mmap syscall. The Go wrappers hide the address
// argument, and placing a mapping at a chosen address is the whole point
// here. addr 0 lets the host pick.
func mmapFixed(addr, length uintptr, prot, flags, fd int, offset int64) (uintptr, error) {
	p, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, length,
		uintptr(prot), uintptr(flags), uintptr(fd), uintptr(offset))
	if errno != 0 {
		return 0, errno
	}
	return p, nil
}

func munmap(addr, length uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_MUNMAP, addr, length, 0)
	if errno != 0 {
		return errno
	}
	return nil
}
