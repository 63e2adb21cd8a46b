package remap

import "github.com/Pistonight/megaton/svc"

// ForEachRegion calls visit once for every uniform-attribute block
// intersecting [start, start+length), in ascending order. Each visit gets
// the block clipped to the requested span and the clipped address's offset
// from start; together the visits cover the span exactly, with no gaps and
// no overlap. Mapping syscalls only accept attribute-uniform ranges, so
// anything operating on a logical range has to be driven per block like
// this.
//
// A failed query is fatal: stopping half way through a map or unmap pass
// would strand the caller with a partially mapped alias.
func ForEachRegion(k svc.Kernel, start, length uintptr, visit func(addr, size, offset uintptr)) {
	end := start + length
	cursor := start
	for {
		info, _, err := k.QueryMemory(cursor)
		if err != nil {
			fatalf("remap: query memory at %#x: %v", cursor, err)
		}

		addr := max(info.Addr, start)
		limit := min(info.Addr+info.Size, end)
		visit(addr, limit-addr, addr-start)

		cursor = info.Addr + info.Size
		if cursor >= end {
			return
		}
	}
}
