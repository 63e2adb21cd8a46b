// Package remap creates writable aliases of read-only executable memory.
//
// The kernel never lets executable pages become writable, but it will map a
// second, writable view of the same physical frames when asked through a
// process handle carrying process-memory rights. A process does not hold
// such a handle to itself by default; CurProcessHandle acquires one, by a
// privileged query when the kernel supports it and otherwise by bouncing
// the handle off a short-lived IPC session.
//
// The intended use is hook installation during single-threaded bootstrap:
// build a Pages over the target code range, write the patch through Bytes,
// Flush so instruction fetch observes it, and Close when the alias is no
// longer needed. None of it is safe for concurrent use, and every kernel
// failure is fatal: a half-mapped alias cannot be backed out of, and
// without it the runtime has no purpose.
package remap
