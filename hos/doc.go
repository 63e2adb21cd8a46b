// Package hos is a hosted stand-in for the kernel. It implements svc.Kernel
// with a real memory model: "physical" frames live in a shared file, every
// region is a host mapping of some frame range, and mapping the same frames
// twice aliases the same memory exactly as it would under the real kernel.
// The handle table, IPC sessions and kernel threads are modeled in process,
// including the quirk the handle bootstrap depends on: a handle descriptor
// naming the current-process pseudo handle is resolved to a real process
// handle while the message is delivered.
//
// Linux and macOS only; fixed-address mappings and the frame file have no
// portable equivalent elsewhere.
package hos
