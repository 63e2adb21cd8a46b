package remap

import "github.com/Pistonight/megaton/svc"

// Receiver thread parameters, matching what the bootstrap thread itself
// runs at so the kernel schedules it immediately.
const (
	recvThreadPriority = 0x20
	recvThreadCore     = 2
)

// curProcHandle is the process-wide cached handle. Written once by the
// first CurProcessHandle call, read-only afterwards.
var curProcHandle = svc.InvalidHandle

// CurProcessHandle returns a handle to the calling process with
// process-memory rights, acquiring it on first use and returning the
// cached value afterwards. Acquisition tries the kernel's direct query
// first and falls back to the IPC bootstrap; if both fail the process
// aborts, since nothing can ever be patched without the handle.
//
// The first call must happen during single-threaded bootstrap; acquisition
// is not safe to race.
func CurProcessHandle(k svc.Kernel) svc.Handle {
	if curProcHandle == svc.InvalidHandle {
		if !handleFromQuery(k) {
			handleFromSession(k)
		}
	}
	return curProcHandle
}

func handleFromQuery(k svc.Kernel) bool {
	v, err := k.GetInfo(svc.InfoTypeCurrentProcessHandle, svc.InvalidHandle, 0)
	if err != nil {
		return false
	}
	curProcHandle = svc.Handle(v)
	return true
}

// handleFromSession recovers a process handle without ever holding one.
// The kernel resolves the current-process pseudo handle into a real handle
// while delivering an IPC request and exposes it to the receiving thread,
// so sending ourselves a "copy my process handle" request over a fresh
// session and receiving it on a helper thread yields the handle. The
// session, both endpoints, the helper thread and its handle are all gone
// by the time this returns.
func handleFromSession(k svc.Kernel) {
	server, client, err := k.CreateSession()
	if err != nil {
		fatalf("remap: create session: %v", err)
	}

	thread, err := k.CreateThread(func(arg uintptr) {
		receiveHandle(k, svc.Handle(arg))
	}, uintptr(server), recvThreadPriority, recvThreadCore)
	if err != nil {
		fatalf("remap: create receiver thread: %v", err)
	}
	if err := k.StartThread(thread); err != nil {
		fatalf("remap: start receiver thread: %v", err)
	}

	// Ask for our own process handle. The interesting part happens on the
	// helper thread; the send itself comes back as a closed session once
	// the helper is done with it, so its result carries no information.
	var tls svc.TLS
	tls.SetWord(1, svc.MsgHasHandleDescriptor)
	tls.SetWord(2, svc.MsgOneCopyHandle)
	tls.SetWord(svc.MsgHandleWord, uint32(svc.CurProcessPseudoHandle))
	k.SendSyncRequest(&tls, client)
	k.CloseHandle(client)

	if err := k.WaitSynchronization(thread, svc.InfiniteTimeout); err != nil {
		fatalf("remap: wait for receiver thread: %v", err)
	}
	k.CloseHandle(thread)

	if curProcHandle == svc.InvalidHandle {
		fatalf("remap: process handle did not arrive")
	}
}

// receiveHandle runs on the helper thread: take the one request off the
// session, keep the handle the kernel resolved into it, tear down and
// exit.
func receiveHandle(k svc.Kernel, server svc.Handle) {
	var tls svc.TLS
	tls.Clear()
	if _, err := k.ReplyAndReceive(&tls, []svc.Handle{server}, svc.InvalidHandle, svc.InfiniteTimeout); err != nil {
		fatalf("remap: reply-and-receive: %v", err)
	}
	curProcHandle = svc.Handle(tls.Word(svc.MsgHandleWord))
	k.CloseHandle(server)
	k.ExitThread()
}
