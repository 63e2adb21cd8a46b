//go:build linux || darwin

package hos

import (
	"runtime"
	"sync"

	"github.com/Pistonight/megaton/svc"
)

// session is one IPC session. Requests are four-word messages; the model
// only supports the receive-only server side, which is all the handle
// bootstrap needs: the server reads one request and closes its endpoint
// without ever replying, so the client's send completes with
// ResultSessionClosed.
type session struct {
	msgs         chan [4]uint32
	serverClosed chan struct{}
	closeOnce    sync.Once
}

func (s *session) closeServer() {
	s.closeOnce.Do(func() { close(s.serverClosed) })
}

type sessionEnd struct {
	s      *session
	server bool
}

func (e sessionEnd) kindName() string {
	if e.server {
		return "session server"
	}
	return "session client"
}

type thread struct {
	entry   func(uintptr)
	arg     uintptr
	done    chan struct{}
	started bool
}

type threadObject struct{ *thread }

func (threadObject) kindName() string { return "thread" }

// CreateSession implements svc.Kernel.
func (k *Kernel) CreateSession() (server, client svc.Handle, err error) {
	s := &session{
		msgs:         make(chan [4]uint32, 1),
		serverClosed: make(chan struct{}),
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sessionsCreated++
	return k.newHandle(sessionEnd{s, true}), k.newHandle(sessionEnd{s, false}), nil
}

// SendSyncRequest implements svc.Kernel.
func (k *Kernel) SendSyncRequest(tls *svc.TLS, client svc.Handle) error {
	obj, ok := k.lookup(client)
	if !ok {
		return svc.ResultInvalidHandle
	}
	end, isSession := obj.(sessionEnd)
	if !isSession || end.server {
		return svc.ResultInvalidHandle
	}

	var words [4]uint32
	for i := range words {
		words[i] = tls.Word(i)
	}
	select {
	case end.s.msgs <- words:
	case <-end.s.serverClosed:
		return svc.ResultSessionClosed
	}

	// No reply path is modeled: block until the server side goes away.
	<-end.s.serverClosed
	return svc.ResultSessionClosed
}

// ReplyAndReceive implements svc.Kernel in its receive-only form. A handle
// descriptor naming the current-process pseudo handle is resolved to a
// freshly minted real process handle during delivery.
func (k *Kernel) ReplyAndReceive(tls *svc.TLS, servers []svc.Handle, reply svc.Handle, timeout int64) (int, error) {
	if reply != svc.InvalidHandle || len(servers) != 1 || timeout != svc.InfiniteTimeout {
		return -1, svc.ResultNotImplemented
	}
	obj, ok := k.lookup(servers[0])
	if !ok {
		return -1, svc.ResultInvalidHandle
	}
	end, isSession := obj.(sessionEnd)
	if !isSession || !end.server {
		return -1, svc.ResultInvalidHandle
	}

	words := <-end.s.msgs
	if words[1]&svc.MsgHasHandleDescriptor != 0 && svc.Handle(words[svc.MsgHandleWord]) == svc.CurProcessPseudoHandle {
		k.mu.Lock()
		words[svc.MsgHandleWord] = uint32(k.newHandle(processObject{}))
		k.mu.Unlock()
	}
	for i, w := range words {
		tls.SetWord(i, w)
	}
	return 0, nil
}

// CreateThread implements svc.Kernel. priority and core are accepted and
// ignored; there is no scheduler here.
func (k *Kernel) CreateThread(entry func(arg uintptr), arg uintptr, priority, core int) (svc.Handle, error) {
	t := &thread{
		entry: entry,
		arg:   arg,
		done:  make(chan struct{}),
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.newHandle(threadObject{t}), nil
}

// StartThread implements svc.Kernel.
func (k *Kernel) StartThread(h svc.Handle) error {
	obj, ok := k.lookup(h)
	if !ok {
		return svc.ResultInvalidHandle
	}
	t, isThread := obj.(threadObject)
	if !isThread {
		return svc.ResultInvalidHandle
	}

	k.mu.Lock()
	if t.started {
		k.mu.Unlock()
		return svc.ResultInvalidState
	}
	t.started = true
	k.threadsStarted++
	k.mu.Unlock()

	go func() {
		// ExitThread runs deferred functions via Goexit, so the exit
		// signal fires for both return and explicit exit.
		defer close(t.done)
		t.entry(t.arg)
	}()
	return nil
}

// ExitThread implements svc.Kernel.
func (k *Kernel) ExitThread() {
	runtime.Goexit()
}
