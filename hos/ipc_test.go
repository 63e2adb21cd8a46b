//go:build linux || darwin

package hos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pistonight/megaton/svc"
)

func TestGetInfoGatedByOption(t *testing.T) {
	assert := assert.New(t)

	k := New()
	_, err := k.GetInfo(svc.InfoTypeCurrentProcessHandle, svc.InvalidHandle, 0)
	assert.ErrorIs(err, svc.ResultInvalidEnumValue)

	k = New(WithDirectHandleQuery())
	v, err := k.GetInfo(svc.InfoTypeCurrentProcessHandle, svc.InvalidHandle, 0)
	assert.NoError(err)
	assert.NotEqual(uint64(svc.InvalidHandle), v)

	// Unknown queries fail either way.
	_, err = k.GetInfo(svc.InfoType(7), svc.InvalidHandle, 0)
	assert.ErrorIs(err, svc.ResultInvalidEnumValue)
}

func TestCloseHandle(t *testing.T) {
	assert := assert.New(t)

	k := New(WithDirectHandleQuery())
	assert.ErrorIs(k.CloseHandle(svc.Handle(0xBEEF)), svc.ResultInvalidHandle)

	v, err := k.GetInfo(svc.InfoTypeCurrentProcessHandle, svc.InvalidHandle, 0)
	assert.NoError(err)
	assert.Equal(1, k.OpenHandles())
	assert.NoError(k.CloseHandle(svc.Handle(v)))
	assert.Equal(0, k.OpenHandles())
	assert.ErrorIs(k.CloseHandle(svc.Handle(v)), svc.ResultInvalidHandle)
}

// The bootstrap edge case end to end: a request naming the current-process
// pseudo handle in its handle descriptor arrives with a real, usable
// process handle in its place.
func TestSessionResolvesPseudoHandle(t *testing.T) {
	require := require.New(t)

	k := New()
	server, client, err := k.CreateSession()
	require.NoError(err)
	require.Equal(1, k.SessionsCreated())

	got := make(chan svc.Handle, 1)
	thread, err := k.CreateThread(func(arg uintptr) {
		var tls svc.TLS
		idx, err := k.ReplyAndReceive(&tls, []svc.Handle{svc.Handle(arg)}, svc.InvalidHandle, svc.InfiniteTimeout)
		if err != nil || idx != 0 {
			got <- svc.InvalidHandle
			return
		}
		got <- svc.Handle(tls.Word(svc.MsgHandleWord))
		k.CloseHandle(svc.Handle(arg))
		k.ExitThread()
	}, uintptr(server), 0x20, 2)
	require.NoError(err)
	require.NoError(k.StartThread(thread))

	var tls svc.TLS
	tls.SetWord(1, svc.MsgHasHandleDescriptor)
	tls.SetWord(2, svc.MsgOneCopyHandle)
	tls.SetWord(svc.MsgHandleWord, uint32(svc.CurProcessPseudoHandle))
	err = k.SendSyncRequest(&tls, client)
	require.ErrorIs(err, svc.ResultSessionClosed)
	require.NoError(k.CloseHandle(client))

	require.NoError(k.WaitSynchronization(thread, svc.InfiniteTimeout))
	require.NoError(k.CloseHandle(thread))

	h := <-got
	require.NotEqual(svc.InvalidHandle, h)
	require.NotEqual(svc.CurProcessPseudoHandle, h)

	// The minted handle really carries process-memory rights.
	base, err := k.AllocText(make([]byte, svc.PageSize))
	require.NoError(err)
	res, err := k.ReserveSpace(svc.PageSize)
	require.NoError(err)
	require.NoError(k.MapProcessMemory(res.Base, h, base, svc.PageSize))
	require.NoError(k.UnmapProcessMemory(res.Base, h, base, svc.PageSize))
	require.NoError(k.UnreserveSpace(res))
}

func TestSendWithoutHandleDescriptorNotTranslated(t *testing.T) {
	require := require.New(t)

	k := New()
	server, client, err := k.CreateSession()
	require.NoError(err)

	got := make(chan uint32, 1)
	thread, err := k.CreateThread(func(arg uintptr) {
		var tls svc.TLS
		k.ReplyAndReceive(&tls, []svc.Handle{svc.Handle(arg)}, svc.InvalidHandle, svc.InfiniteTimeout)
		got <- tls.Word(svc.MsgHandleWord)
		k.CloseHandle(svc.Handle(arg))
	}, uintptr(server), 0x20, 2)
	require.NoError(err)
	require.NoError(k.StartThread(thread))

	// Same handle word, but no descriptor flag: the kernel must leave
	// the word alone.
	var tls svc.TLS
	tls.SetWord(svc.MsgHandleWord, uint32(svc.CurProcessPseudoHandle))
	k.SendSyncRequest(&tls, client)
	k.CloseHandle(client)

	require.NoError(k.WaitSynchronization(thread, svc.InfiniteTimeout))
	k.CloseHandle(thread)

	require.Equal(uint32(svc.CurProcessPseudoHandle), <-got)
}

func TestStartThreadTwice(t *testing.T) {
	assert := assert.New(t)

	k := New()
	thread, err := k.CreateThread(func(uintptr) {}, 0, 0x20, 2)
	assert.NoError(err)
	assert.NoError(k.StartThread(thread))
	assert.ErrorIs(k.StartThread(thread), svc.ResultInvalidState)
	assert.NoError(k.WaitSynchronization(thread, svc.InfiniteTimeout))
	assert.Equal(1, k.ThreadsStarted())
}

func TestWaitSynchronizationRejectsFiniteTimeout(t *testing.T) {
	assert := assert.New(t)

	k := New()
	thread, err := k.CreateThread(func(uintptr) {}, 0, 0x20, 2)
	assert.NoError(err)
	assert.NoError(k.StartThread(thread))
	assert.ErrorIs(k.WaitSynchronization(thread, 1000), svc.ResultNotImplemented)
	assert.NoError(k.WaitSynchronization(thread, svc.InfiniteTimeout))
}
