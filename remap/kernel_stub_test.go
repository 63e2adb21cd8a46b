package remap

import "github.com/Pistonight/megaton/svc"

type mapCall struct {
	dst, src, size uintptr
}

// stubKernel scripts the memory side of svc.Kernel and records every
// mapping call, so the mapper's behavior can be checked without real
// mappings. The IPC side is unused by these tests except for injected
// failures.
type stubKernel struct {
	regions  []svc.MemoryInfo
	queryErr error

	reserveBase  uintptr
	reservations int

	handle    svc.Handle // nonzero: GetInfo answers the direct query
	infoCalls int

	maps   []mapCall
	unmaps []mapCall

	sessionErr error
}

var _ svc.Kernel = (*stubKernel)(nil)

func (s *stubKernel) QueryMemory(addr uintptr) (svc.MemoryInfo, uint32, error) {
	if s.queryErr != nil {
		return svc.MemoryInfo{}, 0, s.queryErr
	}
	for _, r := range s.regions {
		if addr >= r.Addr && addr < r.Addr+r.Size {
			return r, 0, nil
		}
	}
	panic("stub kernel: query outside scripted regions")
}

func (s *stubKernel) MapProcessMemory(dst uintptr, proc svc.Handle, src, size uintptr) error {
	s.maps = append(s.maps, mapCall{dst, src, size})
	return nil
}

func (s *stubKernel) UnmapProcessMemory(dst uintptr, proc svc.Handle, src, size uintptr) error {
	s.unmaps = append(s.unmaps, mapCall{dst, src, size})
	return nil
}

func (s *stubKernel) GetInfo(what svc.InfoType, h svc.Handle, sub uint64) (uint64, error) {
	s.infoCalls++
	if s.handle == svc.InvalidHandle {
		return 0, svc.ResultInvalidEnumValue
	}
	return uint64(s.handle), nil
}

func (s *stubKernel) ReserveSpace(size uintptr) (svc.Reservation, error) {
	s.reservations++
	return svc.Reservation{Base: s.reserveBase, Size: size}, nil
}

func (s *stubKernel) UnreserveSpace(r svc.Reservation) error {
	s.reservations--
	return nil
}

func (s *stubKernel) CreateSession() (svc.Handle, svc.Handle, error) {
	if s.sessionErr != nil {
		return svc.InvalidHandle, svc.InvalidHandle, s.sessionErr
	}
	panic("stub kernel: sessions not scripted")
}

func (s *stubKernel) SendSyncRequest(tls *svc.TLS, client svc.Handle) error {
	panic("stub kernel: sessions not scripted")
}

func (s *stubKernel) ReplyAndReceive(tls *svc.TLS, servers []svc.Handle, reply svc.Handle, timeout int64) (int, error) {
	panic("stub kernel: sessions not scripted")
}

func (s *stubKernel) CreateThread(entry func(arg uintptr), arg uintptr, priority, core int) (svc.Handle, error) {
	panic("stub kernel: threads not scripted")
}

func (s *stubKernel) StartThread(t svc.Handle) error {
	panic("stub kernel: threads not scripted")
}

func (s *stubKernel) ExitThread() {
	panic("stub kernel: threads not scripted")
}

func (s *stubKernel) WaitSynchronization(h svc.Handle, timeout int64) error {
	panic("stub kernel: threads not scripted")
}

func (s *stubKernel) CloseHandle(h svc.Handle) error {
	return nil
}
