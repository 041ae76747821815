//go:build darwin

package reactor

import (
	"golang.org/x/sys/unix"
)

// kqueuePoller backs Poller with BSD kqueue, the Darwin counterpart to the
// Linux epoll implementation, following the same per-OS split the socket
// package already uses for its tuning code (tuning_linux.go/tuning_darwin.go).
type kqueuePoller struct {
	fd      int
	cookies map[int]interface{}
}

func newPoller() (Poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueuePoller{fd: fd, cookies: make(map[int]interface{})}, nil
}

func (p *kqueuePoller) changeInterest(fd int, interest uint32) []unix.Kevent_t {
	var changes []unix.Kevent_t
	readFlag := uint16(unix.EV_DELETE)
	if interest&EventRead != 0 {
		readFlag = unix.EV_ADD | unix.EV_ENABLE
	}
	changes = append(changes, unix.Kevent_t{
		Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: readFlag,
	})
	writeFlag := uint16(unix.EV_DELETE)
	if interest&EventWrite != 0 {
		writeFlag = unix.EV_ADD | unix.EV_ENABLE
	}
	changes = append(changes, unix.Kevent_t{
		Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: writeFlag,
	})
	return changes
}

func (p *kqueuePoller) Add(fd int, interest uint32, cookie interface{}) error {
	p.cookies[fd] = cookie
	changes := p.changeInterest(fd, interest)
	_, err := unix.Kevent(p.fd, changes, nil, nil)
	// Deleting a filter that was never added returns ENOENT; ignore it.
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *kqueuePoller) Modify(fd int, interest uint32, cookie interface{}) error {
	return p.Add(fd, interest, cookie)
}

func (p *kqueuePoller) Remove(fd int) error {
	delete(p.cookies, fd)
	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}
	_, err := unix.Kevent(p.fd, changes, nil, nil)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *kqueuePoller) Wait(out []Event, timeoutMillis int) ([]Event, error) {
	raw := make([]unix.Kevent_t, 256)
	var ts *unix.Timespec
	if timeoutMillis >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMillis) * int64(1e6))
		ts = &t
	}
	n, err := unix.Kevent(p.fd, nil, raw, ts)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, err
	}
	for i := 0; i < n; i++ {
		e := raw[i]
		fd := int(e.Ident)
		var flags uint32
		switch e.Filter {
		case unix.EVFILT_READ:
			flags |= EventRead
		case unix.EVFILT_WRITE:
			flags |= EventWrite
		}
		if e.Flags&unix.EV_EOF != 0 {
			flags |= EventHup
		}
		if e.Flags&unix.EV_ERROR != 0 {
			flags |= EventErr
		}
		out = append(out, Event{Fd: fd, Flags: flags, Cookie: p.cookies[fd]})
	}
	return out, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.fd)
}
