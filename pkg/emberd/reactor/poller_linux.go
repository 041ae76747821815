//go:build linux

package reactor

import (
	"golang.org/x/sys/unix"
)

// epollPoller backs Poller with Linux epoll in edge-unspecified (level
// triggered) mode, matching the socket package's existing convention of
// reaching for golang.org/x/sys/unix directly rather than the runtime's
// internal netpoller, which the reactor intentionally bypasses.
type epollPoller struct {
	fd      int
	cookies map[int32]interface{}
}

func newPoller() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{fd: fd, cookies: make(map[int32]interface{})}, nil
}

func toEpollEvents(interest uint32) uint32 {
	var ev uint32
	if interest&EventRead != 0 {
		ev |= unix.EPOLLIN
	}
	if interest&EventWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *epollPoller) Add(fd int, interest uint32, cookie interface{}) error {
	p.cookies[int32(fd)] = cookie
	ev := unix.EpollEvent{Events: toEpollEvents(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func (p *epollPoller) Modify(fd int, interest uint32, cookie interface{}) error {
	p.cookies[int32(fd)] = cookie
	ev := unix.EpollEvent{Events: toEpollEvents(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, &ev)
}

func (p *epollPoller) Remove(fd int) error {
	delete(p.cookies, int32(fd))
	err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *epollPoller) Wait(out []Event, timeoutMillis int) ([]Event, error) {
	raw := make([]unix.EpollEvent, 256)
	n, err := unix.EpollWait(p.fd, raw, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, err
	}
	for i := 0; i < n; i++ {
		e := raw[i]
		var flags uint32
		if e.Events&unix.EPOLLIN != 0 {
			flags |= EventRead
		}
		if e.Events&unix.EPOLLOUT != 0 {
			flags |= EventWrite
		}
		if e.Events&(unix.EPOLLERR) != 0 {
			flags |= EventErr
		}
		if e.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
			flags |= EventHup
		}
		out = append(out, Event{Fd: int(e.Fd), Flags: flags, Cookie: p.cookies[e.Fd]})
	}
	return out, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.fd)
}
