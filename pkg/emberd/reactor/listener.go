package reactor

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/yourusername/emberd/pkg/emberd/socket"
)

// Listener is one bound, listening TCP port the reactor polls for
// incoming connections alongside every accepted connection's fd. Setup
// goes through net.Listen so the standard library resolves and binds the
// address and socket.ApplyListener can tune it; the resulting file
// descriptor is then driven directly with non-blocking syscalls, bypassing
// the runtime's own netpoller for the lifetime of the reactor loop.
type Listener struct {
	fd   int
	port int
	file *os.File // kept open; closing it would close the duplicated fd
}

// NewListener binds addr (host:port or :port) and prepares it for
// registration with a Poller.
func NewListener(addr string, tuning *socket.Config) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("reactor: resolve %q: %w", addr, err)
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("reactor: listen %q: %w", addr, err)
	}
	// Tuning is advisory: a kernel with TCP_FASTOPEN disabled still
	// serves traffic, it just loses the optimization.
	_ = socket.ApplyListener(ln, tuning)

	file, err := ln.File()
	// ln.File() dup()s the fd; the net.Listener itself is no longer needed
	// once we hold the duplicate, since all accept/close happens on fd.
	ln.Close()
	if err != nil {
		return nil, fmt.Errorf("reactor: extract fd for %q: %w", addr, err)
	}

	fd := int(file.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		file.Close()
		return nil, fmt.Errorf("reactor: set nonblocking %q: %w", addr, err)
	}

	port := tcpAddr.Port
	if port == 0 {
		if a, ok := ln.Addr().(*net.TCPAddr); ok {
			port = a.Port
		}
	}

	return &Listener{fd: fd, port: port, file: file}, nil
}

// Fd returns the listening socket's file descriptor.
func (l *Listener) Fd() int { return l.fd }

// Port returns the bound TCP port, resolved if the listener was opened
// with port 0.
func (l *Listener) Port() int { return l.port }

// Accept performs one non-blocking accept4, returning (0, "", nil) if no
// connection is currently pending.
func (l *Listener) Accept() (int, string, error) {
	nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return 0, "", nil
		}
		return 0, "", err
	}
	return nfd, sockaddrString(sa), nil
}

func (l *Listener) Close() error {
	return l.file.Close()
}

func sockaddrString(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Port)
	case *unix.SockaddrInet6:
		return fmt.Sprintf("[%x]:%d", a.Addr, a.Port)
	default:
		return "unknown"
	}
}
