// Package socket applies platform TCP options to emberd's listeners and
// accepted connections, and provides the sendfile transmission path the
// reactor streams large static bodies through. Everything operates on raw
// file descriptors: once the reactor extracts a listener's fd, net.Conn is
// out of the picture for the lifetime of every connection.
package socket

import (
	"net"

	"golang.org/x/sys/unix"
)

// Config selects the TCP options applied to listeners (ApplyListener) and
// accepted connections (ApplyConn). The zero value applies nothing.
type Config struct {
	// NoDelay disables Nagle's algorithm on accepted connections, so
	// small responses leave without waiting for a full segment.
	NoDelay bool

	// RecvBuffer and SendBuffer size SO_RCVBUF/SO_SNDBUF in bytes;
	// zero leaves the system defaults.
	RecvBuffer int
	SendBuffer int

	// KeepAlive enables SO_KEEPALIVE, with the probe timing set by the
	// platform files where the kernel allows it.
	KeepAlive bool

	// QuickAck asks the kernel to ACK immediately instead of delaying.
	// Linux clears it after each ACK, so the reactor re-arms it after
	// every read. No-op elsewhere.
	QuickAck bool

	// DeferAccept keeps a connection in the kernel until request bytes
	// arrive, so accept never hands the loop a dataless socket. Linux
	// listeners only.
	DeferAccept bool

	// FastOpen lets returning clients carry data in the SYN. Listeners
	// only.
	FastOpen bool
}

// DefaultConfig is tuned for an HTTP origin: Nagle off, 256 KiB socket
// buffers, keepalive probing, and the listener options that keep the
// reactor from waking on connections with nothing to read.
func DefaultConfig() *Config {
	return &Config{
		NoDelay:     true,
		RecvBuffer:  256 << 10,
		SendBuffer:  256 << 10,
		KeepAlive:   true,
		QuickAck:    true,
		DeferAccept: true,
		FastOpen:    true,
	}
}

// ApplyListener sets the listener-side options on ln before the reactor
// extracts its fd. TCP_DEFER_ACCEPT and TCP_FASTOPEN must be set here;
// they have no effect on an already-accepted socket. A nil cfg applies
// nothing.
func ApplyListener(ln net.Listener, cfg *Config) error {
	if cfg == nil {
		return nil
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		return nil
	}
	raw, err := tcpLn.SyscallConn()
	if err != nil {
		return err
	}
	var applyErr error
	if err := raw.Control(func(fd uintptr) {
		applyErr = applyListenerOptions(int(fd), cfg)
	}); err != nil {
		return err
	}
	return applyErr
}

// ApplyConn sets the per-connection options on an accepted socket's fd.
// The first failure is returned, but callers treat it as advisory: a
// connection that cannot be tuned is still serviceable.
func ApplyConn(fd int, cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if cfg.NoDelay {
		keep(unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1))
	}
	if cfg.RecvBuffer > 0 {
		keep(unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBuffer))
	}
	if cfg.SendBuffer > 0 {
		keep(unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBuffer))
	}
	if cfg.KeepAlive {
		keep(unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1))
	}
	applyConnOptions(fd, cfg)
	return firstErr
}
