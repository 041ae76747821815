//go:build linux

package socket

import "golang.org/x/sys/unix"

// deferAcceptTimeout is how long, in seconds, the kernel may hold a
// dataless connection before handing it to accept anyway.
const deferAcceptTimeout = 5

// fastOpenQueueLen is the listener's pending-TFO-connection queue.
const fastOpenQueueLen = 256

func applyListenerOptions(fd int, cfg *Config) error {
	var firstErr error
	if cfg.DeferAccept {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT, deferAcceptTimeout); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if cfg.FastOpen {
		// Fails when the kernel has TFO disabled; the listener still works.
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_FASTOPEN, fastOpenQueueLen); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// applyConnOptions sets the Linux-only per-connection options. Keepalive
// probing starts after 60s idle, probes every 10s, and gives up after
// three missed probes.
func applyConnOptions(fd int, cfg *Config) {
	if cfg.QuickAck {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	}
	if cfg.KeepAlive {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, 60)
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, 10)
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, 3)
	}
}

// RearmQuickAck re-enables TCP_QUICKACK, which the kernel clears after it
// sends an ACK. The reactor calls this after each read when QuickAck is
// configured.
func RearmQuickAck(fd int) {
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
}
