//go:build darwin

package socket

import "golang.org/x/sys/unix"

// Darwin has no TCP_QUICKACK or TCP_DEFER_ACCEPT; only Fast Open and the
// keepalive idle time translate from the Linux option set.

func applyListenerOptions(fd int, cfg *Config) error {
	if cfg.FastOpen {
		return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_FASTOPEN, 1)
	}
	return nil
}

func applyConnOptions(fd int, cfg *Config) {
	if cfg.KeepAlive {
		// TCP_KEEPALIVE is Darwin's spelling of Linux's TCP_KEEPIDLE: the
		// idle seconds before the first probe.
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPALIVE, 60)
	}
}

// RearmQuickAck is a no-op: Darwin has no TCP_QUICKACK.
func RearmQuickAck(fd int) {}
