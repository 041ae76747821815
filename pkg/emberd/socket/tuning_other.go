//go:build !linux && !darwin

package socket

func applyListenerOptions(fd int, cfg *Config) error { return nil }

func applyConnOptions(fd int, cfg *Config) {}

// RearmQuickAck is a no-op outside Linux.
func RearmQuickAck(fd int) {}
