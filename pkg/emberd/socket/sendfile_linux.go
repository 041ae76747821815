//go:build linux

package socket

import (
	"os"

	"golang.org/x/sys/unix"
)

// maxSendfileChunk bounds a single sendfile(2) call; the syscall's count
// argument caps out well below an int64.
const maxSendfileChunk = 1 << 30

// SendFileFd copies up to count bytes of file starting at *offset to the
// raw descriptor dstFd with sendfile(2), advancing *offset by the bytes
// written. A full socket send buffer (EAGAIN) stops the copy early with a
// nil error so a readiness-driven caller can resume once the descriptor
// reports writable again; EINTR retries in place.
func SendFileFd(dstFd int, file *os.File, offset *int64, count int64) (int64, error) {
	srcFd := int(file.Fd())
	var written int64
	for written < count {
		chunk := count - written
		if chunk > maxSendfileChunk {
			chunk = maxSendfileChunk
		}
		n, err := unix.Sendfile(dstFd, srcFd, offset, int(chunk))
		if n > 0 {
			written += int64(n)
		}
		if err != nil {
			if err == unix.EAGAIN {
				return written, nil
			}
			if err == unix.EINTR {
				continue
			}
			return written, err
		}
		if n == 0 {
			break // EOF before count bytes; the caller sized count from stat
		}
	}
	return written, nil
}
