//go:build !linux

package socket

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// SendFileFd copies up to count bytes of file starting at *offset to the
// raw descriptor dstFd, advancing *offset by the bytes written. Platforms
// without sendfile(2) emulate it with a pread/write loop; a full send
// buffer stops the copy early with a nil error so a readiness-driven
// caller can resume when the descriptor is writable again.
func SendFileFd(dstFd int, file *os.File, offset *int64, count int64) (int64, error) {
	var written int64
	buf := make([]byte, 64<<10)
	for written < count {
		chunk := int64(len(buf))
		if remaining := count - written; remaining < chunk {
			chunk = remaining
		}
		n, err := file.ReadAt(buf[:chunk], *offset)
		if n == 0 {
			if err == io.EOF {
				return written, nil
			}
			return written, err
		}
		w, werr := unix.Write(dstFd, buf[:n])
		if w > 0 {
			*offset += int64(w)
			written += int64(w)
		}
		if werr != nil {
			if werr == unix.EAGAIN || werr == unix.EWOULDBLOCK {
				return written, nil
			}
			if werr == unix.EINTR {
				continue
			}
			return written, werr
		}
	}
	return written, nil
}
