package reactor

import (
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/yourusername/emberd/pkg/emberd/bufpool"
	"github.com/yourusername/emberd/pkg/emberd/socket"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// ConnectionState is a connection's lifecycle state: new, actively
// exchanging a request/response, idle between keep-alive requests, or
// closed.
type ConnectionState int32

const (
	StateNew ConnectionState = iota
	StateActive
	StateIdle
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection owns one accepted socket's full state: the raw non-blocking
// fd, its read/write buffers, the parser assembling the request currently
// in flight, and the pending output bytes not yet accepted by the kernel.
// A single Connection is only ever touched from the reactor's loop
// goroutine, so it carries no synchronization.
type Connection struct {
	fd         int
	listenPort int
	remoteAddr string

	parser *wire.Parser

	inBuf  []byte
	outBuf []byte
	outPos int // bytes of outBuf already written to the kernel

	// pendingFile is a file-backed response body streamed with sendfile
	// after outBuf (the status line and headers) drains.
	pendingFile   *os.File
	fileOffset    int64
	fileRemaining int64

	state    ConnectionState
	lastUse  time.Time
	requests int

	wantWrite bool
	closing   bool // close once outBuf drains
}

func newConnection(fd, listenPort int, remoteAddr string, limits wire.Limits) *Connection {
	return &Connection{
		fd:         fd,
		listenPort: listenPort,
		remoteAddr: remoteAddr,
		parser:     wire.NewParser(limits),
		inBuf:      bufpool.Get(),
		state:      StateNew,
		lastUse:    time.Now(),
	}
}

// Fd returns the underlying file descriptor, for Poller registration.
func (c *Connection) Fd() int { return c.fd }

// State reports the connection's current lifecycle state.
func (c *Connection) State() ConnectionState { return c.state }

// RequestCount reports how many requests have completed on this connection.
func (c *Connection) RequestCount() int { return c.requests }

// IdleFor reports how long the connection has been idle.
func (c *Connection) IdleFor() time.Duration {
	if c.state == StateActive {
		return 0
	}
	return time.Since(c.lastUse)
}

// readInto performs one non-blocking read into the connection's buffer,
// returning the bytes read. Peer EOF (a zero-byte read on a readable
// socket) is reported as io.EOF so the loop closes the connection rather
// than spinning on a level-triggered readable fd.
func (c *Connection) readInto() ([]byte, error) {
	n, err := unix.Read(c.fd, c.inBuf[:cap(c.inBuf)])
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	return c.inBuf[:n], nil
}

// queueOutput appends bytes to the pending write buffer.
func (c *Connection) queueOutput(b []byte) {
	c.outBuf = append(c.outBuf, b...)
}

// setFileBody arms sendfile streaming of f once the buffered header bytes
// drain. The connection takes ownership of f and closes it when done.
func (c *Connection) setFileBody(f *os.File, size int64) {
	c.pendingFile = f
	c.fileOffset = 0
	c.fileRemaining = size
}

// flushOutput writes as much of the pending buffer as the kernel accepts
// without blocking, then streams any pending file body with sendfile.
// It returns true once everything has drained.
func (c *Connection) flushOutput() (bool, error) {
	for c.outPos < len(c.outBuf) {
		n, err := unix.Write(c.fd, c.outBuf[c.outPos:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return false, nil
			}
			if err == unix.EINTR {
				continue
			}
			return false, err
		}
		c.outPos += n
	}
	c.outBuf = c.outBuf[:0]
	c.outPos = 0

	if c.pendingFile != nil {
		n, err := socket.SendFileFd(c.fd, c.pendingFile, &c.fileOffset, c.fileRemaining)
		c.fileRemaining -= n
		if err != nil {
			c.dropFile()
			return false, err
		}
		if c.fileRemaining > 0 {
			return false, nil
		}
		c.dropFile()
	}
	return true, nil
}

func (c *Connection) dropFile() {
	if c.pendingFile != nil {
		c.pendingFile.Close()
		c.pendingFile = nil
	}
}

// resetForNextRequest prepares the connection to parse another pipelined
// or keep-alive request, reusing the parser's internal buffer.
func (c *Connection) resetForNextRequest() {
	c.parser.Reset()
	c.requests++
	c.state = StateIdle
	c.lastUse = time.Now()
}

func (c *Connection) close() {
	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	c.dropFile()
	bufpool.Put(c.inBuf)
	unix.Close(c.fd)
}
