// Package reactor implements the non-blocking, single-threaded connection
// multiplexer: one OS readiness primitive (epoll on Linux, kqueue on
// Darwin) drives reads, writes and connection lifecycle for every
// listener and connection with no per-connection goroutine and no blocking
// syscall on the hot path.
package reactor

// Event flags, independent of the underlying OS readiness primitive.
const (
	EventRead  = 1 << iota // peer has data to read, or a new connection is ready to accept
	EventWrite             // the socket send buffer has room, or connect() completed
	EventErr               // the descriptor is in an error state
	EventHup               // the peer closed or half-closed the connection
)

// Event reports readiness for a single registered file descriptor.
type Event struct {
	Fd     int
	Flags  uint32
	Cookie interface{} // opaque value supplied at Add/Modify, usually *Connection
}

// Poller is the minimal readiness-notification primitive the reactor loop
// needs. Platform-specific files (poller_linux.go, poller_darwin.go)
// implement it over epoll and kqueue respectively; poller_other.go reports
// an error on unsupported platforms rather than silently degrading to a
// blocking model.
type Poller interface {
	// Add registers fd for the given interest (EventRead/EventWrite,
	// OR'd together) and associates cookie with future events for fd.
	Add(fd int, interest uint32, cookie interface{}) error
	// Modify changes the interest set for an already-registered fd.
	Modify(fd int, interest uint32, cookie interface{}) error
	// Remove deregisters fd. It is not an error to remove an fd that was
	// never added.
	Remove(fd int) error
	// Wait blocks until at least one event is ready or timeoutMillis
	// elapses (-1 blocks indefinitely), appending ready events to out and
	// returning the extended slice.
	Wait(out []Event, timeoutMillis int) ([]Event, error)
	// Close releases the underlying OS resource.
	Close() error
}
