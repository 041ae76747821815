package reactor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/emberd/pkg/emberd/socket"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// Handler turns a completed request into a response. Implementations
// (the router, wired to the CGI engine and the static/autoindex/upload/
// redirect/error producers) never see partially-parsed requests: the
// reactor only calls Handle once Parser.Feed reports Complete.
type Handler interface {
	Handle(req *wire.Request) *wire.Response
}

// Config bounds the reactor's resource usage and timeouts.
type Config struct {
	Limits      wire.Limits
	IdleTimeout time.Duration // connections idle longer than this are closed
	PollTimeout time.Duration // Wait() granularity, for idle-sweep responsiveness
	MaxInFlight int           // 0 = unlimited accepted connections

	// Tuning is applied to every accepted connection's socket. Nil skips
	// per-connection tuning entirely.
	Tuning *socket.Config

	// OnAccept, if set, is called once per accepted connection.
	OnAccept func()
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = 1 * time.Second
	}
	return c
}

// Loop is the single-threaded, non-blocking event loop: one Poller drives
// every listener and connection with no per-connection goroutine. All
// reads, writes, accepts and lifecycle transitions happen on the
// goroutine that calls Run.
type Loop struct {
	poller    Poller
	listeners []*Listener
	conns     map[int]*Connection
	handler   Handler
	cfg       Config
	log       *logrus.Logger
}

// NewLoop constructs a Loop bound to handler. Call AddListener for each
// port before Run.
func NewLoop(handler Handler, cfg Config, log *logrus.Logger) (*Loop, error) {
	poller, err := newPoller()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loop{
		poller:  poller,
		conns:   make(map[int]*Connection),
		handler: handler,
		cfg:     cfg.withDefaults(),
		log:     log,
	}, nil
}

// AddListener registers ln with the loop's poller for EventRead (new
// connections), and must be called before Run.
func (l *Loop) AddListener(ln *Listener) error {
	l.listeners = append(l.listeners, ln)
	return l.poller.Add(ln.Fd(), EventRead, ln)
}

// Run drives the loop until ctx is cancelled or an unrecoverable poller
// error occurs. It closes all listeners and connections before returning.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()

	events := make([]Event, 0, 256)
	lastSweep := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var err error
		events, err = l.poller.Wait(events[:0], int(l.cfg.PollTimeout/time.Millisecond))
		if err != nil {
			return err
		}

		for _, ev := range events {
			switch c := ev.Cookie.(type) {
			case *Listener:
				l.acceptAll(c)
			case *Connection:
				l.handleConnEvent(c, ev.Flags)
			}
		}

		if time.Since(lastSweep) >= l.cfg.PollTimeout {
			l.sweepIdle()
			lastSweep = time.Now()
		}
	}
}

func (l *Loop) acceptAll(ln *Listener) {
	for {
		fd, remote, err := ln.Accept()
		if err != nil {
			l.log.WithError(err).Warn("reactor: accept failed")
			return
		}
		if fd == 0 {
			return // no more pending connections
		}
		if l.cfg.MaxInFlight > 0 && len(l.conns) >= l.cfg.MaxInFlight {
			closeRawFd(fd)
			continue
		}
		if err := socket.ApplyConn(fd, l.cfg.Tuning); err != nil {
			l.log.WithError(err).Debug("reactor: connection tuning incomplete")
		}
		c := newConnection(fd, ln.Port(), remote, l.cfg.Limits)
		l.conns[fd] = c
		if err := l.poller.Add(fd, EventRead, c); err != nil {
			l.log.WithError(err).Warn("reactor: register connection failed")
			c.close()
			delete(l.conns, fd)
			continue
		}
		if l.cfg.OnAccept != nil {
			l.cfg.OnAccept()
		}
	}
}

func (l *Loop) handleConnEvent(c *Connection, flags uint32) {
	if flags&(EventErr|EventHup) != 0 && c.outPos >= len(c.outBuf) {
		l.closeConn(c)
		return
	}
	if flags&EventWrite != 0 {
		l.drainWrite(c)
		if c.state == StateClosed {
			return
		}
	}
	if flags&EventRead != 0 {
		l.readAndProcess(c)
	}
}

func (l *Loop) readAndProcess(c *Connection) {
	data, err := c.readInto()
	if err != nil {
		l.closeConn(c)
		return
	}
	if data == nil {
		// No bytes available right now; a concurrent EventHup will close
		// the connection once any pending output has drained.
		return
	}
	c.state = StateActive
	c.lastUse = time.Now()
	if l.cfg.Tuning != nil && l.cfg.Tuning.QuickAck {
		socket.RearmQuickAck(c.fd)
	}

	if err := l.feedAndRespond(c, data); err != nil {
		l.closeConn(c)
		return
	}
	l.drainWrite(c)
}

// feedAndRespond drives the parser across possibly several pipelined
// requests buffered in one read, queuing a response for each.
func (l *Loop) feedAndRespond(c *Connection, data []byte) error {
	first := true
	for {
		var chunk []byte
		if first {
			chunk = data
			first = false
		}
		complete, _ := c.parser.Feed(chunk)
		if !complete {
			return nil
		}
		req := c.parser.Request()
		resp := l.respond(c, req)
		if _, err := resp.WriteTo(appendWriter{c}); err != nil {
			return err
		}
		if resp.BodyFile != nil {
			c.setFileBody(resp.BodyFile, resp.BodyFileSize)
		}
		closeAfter := req.Close || resp.Connection == "close"
		c.resetForNextRequest()
		if closeAfter {
			c.closing = true
			return nil
		}
		if c.pendingFile != nil {
			// A file body is in flight; the next pipelined response must
			// not interleave with it. drainWrite resumes parsing once the
			// file has fully streamed.
			return nil
		}
		// Loop again: Feed(nil) drains any pipelined bytes already
		// buffered by the parser from this same read.
	}
}

func (l *Loop) respond(c *Connection, req *wire.Request) *wire.Response {
	req.ListenPort = c.listenPort
	req.RemoteAddr = c.remoteAddr
	if req.Err != nil {
		return errorResponse(req.Err)
	}
	return l.handler.Handle(req)
}

// errorResponse synthesizes the reply for a request that failed parsing.
// A connection that failed mid-parse cannot be trusted to frame the next
// request, so the response always closes it.
func errorResponse(pe *wire.ParseError) *wire.Response {
	resp := wire.NewResponse()
	resp.SetStatus(pe.Code)
	resp.Connection = "close"
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte(pe.Message + "\n")
	return resp
}

func (l *Loop) drainWrite(c *Connection) {
	for {
		drained, err := c.flushOutput()
		if err != nil {
			l.closeConn(c)
			return
		}
		if !drained {
			if !c.wantWrite {
				c.wantWrite = true
				l.poller.Modify(c.fd, EventRead|EventWrite, c)
			}
			return
		}
		if c.closing {
			l.closeConn(c)
			return
		}
		// Fully drained: any pipelined request bytes the parser buffered
		// while output was in flight can be answered now.
		if err := l.feedAndRespond(c, nil); err != nil {
			l.closeConn(c)
			return
		}
		if len(c.outBuf) == 0 && c.pendingFile == nil {
			if c.wantWrite {
				c.wantWrite = false
				l.poller.Modify(c.fd, EventRead, c)
			}
			return
		}
	}
}

func (l *Loop) closeConn(c *Connection) {
	l.poller.Remove(c.fd)
	delete(l.conns, c.fd)
	c.close()
}

func (l *Loop) sweepIdle() {
	for _, c := range l.conns {
		if c.state == StateIdle && c.IdleFor() > l.cfg.IdleTimeout {
			l.closeConn(c)
		}
	}
}

func (l *Loop) shutdown() {
	for _, ln := range l.listeners {
		l.poller.Remove(ln.Fd())
		ln.Close()
	}
	for _, c := range l.conns {
		l.poller.Remove(c.fd)
		c.close()
	}
	l.poller.Close()
}

// appendWriter adapts Connection.queueOutput to io.Writer for Response.WriteTo.
type appendWriter struct{ c *Connection }

func (w appendWriter) Write(p []byte) (int, error) {
	w.c.queueOutput(p)
	return len(p), nil
}

func closeRawFd(fd int) {
	c := &Connection{fd: fd}
	c.close()
}
