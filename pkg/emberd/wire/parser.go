package wire

import (
	"strconv"
	"strings"
)

type parseState int

const (
	stateRequestLine parseState = iota
	stateHeaders
	stateBodyLength
	stateBodyChunkSize
	stateBodyChunkData
	stateBodyChunkCRLF
	stateBodyTrailers
	stateComplete
	stateError
)

// Parser incrementally decodes one HTTP/1.1 request from a byte stream that
// may arrive in arbitrarily small pieces. Feed appends newly-read bytes and
// drives the state machine as far as the buffered data allows; it returns
// true once the request is Complete (or has failed with a terminal
// *ParseError), false when it needs more bytes. A push contract rather than
// a Parse(io.Reader) one: the event loop delivers readiness-sized reads and
// the parser must suspend and resume between them without blocking.
type Parser struct {
	limits Limits
	buf    []byte
	state  parseState
	req    *Request

	remaining  int64 // bytes left in the current Content-Length body or chunk
	bodyRead   int64 // cumulative chunked-body bytes read so far (Content-Length bodies are bounded at header time)
	headerSize int   // cumulative header-block bytes consumed so far

	hasContentLength bool
	hasTransferEnc   bool
}

// NewParser returns a Parser bound to a fresh pooled Request.
func NewParser(limits Limits) *Parser {
	p := &Parser{limits: limits.WithDefaults()}
	p.Reset()
	return p
}

// Reset clears parser state and request for the next request on the same
// connection. Any bytes already buffered past the previous request's end
// (a pipelined request) are preserved and fed to the new request the next
// time Feed is called, including Feed(nil) to drain them immediately.
func (p *Parser) Reset() {
	if p.req != nil {
		PutRequest(p.req)
	}
	p.req = GetRequest()
	p.req.ContentLength = -1
	p.state = stateRequestLine
	p.remaining = 0
	p.bodyRead = 0
	p.headerSize = 0
	p.hasContentLength = false
	p.hasTransferEnc = false
}

// Request returns the request being assembled. Valid to inspect once Feed
// has returned true.
func (p *Parser) Request() *Request {
	return p.req
}

func (p *Parser) consume(n int) {
	copy(p.buf, p.buf[n:])
	p.buf = p.buf[:len(p.buf)-n]
}

func (p *Parser) fail(err error) {
	p.state = stateError
	p.req.Err = err.(*ParseError)
	p.req.Complete = true
}

// Feed appends data to the parser's buffer and advances the state machine.
// It returns true once the request has reached a terminal state (Complete
// or Error); callers should check Request().Err afterward.
func (p *Parser) Feed(data []byte) (bool, error) {
	if p.state == stateError {
		return true, p.req.Err
	}
	if p.state == stateComplete {
		return true, nil
	}
	p.buf = append(p.buf, data...)

	for {
		switch p.state {
		case stateRequestLine:
			ok, err := p.stepRequestLine()
			if err != nil {
				p.fail(err)
				return true, err
			}
			if !ok {
				return false, nil
			}
		case stateHeaders:
			ok, err := p.stepHeaders()
			if err != nil {
				p.fail(err)
				return true, err
			}
			if !ok {
				return false, nil
			}
		case stateBodyLength:
			done, err := p.stepBodyLength()
			if err != nil {
				p.fail(err)
				return true, err
			}
			if done {
				p.state = stateComplete
				p.req.Complete = true
				return true, nil
			}
			return false, nil
		case stateBodyChunkSize:
			ok, err := p.stepChunkSize()
			if err != nil {
				p.fail(err)
				return true, err
			}
			if !ok {
				return false, nil
			}
		case stateBodyChunkData:
			ok, err := p.stepChunkData()
			if err != nil {
				p.fail(err)
				return true, err
			}
			if !ok {
				return false, nil
			}
		case stateBodyChunkCRLF:
			ok, err := p.stepChunkCRLF()
			if err != nil {
				p.fail(err)
				return true, err
			}
			if !ok {
				return false, nil
			}
		case stateBodyTrailers:
			done, err := p.stepTrailers()
			if err != nil {
				p.fail(err)
				return true, err
			}
			if done {
				p.state = stateComplete
				p.req.Complete = true
				return true, nil
			}
			return false, nil
		case stateComplete:
			return true, nil
		}
	}
}

func indexCRLF(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == '\r' && b[i+1] == '\n' {
			return i
		}
	}
	return -1
}

func (p *Parser) stepRequestLine() (bool, error) {
	idx := indexCRLF(p.buf)
	if idx < 0 {
		if len(p.buf) > p.limits.MaxLineBytes {
			return false, errLineTooLong
		}
		return false, nil
	}
	if idx > p.limits.MaxLineBytes {
		return false, errLineTooLong
	}
	line := string(p.buf[:idx])
	p.consume(idx + 2)

	sp1 := strings.IndexByte(line, ' ')
	if sp1 < 0 {
		return false, errBadRequestLine
	}
	rest := line[sp1+1:]
	sp2 := strings.IndexByte(rest, ' ')
	if sp2 < 0 {
		return false, errBadRequestLine
	}
	method := line[:sp1]
	target := rest[:sp2]
	version := rest[sp2+1:]

	if !isSupportedMethod(method) {
		return false, errMethodNotAllowed
	}
	if version != http11 && version != http10 {
		return false, errVersionUnsupported
	}
	if target == "" {
		return false, errBadRequestLine
	}

	rawPath := target
	query := ""
	if q := strings.IndexByte(target, '?'); q >= 0 {
		rawPath = target[:q]
		query = target[q+1:]
	}
	if hasControlByte(rawPath) {
		return false, errInvalidPathByte
	}
	normPath, err := NormalizePath(rawPath)
	if err != nil {
		return false, errInvalidPathByte
	}

	p.req.Method = method
	p.req.URI = target
	p.req.Path = normPath
	p.req.Query = query
	p.req.Version = version
	p.req.Close = version == http10

	p.state = stateHeaders
	return true, nil
}

func (p *Parser) stepHeaders() (bool, error) {
	idx := indexCRLF(p.buf)
	if idx < 0 {
		if len(p.buf) > p.limits.MaxHeadersBytes {
			return false, errHeadersTooLarge
		}
		return false, nil
	}
	if idx == 0 {
		// Blank line: end of header block.
		p.consume(2)
		return p.finishHeaders()
	}

	p.headerSize += idx + 2
	if p.headerSize > p.limits.MaxHeadersBytes {
		return false, errHeadersTooLarge
	}

	line := string(p.buf[:idx])
	p.consume(idx + 2)

	colon := strings.IndexByte(line, ':')
	if colon <= 0 {
		return false, errBadHeaderLine
	}
	name := strings.TrimSpace(line[:colon])
	value := strings.TrimSpace(line[colon+1:])
	if name == "" {
		return false, errBadHeaderLine
	}

	lower := strings.ToLower(name)
	switch lower {
	case "content-length":
		if p.hasContentLength {
			return false, errDuplicateSpecial
		}
		p.hasContentLength = true
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return false, errBadContentLength
		}
		if n > p.limits.MaxBodyBytes {
			return false, errBodyTooLarge
		}
		p.req.ContentLength = n
	case "transfer-encoding":
		if p.hasTransferEnc {
			return false, errDuplicateSpecial
		}
		p.hasTransferEnc = true
		if !strings.EqualFold(value, "chunked") {
			return false, errUnsupportedTransferEncoding
		}
		p.req.Chunked = true
	case "connection":
		if strings.EqualFold(value, "close") {
			p.req.Close = true
		} else if strings.EqualFold(value, "keep-alive") {
			p.req.Close = false
		}
	}

	p.req.Header.Set(name, value)
	return true, nil
}

func (p *Parser) finishHeaders() (bool, error) {
	if p.hasContentLength && p.hasTransferEnc {
		return false, errSmuggling
	}
	if p.req.Version == http11 && !p.req.Header.Has("Host") {
		return false, errMissingHost
	}

	switch {
	case p.req.Chunked:
		p.state = stateBodyChunkSize
	case p.req.ContentLength > 0:
		p.remaining = p.req.ContentLength
		p.state = stateBodyLength
	default:
		p.req.ContentLength = 0
		p.state = stateComplete
		p.req.Complete = true
	}
	return true, nil
}

func (p *Parser) stepBodyLength() (bool, error) {
	if len(p.buf) == 0 {
		return false, nil
	}
	n := int64(len(p.buf))
	if n > p.remaining {
		n = p.remaining
	}
	p.req.Body = append(p.req.Body, p.buf[:n]...)
	p.consume(int(n))
	p.remaining -= n
	return p.remaining == 0, nil
}

func (p *Parser) stepChunkSize() (bool, error) {
	idx := indexCRLF(p.buf)
	if idx < 0 {
		if len(p.buf) > p.limits.MaxLineBytes {
			return false, errBadChunk
		}
		return false, nil
	}
	line := string(p.buf[:idx])
	p.consume(idx + 2)

	if semi := strings.IndexByte(line, ';'); semi >= 0 {
		line = line[:semi]
	}
	line = strings.TrimSpace(line)
	size, err := strconv.ParseInt(line, 16, 64)
	if err != nil || size < 0 {
		return false, errBadChunk
	}
	if p.bodyRead+size > p.limits.MaxBodyBytes {
		return false, errBodyTooLarge
	}
	if size == 0 {
		p.state = stateBodyTrailers
		return true, nil
	}
	p.remaining = size
	p.state = stateBodyChunkData
	return true, nil
}

func (p *Parser) stepChunkData() (bool, error) {
	if len(p.buf) == 0 {
		return false, nil
	}
	n := int64(len(p.buf))
	if n > p.remaining {
		n = p.remaining
	}
	p.req.Body = append(p.req.Body, p.buf[:n]...)
	p.consume(int(n))
	p.remaining -= n
	p.bodyRead += n
	if p.remaining == 0 {
		p.state = stateBodyChunkCRLF
	}
	return true, nil
}

func (p *Parser) stepChunkCRLF() (bool, error) {
	if len(p.buf) < 2 {
		return false, nil
	}
	if p.buf[0] != '\r' || p.buf[1] != '\n' {
		return false, errBadChunk
	}
	p.consume(2)
	p.state = stateBodyChunkSize
	return true, nil
}

// stepTrailers discards optional trailer headers until the terminating
// blank line, per RFC 7230 §4.1.2. Trailers are not exposed on Request.
func (p *Parser) stepTrailers() (bool, error) {
	for {
		idx := indexCRLF(p.buf)
		if idx < 0 {
			if len(p.buf) > p.limits.MaxHeadersBytes {
				return false, errHeadersTooLarge
			}
			return false, nil
		}
		if idx == 0 {
			p.consume(2)
			return true, nil
		}
		p.consume(idx + 2)
	}
}
