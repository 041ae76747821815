package wire

import (
	"io"
	"os"
	"strconv"
	"strings"
)

// Response is an outgoing HTTP message, per the core data model: a status
// line, canonical-cased headers, an ordered sequence of already-formatted
// Set-Cookie strings, and a body framed by either Content-Length or chunked
// Transfer-Encoding, never both.
type Response struct {
	StatusCode    int
	StatusMessage string

	Header  Header
	Cookies []string

	Body    []byte
	Chunked bool

	// BodyFile, when non-nil, replaces Body with a file streamed by the
	// transport (sendfile on Linux). WriteTo emits the status line and
	// headers with Content-Length set to BodyFileSize; the connection
	// owns draining the file and closing it afterward.
	BodyFile     *os.File
	BodyFileSize int64

	// Connection indicates how the reactor should treat the connection
	// after this response drains: "close", "keep-alive", or "" (unset,
	// meaning decide from the request's own Connection/version).
	Connection string
}

// NewResponse returns a 200 OK response with the default security headers
// applied. They are emitted with the spelling DefaultSecurityHeaders gives
// them ("X-XSS-Protection"), not the re-cased CanonicalHeaderName form.
func NewResponse() *Response {
	r := &Response{StatusCode: 200, StatusMessage: ReasonPhrase(200)}
	for _, kv := range DefaultSecurityHeaders {
		r.Header.Set(kv[0], kv[1])
		r.Header.entries[strings.ToLower(kv[0])] = entry{canonical: kv[0], value: kv[1]}
	}
	return r
}

// Reset clears r for reuse from a pool.
func (r *Response) Reset() {
	r.StatusCode = 0
	r.StatusMessage = ""
	r.Header.Reset()
	r.Cookies = r.Cookies[:0]
	r.Body = r.Body[:0]
	r.Chunked = false
	r.BodyFile = nil
	r.BodyFileSize = 0
	r.Connection = ""
}

// SetStatus sets the status code and its standard reason phrase.
func (r *Response) SetStatus(code int) {
	r.StatusCode = code
	r.StatusMessage = ReasonPhrase(code)
}

// AddCookie appends an already-formatted Set-Cookie header value.
func (r *Response) AddCookie(setCookie string) {
	r.Cookies = append(r.Cookies, setCookie)
}

// WriteTo serializes the status line, headers, cookies and body to w. When
// Chunked is true the body is framed as a single final chunk (producers
// that stream chunks directly use WriteChunk/FinishChunked on a
// ResponseWriter instead of building a fully-buffered Response).
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var written int64

	statusLine := "HTTP/1.1 " + strconv.Itoa(r.StatusCode) + " " + r.StatusMessage + "\r\n"
	n, err := io.WriteString(w, statusLine)
	written += int64(n)
	if err != nil {
		return written, err
	}

	if r.Chunked {
		r.Header.Del("Content-Length")
		if !r.Header.Has("Transfer-Encoding") {
			r.Header.Set("Transfer-Encoding", "chunked")
		}
	} else {
		r.Header.Del("Transfer-Encoding")
		if r.BodyFile != nil {
			r.Header.Set("Content-Length", strconv.FormatInt(r.BodyFileSize, 10))
		} else {
			r.Header.Set("Content-Length", strconv.Itoa(len(r.Body)))
		}
	}
	if r.Connection == "close" || r.Connection == "keep-alive" {
		r.Header.Set("Connection", r.Connection)
	}

	var headerErr error
	r.Header.VisitAll(func(name, value string) bool {
		n, err := io.WriteString(w, name+": "+value+"\r\n")
		written += int64(n)
		if err != nil {
			headerErr = err
			return false
		}
		return true
	})
	if headerErr != nil {
		return written, headerErr
	}

	for _, c := range r.Cookies {
		n, err := io.WriteString(w, "Set-Cookie: "+c+"\r\n")
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	n, err = io.WriteString(w, "\r\n")
	written += int64(n)
	if err != nil {
		return written, err
	}

	if r.Chunked {
		if len(r.Body) > 0 {
			n, err = io.WriteString(w, strconv.FormatInt(int64(len(r.Body)), 16)+"\r\n")
			written += int64(n)
			if err != nil {
				return written, err
			}
			nb, err := w.Write(r.Body)
			written += int64(nb)
			if err != nil {
				return written, err
			}
			n, err = io.WriteString(w, "\r\n")
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
		n, err = io.WriteString(w, "0\r\n\r\n")
		written += int64(n)
		return written, err
	}

	if r.BodyFile != nil {
		// File bodies are streamed by the transport after the header
		// block; nothing more to serialize here.
		return written, nil
	}
	nb, err := w.Write(r.Body)
	written += int64(nb)
	return written, err
}

// ResponseWriter streams a response directly to a connection's output
// buffer without requiring the full body to be assembled first, for
// producers (static files, CGI) that want to pipe bytes as they become
// available. It mirrors the buffered status-line/header/body write
// sequence of Response.WriteTo but exposes it incrementally.
type ResponseWriter struct {
	w             io.Writer
	status        int
	header        Header
	statusWritten bool
	headerWritten bool
	bytesWritten  int64
	chunked       bool
}

// NewResponseWriter returns a ResponseWriter defaulting to 200 OK.
func NewResponseWriter(w io.Writer) *ResponseWriter {
	return &ResponseWriter{w: w, status: 200}
}

// Header returns the header set to populate before the first Write.
func (rw *ResponseWriter) Header() *Header {
	return &rw.header
}

// WriteHeader sets the status code. Only the first call takes effect.
func (rw *ResponseWriter) WriteHeader(statusCode int) {
	if rw.statusWritten {
		return
	}
	rw.status = statusCode
	rw.statusWritten = true
}

func (rw *ResponseWriter) writeHeaders() error {
	if rw.headerWritten {
		return nil
	}
	rw.headerWritten = true

	statusLine := "HTTP/1.1 " + strconv.Itoa(rw.status) + " " + ReasonPhrase(rw.status) + "\r\n"
	if _, err := io.WriteString(rw.w, statusLine); err != nil {
		return err
	}

	var writeErr error
	rw.header.VisitAll(func(name, value string) bool {
		if _, err := io.WriteString(rw.w, name+": "+value+"\r\n"); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return writeErr
	}

	_, err := io.WriteString(rw.w, "\r\n")
	return err
}

// Write writes body bytes, writing headers first if not already written.
func (rw *ResponseWriter) Write(data []byte) (int, error) {
	if !rw.headerWritten {
		if err := rw.writeHeaders(); err != nil {
			return 0, err
		}
	}
	n, err := rw.w.Write(data)
	rw.bytesWritten += int64(n)
	return n, err
}

// WriteChunk writes one chunk of a chunked-encoding response, setting
// Transfer-Encoding: chunked on the first call if not already present.
func (rw *ResponseWriter) WriteChunk(chunk []byte) error {
	if !rw.headerWritten {
		rw.chunked = true
		if !rw.header.Has("Transfer-Encoding") {
			rw.header.Set("Transfer-Encoding", "chunked")
		}
		if err := rw.writeHeaders(); err != nil {
			return err
		}
	}
	if len(chunk) == 0 {
		return nil
	}
	if _, err := io.WriteString(rw.w, strconv.FormatInt(int64(len(chunk)), 16)+"\r\n"); err != nil {
		return err
	}
	if _, err := rw.w.Write(chunk); err != nil {
		return err
	}
	if _, err := io.WriteString(rw.w, "\r\n"); err != nil {
		return err
	}
	rw.bytesWritten += int64(len(chunk))
	return nil
}

// FinishChunked writes the terminating zero-length chunk.
func (rw *ResponseWriter) FinishChunked() error {
	_, err := io.WriteString(rw.w, "0\r\n\r\n")
	return err
}

// BytesWritten reports the number of body bytes written so far.
func (rw *ResponseWriter) BytesWritten() int64 {
	return rw.bytesWritten
}

// Status reports the status code in effect.
func (rw *ResponseWriter) Status() int {
	return rw.status
}

// Reset prepares rw for reuse against a new underlying writer.
func (rw *ResponseWriter) Reset(w io.Writer) {
	rw.w = w
	rw.status = 200
	rw.header.Reset()
	rw.statusWritten = false
	rw.headerWritten = false
	rw.bytesWritten = 0
	rw.chunked = false
}
