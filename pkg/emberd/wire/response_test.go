package wire

import (
	"bytes"
	"strings"
	"testing"
)

func serialize(t *testing.T, r *Response) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.String()
}

func TestResponseContentLengthFraming(t *testing.T) {
	r := NewResponse()
	r.Body = []byte("hello")
	out := serialize(t, r)

	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("status line: %q", out[:strings.Index(out, "\r\n")])
	}
	if !strings.Contains(out, "Content-Length: 5\r\n") {
		t.Error("missing Content-Length: 5")
	}
	if strings.Contains(out, "Transfer-Encoding") {
		t.Error("Content-Length and Transfer-Encoding must be mutually exclusive")
	}
	if !strings.HasSuffix(out, "\r\n\r\nhello") {
		t.Errorf("body framing wrong: %q", out)
	}
}

func TestResponseChunkedFraming(t *testing.T) {
	r := NewResponse()
	r.Chunked = true
	r.Header.Set("Content-Length", "999") // must be stripped
	r.Body = []byte("hello")
	out := serialize(t, r)

	if strings.Contains(out, "Content-Length") {
		t.Error("chunked response must not carry Content-Length")
	}
	if !strings.Contains(out, "Transfer-Encoding: chunked\r\n") {
		t.Error("missing Transfer-Encoding: chunked")
	}
	if !strings.Contains(out, "\r\n5\r\nhello\r\n0\r\n\r\n") {
		t.Errorf("chunk framing wrong: %q", out)
	}
}

func TestResponseSecurityHeaders(t *testing.T) {
	out := serialize(t, NewResponse())
	for _, want := range []string{
		"X-Content-Type-Options: nosniff",
		"X-Frame-Options: DENY",
		"X-XSS-Protection: 1; mode=block",
		"Content-Security-Policy: default-src 'self'",
	} {
		if !strings.Contains(out, want+"\r\n") {
			t.Errorf("missing default security header %q", want)
		}
	}
}

func TestResponseSecurityHeadersOverridable(t *testing.T) {
	r := NewResponse()
	r.Header.Set("X-Frame-Options", "SAMEORIGIN")
	out := serialize(t, r)
	if !strings.Contains(out, "X-Frame-Options: SAMEORIGIN\r\n") {
		t.Error("override not honored")
	}
	if strings.Contains(out, "X-Frame-Options: DENY") {
		t.Error("default still present after override")
	}
}

func TestResponseCookies(t *testing.T) {
	r := NewResponse()
	r.AddCookie("a=1; Path=/")
	r.AddCookie("b=2; HttpOnly")
	out := serialize(t, r)
	first := strings.Index(out, "Set-Cookie: a=1; Path=/\r\n")
	second := strings.Index(out, "Set-Cookie: b=2; HttpOnly\r\n")
	if first < 0 || second < 0 || second < first {
		t.Errorf("cookies missing or out of order: %q", out)
	}
}

func TestResponseConnectionHeader(t *testing.T) {
	r := NewResponse()
	r.Connection = "close"
	if !strings.Contains(serialize(t, r), "Connection: close\r\n") {
		t.Error("missing Connection: close")
	}

	unset := NewResponse()
	if strings.Contains(serialize(t, unset), "Connection:") {
		t.Error("unset Connection must not emit a header")
	}
}
