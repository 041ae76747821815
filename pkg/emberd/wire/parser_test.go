package wire

import (
	"strings"
	"testing"
)

func feedAll(t *testing.T, p *Parser, data string) bool {
	t.Helper()
	done, _ := p.Feed([]byte(data))
	return done
}

func TestParseSimpleGET(t *testing.T) {
	p := NewParser(Limits{})
	done := feedAll(t, p, "GET /index.html HTTP/1.1\r\nHost: a\r\n\r\n")
	if !done {
		t.Fatal("expected request to complete")
	}
	req := p.Request()
	if req.Err != nil {
		t.Fatalf("unexpected parse error: %v", req.Err)
	}
	if req.Method != "GET" || req.Path != "/index.html" || req.Version != "HTTP/1.1" {
		t.Errorf("got method=%q path=%q version=%q", req.Method, req.Path, req.Version)
	}
	if host, _ := req.Header.Get("host"); host != "a" {
		t.Errorf("Host = %q, want %q", host, "a")
	}
}

func TestParseQuerySplit(t *testing.T) {
	p := NewParser(Limits{})
	feedAll(t, p, "GET /cgi-bin/s.py?x=1&y=2 HTTP/1.1\r\nHost: a\r\n\r\n")
	req := p.Request()
	if req.Path != "/cgi-bin/s.py" {
		t.Errorf("Path = %q", req.Path)
	}
	if req.Query != "x=1&y=2" {
		t.Errorf("Query = %q", req.Query)
	}
	if req.URI != "/cgi-bin/s.py?x=1&y=2" {
		t.Errorf("URI = %q", req.URI)
	}
}

func TestParseByteByByteMatchesAllAtOnce(t *testing.T) {
	raw := "POST /api HTTP/1.1\r\nHost: a\r\nContent-Length: 11\r\n\r\nhello=world"

	whole := NewParser(Limits{})
	if done := feedAll(t, whole, raw); !done {
		t.Fatal("whole feed did not complete")
	}

	byteWise := NewParser(Limits{})
	var done bool
	for i := 0; i < len(raw); i++ {
		done, _ = byteWise.Feed([]byte{raw[i]})
	}
	if !done {
		t.Fatal("byte-by-byte feed did not complete")
	}

	a, b := whole.Request(), byteWise.Request()
	if a.Method != b.Method || a.Path != b.Path || a.Query != b.Query ||
		a.Version != b.Version || string(a.Body) != string(b.Body) {
		t.Errorf("byte-by-byte parse diverged: %+v vs %+v", a, b)
	}
	if string(b.Body) != "hello=world" {
		t.Errorf("body = %q", b.Body)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code int
	}{
		{"bad method", "PATCH / HTTP/1.1\r\nHost: a\r\n\r\n", 405},
		{"bad version", "GET / HTTP/2.0\r\nHost: a\r\n\r\n", 505},
		{"missing host", "GET / HTTP/1.1\r\n\r\n", 400},
		{"smuggling", "POST / HTTP/1.1\r\nHost: a\r\nContent-Length: 3\r\nTransfer-Encoding: chunked\r\n\r\n", 400},
		{"duplicate content-length", "POST / HTTP/1.1\r\nHost: a\r\nContent-Length: 3\r\nContent-Length: 3\r\n\r\n", 400},
		{"bad content-length", "POST / HTTP/1.1\r\nHost: a\r\nContent-Length: abc\r\n\r\n", 400},
		{"negative content-length", "POST / HTTP/1.1\r\nHost: a\r\nContent-Length: -1\r\n\r\n", 400},
		{"unsupported transfer-encoding", "POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: gzip\r\n\r\n", 501},
		{"garbage request line", "NOPE\r\nHost: a\r\n\r\n", 400},
		{"control byte in path", "GET /a\x01b HTTP/1.1\r\nHost: a\r\n\r\n", 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(Limits{})
			done, err := p.Feed([]byte(tt.raw))
			if !done || err == nil {
				t.Fatalf("expected terminal error, got done=%v err=%v", done, err)
			}
			if p.Request().Err == nil || p.Request().Err.Code != tt.code {
				t.Errorf("error = %v, want code %d", p.Request().Err, tt.code)
			}
		})
	}
}

func TestParseHTTP10WithoutHost(t *testing.T) {
	p := NewParser(Limits{})
	done := feedAll(t, p, "GET / HTTP/1.0\r\n\r\n")
	if !done || p.Request().Err != nil {
		t.Fatalf("HTTP/1.0 without Host should parse, got err=%v", p.Request().Err)
	}
	if !p.Request().Close {
		t.Error("HTTP/1.0 should default to Connection: close")
	}
}

func TestContentLengthAtLimit(t *testing.T) {
	limits := Limits{MaxBodyBytes: 8}
	body := strings.Repeat("x", 8)

	p := NewParser(limits)
	done := feedAll(t, p, "POST / HTTP/1.1\r\nHost: a\r\nContent-Length: 8\r\n\r\n"+body)
	if !done || p.Request().Err != nil {
		t.Fatalf("body at limit must be accepted, got err=%v", p.Request().Err)
	}
	if string(p.Request().Body) != body {
		t.Errorf("body = %q", p.Request().Body)
	}

	over := NewParser(limits)
	done, err := over.Feed([]byte("POST / HTTP/1.1\r\nHost: a\r\nContent-Length: 9\r\n\r\n"))
	if !done || err == nil || over.Request().Err.Code != 413 {
		t.Fatalf("body over limit must be 413, got %v", over.Request().Err)
	}
}

func TestHeadersAtLimit(t *testing.T) {
	host := "Host: a\r\n"
	// Pad a second header so the header block lands exactly on the limit.
	pad := "X-Pad: " + strings.Repeat("p", 23) + "\r\n"
	limit := len(host) + len(pad)

	p := NewParser(Limits{MaxHeadersBytes: limit})
	done := feedAll(t, p, "GET / HTTP/1.1\r\n"+host+pad+"\r\n")
	if !done || p.Request().Err != nil {
		t.Fatalf("headers at limit must be accepted, got err=%v", p.Request().Err)
	}

	over := NewParser(Limits{MaxHeadersBytes: limit - 1})
	done, err := over.Feed([]byte("GET / HTTP/1.1\r\n" + host + pad + "\r\n"))
	if !done || err == nil || over.Request().Err.Code != 431 {
		t.Fatalf("headers over limit must be 431, got %v", over.Request().Err)
	}
}

func TestChunkedBody(t *testing.T) {
	p := NewParser(Limits{})
	raw := "POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	done := feedAll(t, p, raw)
	if !done || p.Request().Err != nil {
		t.Fatalf("chunked parse failed: %v", p.Request().Err)
	}
	if string(p.Request().Body) != "hello world" {
		t.Errorf("body = %q", p.Request().Body)
	}
}

func TestChunkedFinalChunkInSeparateFeed(t *testing.T) {
	p := NewParser(Limits{})
	done := feedAll(t, p, "POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n")
	if done {
		t.Fatal("request should not complete before the final chunk")
	}
	done = feedAll(t, p, "0\r\n\r\n")
	if !done || p.Request().Err != nil {
		t.Fatalf("final chunk in separate feed must complete, err=%v", p.Request().Err)
	}
	if string(p.Request().Body) != "hello" {
		t.Errorf("body = %q", p.Request().Body)
	}
}

func TestChunkedExtensionsIgnored(t *testing.T) {
	p := NewParser(Limits{})
	done := feedAll(t, p, "POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\n"+
		"5;ext=1\r\nhello\r\n0\r\n\r\n")
	if !done || p.Request().Err != nil {
		t.Fatalf("chunk extensions must be ignored, err=%v", p.Request().Err)
	}
}

func TestChunkedMalformed(t *testing.T) {
	tests := []struct {
		name string
		tail string
	}{
		{"bad hex", "zz\r\nhello\r\n0\r\n\r\n"},
		{"missing crlf after data", "5\r\nhelloXX0\r\n\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(Limits{})
			done, err := p.Feed([]byte("POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\n" + tt.tail))
			if !done || err == nil || p.Request().Err.Code != 400 {
				t.Fatalf("want 400, got done=%v err=%v", done, p.Request().Err)
			}
		})
	}
}

func TestChunkedBodyOverLimit(t *testing.T) {
	p := NewParser(Limits{MaxBodyBytes: 4})
	done, err := p.Feed([]byte("POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n"))
	if !done || err == nil || p.Request().Err.Code != 413 {
		t.Fatalf("want 413, got %v", p.Request().Err)
	}
}

func TestResetPreservesPipelinedBytes(t *testing.T) {
	p := NewParser(Limits{})
	two := "GET /first HTTP/1.1\r\nHost: a\r\n\r\nGET /second HTTP/1.1\r\nHost: a\r\n\r\n"
	done := feedAll(t, p, two)
	if !done || p.Request().Path != "/first" {
		t.Fatalf("first request: done=%v path=%q", done, p.Request().Path)
	}
	p.Reset()
	done, _ = p.Feed(nil)
	if !done || p.Request().Path != "/second" {
		t.Fatalf("pipelined request: done=%v path=%q err=%v", done, p.Request().Path, p.Request().Err)
	}
}

func TestPathNormalization(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"/a/./b", "/a/b"},
		{"/a/../b", "/b"},
		{"/../..", "/"},
		{"/a//b///c", "/a/b/c"},
		{"/", "/"},
		{"/a/b/../../..", "/"},
	}
	for _, tt := range tests {
		got, err := NormalizePath(tt.raw)
		if err != nil {
			t.Errorf("NormalizePath(%q) error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.raw, got, tt.want)
		}
		again, _ := NormalizePath(got)
		if again != got {
			t.Errorf("NormalizePath not idempotent for %q: %q -> %q", tt.raw, got, again)
		}
	}
}
