package server

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/emberd/pkg/emberd/config"
	"github.com/yourusername/emberd/pkg/emberd/metrics"
	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestHandler(t *testing.T, servers ...config.ServerConfig) *Handler {
	t.Helper()
	f := &config.File{Servers: servers}
	if err := config.Check(f); err != nil {
		t.Fatalf("config.Check: %v", err)
	}
	rtr := router.New(config.BuildServerSets(f))
	return NewHandler(rtr, metrics.NewServer(), quietLog())
}

func getRequest(path string, port int) *wire.Request {
	req := &wire.Request{Method: wire.MethodGET, Path: path, Version: "HTTP/1.1", ListenPort: port}
	req.Header.Set("Host", "a")
	return req
}

func TestHandleStatic(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>home</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := newTestHandler(t, config.ServerConfig{
		Listen:    ":8080",
		Locations: []config.Location{{Path: "/", Root: root, Index: "index.html"}},
	})

	resp := h.Handle(getRequest("/", 8080))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != "<h1>home</h1>" {
		t.Errorf("body = %q", resp.Body)
	}
	if ct, _ := resp.Header.Get("Content-Type"); ct != "text/html" {
		t.Errorf("content-type = %q", ct)
	}
}

func TestHandleNotFound(t *testing.T) {
	h := newTestHandler(t, config.ServerConfig{
		Listen:    ":8080",
		Locations: []config.Location{{Path: "/", Root: t.TempDir()}},
	})
	resp := h.Handle(getRequest("/nope", 8080))
	if resp.StatusCode != 404 {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleUpload(t *testing.T) {
	store := t.TempDir()
	h := newTestHandler(t, config.ServerConfig{
		Listen:    ":8080",
		Locations: []config.Location{{Path: "/files", Root: t.TempDir(), UploadStore: store}},
	})

	req := getRequest("/files/x", 8080)
	req.Method = wire.MethodPOST
	req.Body = []byte("hello=world")
	resp := h.Handle(req)
	if resp.StatusCode != 201 {
		t.Fatalf("status = %d, body = %q", resp.StatusCode, resp.Body)
	}
	entries, _ := os.ReadDir(store)
	if len(entries) != 1 {
		t.Errorf("uploaded files = %d, want 1", len(entries))
	}
}

func TestHandleAttachesRequestID(t *testing.T) {
	h := newTestHandler(t, config.ServerConfig{
		Listen:    ":8080",
		Locations: []config.Location{{Path: "/", Root: t.TempDir()}},
	})
	req := getRequest("/", 8080)
	h.Handle(req)
	if id, ok := req.Header.Get("X-Request-Id"); !ok || len(id) != 36 {
		t.Errorf("X-Request-Id = %q, %v", id, ok)
	}
}

func TestHandleMetricsPath(t *testing.T) {
	h := newTestHandler(t, config.ServerConfig{
		Listen:    ":8080",
		Locations: []config.Location{{Path: "/", Root: t.TempDir()}},
	})
	h.MetricsPath = "/metrics"

	resp := h.Handle(getRequest("/metrics", 8080))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(resp.Body), "emberd_") {
		t.Errorf("metrics body missing emberd_ series: %.200s", resp.Body)
	}
}

func TestHandleParseErrorBecomesErrorResponse(t *testing.T) {
	h := newTestHandler(t, config.ServerConfig{
		Listen:    ":8080",
		Locations: []config.Location{{Path: "/", Root: t.TempDir()}},
	})
	req := getRequest("/", 8080)
	req.Err = &wire.ParseError{Code: 413, Message: "body exceeds limit"}
	resp := h.Handle(req)
	if resp.StatusCode != 413 {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}
