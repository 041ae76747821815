package serve

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// invalidFilenameChars are rejected in a client-supplied upload filename.
const invalidFilenameChars = `<>:"|?*`

// Upload writes req.Body to d.UploadStore under a generated or
// client-supplied filename. A missing store is 403, an empty body is 400,
// and a write failure is 500.
func Upload(d router.Decision, req *wire.Request) *wire.Response {
	info, err := os.Stat(d.UploadStore)
	if err != nil || !info.IsDir() {
		return plainText(403, "Upload directory is not configured or does not exist.\n")
	}
	if len(req.Body) == 0 {
		return plainText(400, "Request body is empty.\n")
	}

	name := requestedFilename(req)
	if name == "" {
		name = generateUploadFilename()
	} else if invalidFilename(name) {
		return plainText(400, "Supplied filename is invalid.\n")
	}

	filePath := filepath.Join(d.UploadStore, name)
	if err := os.WriteFile(filePath, req.Body, 0o644); err != nil {
		return plainText(500, "Failed to write data to file.\n")
	}

	resp := wire.NewResponse()
	resp.SetStatus(201)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	resp.Body = []byte("<!DOCTYPE html><html><head><title>201 Created</title></head>" +
		"<body><h1>File Uploaded Successfully</h1><p>File has been uploaded to: " +
		filePath + "</p></body></html>")
	return resp
}

// requestedFilename returns the client-supplied "filename" query parameter,
// if any, unvalidated.
func requestedFilename(req *wire.Request) string {
	for _, pair := range strings.Split(req.Query, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if ok && k == "filename" {
			return v
		}
	}
	return ""
}

func invalidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return true
	}
	if strings.ContainsAny(name, "/\\") {
		return true
	}
	return strings.ContainsAny(name, invalidFilenameChars)
}

// generateUploadFilename builds a unique name from a "_upload" prefix, a
// monotonic microsecond timestamp, and a ".bin" extension.
func generateUploadFilename() string {
	return "_upload" + strconv.FormatInt(time.Now().UnixMicro(), 10) + ".bin"
}

func plainText(status int, body string) *wire.Response {
	resp := wire.NewResponse()
	resp.SetStatus(status)
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte(body)
	return resp
}
