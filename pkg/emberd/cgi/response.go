package cgi

import (
	"strconv"
	"strings"

	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// parseOutput splits a CGI subprocess's stdout into headers and body and
// assembles a Response. CRLFCRLF is the preferred separator, LFLF a
// fallback; a "Status:" line sets the response status, a "Location:"
// header without an explicit Status defaults to 302 Found; all other
// header lines flow through verbatim.
func parseOutput(raw []byte) (*wire.Response, error) {
	headerEnd, sepLen := findHeaderBoundary(raw)
	if headerEnd < 0 {
		return nil, errMalformedOutput
	}

	header := raw[:headerEnd]
	body := raw[headerEnd+sepLen:]

	resp := wire.NewResponse()
	resp.SetStatus(200)

	hasStatus := false
	for _, line := range splitLines(header) {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if rest, ok := cutPrefixFold(line, "Status:"); ok {
			code, reason := parseStatusLine(rest)
			resp.StatusCode = code
			if reason != "" {
				resp.StatusMessage = reason
			} else {
				resp.StatusMessage = wire.ReasonPhrase(code)
			}
			hasStatus = true
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		resp.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if !hasStatus && resp.Header.Has("Location") {
		resp.SetStatus(302)
	}

	resp.Body = body
	if len(body) > 0 && !resp.Header.Has("Content-Type") {
		resp.Header.Set("Content-Type", "text/html")
	}
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	return resp, nil
}

// findHeaderBoundary locates the header/body separator, preferring
// CRLFCRLF and falling back to LFLF, returning (-1, 0) if neither appears.
func findHeaderBoundary(raw []byte) (int, int) {
	if idx := indexOf(raw, "\r\n\r\n"); idx >= 0 {
		return idx, 4
	}
	if idx := indexOf(raw, "\n\n"); idx >= 0 {
		return idx, 2
	}
	return -1, 0
}

func indexOf(raw []byte, sep string) int {
	return strings.Index(string(raw), sep)
}

func splitLines(header []byte) []string {
	return strings.Split(string(header), "\n")
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(s[len(prefix):]), true
}

func parseStatusLine(rest string) (int, string) {
	fields := strings.SplitN(rest, " ", 2)
	code, err := strconv.Atoi(fields[0])
	if err != nil {
		return 500, ""
	}
	if len(fields) == 2 {
		return code, strings.TrimSpace(fields[1])
	}
	return code, ""
}
