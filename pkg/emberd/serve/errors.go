package serve

import (
	"os"
	"strconv"

	"github.com/yourusername/emberd/pkg/emberd/mime"
	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// Error serves d's status/reason, preferring a configured error page for
// the status code (served from disk with its own MIME type) and falling
// back to a generated HTML document. A configured error page that is
// itself missing on disk falls through to the generated document rather
// than failing a second time.
func Error(d router.Decision) *wire.Response {
	status := d.Status
	if status == 0 {
		status = 500
	}
	reason := d.Reason
	if reason == "" {
		reason = wire.ReasonPhrase(status)
	}

	resp := wire.NewResponse()
	resp.SetStatus(status)
	if reason != "" {
		resp.StatusMessage = reason
	}
	if len(d.AllowMethods) > 0 {
		resp.Header.Set("Allow", joinMethods(d.AllowMethods))
	}

	if d.Server != nil {
		if page, ok := d.Server.ErrorPages[status]; ok {
			if data, err := os.ReadFile(page); err == nil {
				resp.Header.Set("Content-Type", mime.TypeByExtension(page))
				resp.Body = data
				return resp
			}
		}
	}

	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	resp.Body = []byte(defaultErrorBody(status, reason))
	return resp
}

func defaultErrorBody(status int, reason string) string {
	code := strconv.Itoa(status)
	return "<!DOCTYPE html><html><head><title>" + code + " " + reason +
		"</title></head><body><h1>Error " + code + ": " + reason +
		"</h1><p>The requested resource could not be served.</p></body></html>"
}

func joinMethods(methods []string) string {
	out := ""
	for i, m := range methods {
		if i > 0 {
			out += ", "
		}
		out += m
	}
	return out
}
