package serve

import (
	"html"

	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// Redirect builds a 3xx response from d's status/reason/redirect URL,
// with a small HTML body for clients that don't follow the Location
// header automatically.
func Redirect(d router.Decision) *wire.Response {
	status := d.Status
	if status == 0 {
		status = 302
	}
	resp := wire.NewResponse()
	resp.SetStatus(status)
	resp.Header.Set("Location", d.RedirectURL)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")

	escaped := html.EscapeString(d.RedirectURL)
	resp.Body = []byte("<!DOCTYPE html><html><head><title>" + resp.StatusMessage +
		"</title></head><body><h1>Redirection</h1><p>You are being redirected to " +
		`<a href="` + escaped + `">` + escaped + "</a></p></body></html>")
	return resp
}
