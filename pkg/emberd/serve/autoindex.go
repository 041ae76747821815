package serve

import (
	"html"
	"os"
	"sort"
	"strings"

	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// Autoindex generates an HTML directory listing for d.FsPath, one link
// per entry with href set to the request URI joined to the entry name.
// Entries are sorted and directories get a trailing slash.
func Autoindex(d router.Decision, req *wire.Request) *wire.Response {
	entries, err := os.ReadDir(d.FsPath)
	if err != nil {
		return Error(errDecision(404, "Not Found", d))
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	base := req.Path
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>Index of ")
	b.WriteString(html.EscapeString(req.Path))
	b.WriteString("</title></head><body><h1>Index of ")
	b.WriteString(html.EscapeString(req.Path))
	b.WriteString("</h1><ul>")
	if req.Path != "/" {
		b.WriteString(`<li><a href="../">../</a></li>`)
	}
	for _, name := range names {
		href := base + name
		b.WriteString(`<li><a href="`)
		b.WriteString(html.EscapeString(href))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(name))
		b.WriteString("</a></li>")
	}
	b.WriteString("</ul></body></html>")

	resp := wire.NewResponse()
	resp.SetStatus(200)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	resp.Body = []byte(b.String())
	return resp
}
