// Package serve implements the non-CGI response producers: static file
// delivery, autoindex directory listings, redirects, file uploads, and
// the default/configured error document. Each producer takes a
// router.Decision (already resolved against configuration) and returns a
// fully-formed wire.Response; none of them touch the network.
package serve

import (
	"io"
	"os"

	"github.com/yourusername/emberd/pkg/emberd/mime"
	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// StreamThreshold is the file size above which Static hands the open file
// to the connection for sendfile streaming instead of buffering the whole
// body in memory.
const StreamThreshold = 256 * 1024

// Static serves d.FsPath with a MIME-derived Content-Type. Small files are
// read into the response body; larger ones carry the open file handle so
// the reactor streams them with sendfile after the header block drains.
func Static(d router.Decision) *wire.Response {
	f, err := os.Open(d.FsPath)
	if err != nil {
		return Error(errDecision(404, "Not Found", d))
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return Error(errDecision(500, "Internal Server Error", d))
	}

	resp := wire.NewResponse()
	resp.SetStatus(200)
	resp.Header.Set("Content-Type", mime.TypeByExtension(d.FsPath))

	if info.Size() > StreamThreshold {
		resp.BodyFile = f
		resp.BodyFileSize = info.Size()
		return resp
	}

	data := make([]byte, info.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		f.Close()
		return Error(errDecision(500, "Internal Server Error", d))
	}
	f.Close()
	resp.Body = data
	return resp
}

func errDecision(status int, reason string, d router.Decision) router.Decision {
	d.Status = status
	d.Reason = reason
	return d
}
