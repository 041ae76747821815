package router

import (
	"os"
	"strings"

	"github.com/yourusername/emberd/pkg/emberd/config"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// Router resolves a completed Request against the configured ServerSets
// into a Decision: virtual-host selection, longest-prefix location match,
// method and body-size gating, filesystem disposition. It never touches
// the network or a CGI process itself; the serve and cgi packages carry
// out what it decides.
type Router struct {
	sets map[int]*config.ServerSet // by listen port
}

// New indexes sets by listen port for Route's per-listener lookup.
func New(sets []config.ServerSet) *Router {
	r := &Router{sets: make(map[int]*config.ServerSet)}
	for i := range sets {
		port := portOf(sets[i].Listen)
		s := sets[i]
		r.sets[port] = &s
	}
	return r
}

func portOf(listen string) int {
	if idx := strings.LastIndexByte(listen, ':'); idx >= 0 {
		port := 0
		for _, c := range listen[idx+1:] {
			if c < '0' || c > '9' {
				return port
			}
			port = port*10 + int(c-'0')
		}
		return port
	}
	return 0
}

// Route resolves req to a Decision.
func (r *Router) Route(req *wire.Request) Decision {
	if req.Err != nil {
		return errorDecision(req.Err.Code, req.Err.Message, nil)
	}

	set, ok := r.sets[req.ListenPort]
	if !ok || set == nil {
		return errorDecision(500, "no server configured for this listener", nil)
	}
	server := set.SelectServer(req.HostOnly())
	if server == nil {
		return errorDecision(500, "no server configured for this listener", nil)
	}

	loc := matchLocation(server, req.Path)

	if !methodAllowed(loc, req.Method) {
		d := errorDecision(405, "method not allowed", server)
		d.AllowMethods = allowedMethods(loc)
		return d
	}

	limit := loc.ClientMaxBodySize
	if limit == 0 {
		limit = server.ClientMaxBodySize
	}
	if limit > 0 && int64(len(req.Body)) > int64(limit) {
		return errorDecision(413, "request body too large", server)
	}

	mountURI := loc.Path
	relPath := strings.TrimPrefix(req.Path, mountURI)
	if relPath == "" || relPath[0] != '/' {
		relPath = "/" + relPath
	}

	// relPath is re-normalized independently of the request path so a
	// resolved filesystem path can never climb out of the location root;
	// the root itself is then prefixed verbatim (it may be relative).
	normRel, err := wire.NormalizePath(relPath)
	if err != nil {
		return errorDecision(400, "path escapes location root", server)
	}
	root := strings.TrimSuffix(loc.Root, "/")
	fsPath := root + normRel
	if normRel == "/" {
		fsPath = root
	}

	base := Decision{
		MountURI: mountURI,
		RelPath:  relPath,
		Root:     loc.Root,
		Index:    loc.Index,
		FsPath:   fsPath,
		Server:   server,
		Location: loc,
	}

	if loc.CGIExtension != "" && cgiMatches(relPath, loc.CGIExtension) {
		base.Kind = KindCgi
		base.CgiExt = loc.CGIExtension
		base.CgiInterpreter = loc.CGIInterpreter
		base.Status = 200
		return base
	}

	if loc.UploadStore != "" && req.Method == wire.MethodPOST {
		base.Kind = KindUpload
		base.UploadStore = loc.UploadStore
		return base
	}

	if loc.Redirect != "" {
		base.Kind = KindRedirect
		base.RedirectURL = loc.Redirect
		base.Status = loc.RedirectStatus
		if base.Status == 0 {
			base.Status = 302
		}
		return base
	}

	return dispositionFromFilesystem(base, loc, server)
}

func matchLocation(server *config.ServerConfig, path string) *config.Location {
	var best *config.Location
	bestLen := -1
	for i := range server.Locations {
		loc := &server.Locations[i]
		if !isPrefixAligned(loc.Path, path) {
			continue
		}
		if len(loc.Path) > bestLen {
			best = loc
			bestLen = len(loc.Path)
		}
	}
	if best != nil {
		return best
	}
	return &config.Location{Path: "/", Root: ".", Methods: config.DefaultMethods}
}

// isPrefixAligned reports whether prefix is a `/`-segment-aligned prefix
// of path, so "/abc" never matches against location "/a".
func isPrefixAligned(prefix, path string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if prefix == "/" {
		return true
	}
	if len(path) == len(prefix) {
		return true
	}
	return path[len(prefix)] == '/'
}

func methodAllowed(loc *config.Location, method string) bool {
	for _, m := range allowedMethods(loc) {
		if m == method {
			return true
		}
	}
	return false
}

func allowedMethods(loc *config.Location) []string {
	if len(loc.Methods) == 0 {
		return config.DefaultMethods
	}
	return loc.Methods
}

// cgiMatches reports whether relPath ends with ext, or contains ext
// followed by '/' (a PATH_INFO suffix).
func cgiMatches(relPath, ext string) bool {
	idx := strings.LastIndex(relPath, ext)
	if idx < 0 {
		return false
	}
	after := idx + len(ext)
	return after == len(relPath) || relPath[after] == '/'
}

func dispositionFromFilesystem(base Decision, loc *config.Location, server *config.ServerConfig) Decision {
	info, err := os.Stat(base.FsPath)
	if err != nil {
		return errorDecision(404, "not found", server)
	}
	if info.IsDir() {
		if loc.Index != "" {
			indexPath := strings.TrimSuffix(base.FsPath, "/") + "/" + loc.Index
			if fi, err := os.Stat(indexPath); err == nil && !fi.IsDir() {
				base.Kind = KindStatic
				base.FsPath = indexPath
				base.Status = 200
				return base
			}
		}
		if loc.Autoindex {
			base.Kind = KindAutoindex
			base.Autoindex = true
			base.Status = 200
			return base
		}
		return errorDecision(403, "directory listing not permitted", server)
	}
	base.Kind = KindStatic
	base.Status = 200
	return base
}
