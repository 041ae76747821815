package cgi

import (
	"strconv"
	"strings"

	"github.com/yourusername/emberd/pkg/emberd/router"
	"github.com/yourusername/emberd/pkg/emberd/wire"
)

// scriptSplit is a CGI Decision broken into its script and PATH_INFO
// pieces: the script's own URI and filesystem path, the PATH_INFO suffix
// (if any), and the fallback query string found on the filesystem path
// itself (the canonical query is always req.Query).
type scriptSplit struct {
	scriptPath string // filesystem path to the script, no query
	query      string // fallback query parsed off fsPath; req.Query wins
	scriptName string // SCRIPT_NAME: mountURI + script portion of relPath
	pathInfo   string // PATH_INFO, "" if none
}

func splitDecision(d router.Decision) scriptSplit {
	fsPath, fallbackQuery := splitFsPathQuery(d.FsPath)

	scriptName := d.MountURI
	rel := d.RelPath
	if rel != "" {
		cut := len(rel)
		if d.CgiExt != "" {
			if idx := strings.LastIndex(rel, d.CgiExt); idx >= 0 {
				cut = idx + len(d.CgiExt)
			}
		}
		scriptName = joinURL(scriptName, rel[:cut])
	}
	if scriptName == "" {
		scriptName = "/"
	}

	pathInfo := pathInfoOf(rel, d.CgiExt)
	return scriptSplit{
		scriptPath: strings.TrimSuffix(fsPath, pathInfo),
		query:      fallbackQuery,
		scriptName: scriptName,
		pathInfo:   pathInfo,
	}
}

// splitFsPathQuery splits a "?"-bearing fsPath into its script path and
// trailing query. The router never actually produces a "?" in FsPath
// (query lives on Request.Query), but the split keeps a router change
// that does carry one from breaking the script path.
func splitFsPathQuery(fsPath string) (scriptPath, query string) {
	if idx := strings.IndexByte(fsPath, '?'); idx >= 0 {
		return fsPath[:idx], fsPath[idx+1:]
	}
	return fsPath, ""
}

// pathInfoOf finds the last occurrence of ext in relPath and returns
// everything after it, leading-slash-normalized.
func pathInfoOf(relPath, ext string) string {
	if ext == "" {
		return ""
	}
	idx := strings.LastIndex(relPath, ext)
	if idx < 0 {
		return ""
	}
	start := idx + len(ext)
	if start >= len(relPath) {
		return ""
	}
	info := relPath[start:]
	if info[0] != '/' {
		info = "/" + info
	}
	return info
}

func joinURL(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	aSlash := a[len(a)-1] == '/'
	bSlash := b[0] == '/'
	switch {
	case aSlash && bSlash:
		return a + b[1:]
	case !aSlash && !bSlash:
		return a + "/" + b
	default:
		return a + b
	}
}

// buildEnv constructs the CGI/1.1 environment per RFC 3875 §4.1. Every
// request header becomes an HTTP_<NAME> variable, the same generic
// mapping the stdlib net/http/cgi host performs.
func buildEnv(d router.Decision, req *wire.Request) []string {
	split := splitDecision(d)
	query := req.Query
	if query == "" {
		query = split.query
	}

	requestURI := split.scriptName + split.pathInfo
	if query != "" {
		requestURI += "?" + query
	}

	serverName, serverPort := serverNameAndPort(req, d)

	env := make([]string, 0, 24+req.Header.Len())
	env = append(env,
		"GATEWAY_INTERFACE=CGI/1.1",
		"SERVER_PROTOCOL=HTTP/1.1",
		"SERVER_SOFTWARE=emberd",
		"SERVER_NAME="+serverName,
		"SERVER_PORT="+serverPort,
		"REQUEST_METHOD="+req.Method,
		"SCRIPT_NAME="+split.scriptName,
		"SCRIPT_FILENAME="+split.scriptPath,
		"REQUEST_URI="+requestURI,
		"QUERY_STRING="+query,
		"PATH_INFO="+split.pathInfo,
	)
	if split.pathInfo != "" {
		root := strings.TrimSuffix(d.Root, "/")
		env = append(env, "PATH_TRANSLATED="+root+split.pathInfo)
	}
	remoteAddr := req.RemoteAddr
	if idx := strings.LastIndexByte(remoteAddr, ':'); idx >= 0 {
		remoteAddr = remoteAddr[:idx]
	}
	env = append(env, "REMOTE_ADDR="+remoteAddr)

	if cl, ok := req.Header.Get("Content-Length"); ok {
		env = append(env, "CONTENT_LENGTH="+cl)
	} else if req.Method == wire.MethodPOST {
		env = append(env, "CONTENT_LENGTH="+strconv.Itoa(len(req.Body)))
	}
	if ct, ok := req.Header.Get("Content-Type"); ok {
		env = append(env, "CONTENT_TYPE="+ct)
	}
	env = append(env, "PATH=/usr/bin:/bin")
	// REDIRECT_STATUS is required by php-cgi, which refuses to run
	// without it as a guard against being invoked directly over the
	// network.
	env = append(env, "REDIRECT_STATUS=200")

	req.Header.VisitAll(func(name, value string) bool {
		env = append(env, "HTTP_"+headerEnvName(name)+"="+value)
		return true
	})

	return env
}

func serverNameAndPort(req *wire.Request, d router.Decision) (string, string) {
	host, _ := req.Header.Get("Host")
	name := req.HostOnly()
	port := strconv.Itoa(req.ListenPort)
	if name == "" {
		name = host
	}
	if name == "" {
		name = "localhost"
	}
	if port == "0" {
		port = "80"
	}
	return name, port
}

// headerEnvName upper-cases a header name and turns '-' into '_', the
// RFC 3875 HTTP_* transform (shared convention with the stdlib
// net/http/cgi host's upperCaseAndUnderscore).
func headerEnvName(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
			b[i] = c - 32
		case c == '-':
			b[i] = '_'
		}
	}
	return string(b)
}
