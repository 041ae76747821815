// Package mime maps file extensions to content types for the static and
// error response producers. The stdlib mime package resolves types from
// the host's /etc/mime.types or the Windows registry, which makes static
// producer output depend on the machine it runs on; a small fixed table
// keeps responses deterministic across environments, which is why this
// package exists instead of a thin wrapper around "mime".
package mime

import "strings"

var table = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "application/javascript",
	".json":  "application/json",
	".txt":   "text/plain",
	".xml":   "application/xml",
	".csv":   "text/csv",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".gz":    "application/gzip",
	".tar":   "application/x-tar",
	".mp4":   "video/mp4",
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// DefaultContentType is used for extensions absent from the table.
const DefaultContentType = "application/octet-stream"

// TypeByExtension returns the content type for path's extension, falling
// back to DefaultContentType.
func TypeByExtension(path string) string {
	ext := extOf(path)
	if ct, ok := table[ext]; ok {
		return ct
	}
	return DefaultContentType
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	slash := strings.LastIndexByte(path, '/')
	if slash > i {
		return ""
	}
	return strings.ToLower(path[i:])
}
