// Package router implements request routing: virtual-host selection,
// longest-prefix location matching, method and body-size gating,
// filesystem resolution, and dispatch to one of the Static, Autoindex,
// Redirect, Upload, Cgi or Error dispositions.
package router

import "github.com/yourusername/emberd/pkg/emberd/config"

// Kind is the tagged-variant discriminant of a Decision.
type Kind int

const (
	KindStatic Kind = iota
	KindAutoindex
	KindRedirect
	KindUpload
	KindCgi
	KindError
)

// Decision is the router's output: enough information for a response
// producer to act without consulting the configuration again.
type Decision struct {
	Kind Kind

	Status int
	Reason string

	FsPath    string
	MountURI  string
	RelPath   string
	Root      string
	Index     string
	Autoindex bool
	KeepAlive bool

	RedirectURL string

	CgiExt         string
	CgiInterpreter string

	UploadStore string

	// AllowMethods is set on a 405 Decision to populate the response's
	// Allow header.
	AllowMethods []string

	Server   *config.ServerConfig
	Location *config.Location
}

func errorDecision(status int, reason string, server *config.ServerConfig) Decision {
	return Decision{Kind: KindError, Status: status, Reason: reason, Server: server}
}
