// Package config loads and validates the static server configuration:
// listeners, virtual hosts (ServerConfig) and their Locations. The
// configuration is a YAML document loaded with goccy/go-yaml and checked
// with go-playground/validator plus the cross-field rules in Check.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Location is one `location` block inside a server: a URI prefix and the
// disposition rules that apply to requests under it.
type Location struct {
	Path              string   `yaml:"path" validate:"required"`
	Root              string   `yaml:"root"`
	Index             string   `yaml:"index"`
	Autoindex         bool     `yaml:"autoindex"`
	Methods           []string `yaml:"methods"`
	ClientMaxBodySize Size     `yaml:"client_max_body_size"`
	CGIExtension      string   `yaml:"cgi_extension"`
	CGIInterpreter    string   `yaml:"cgi_interpreter"`
	UploadStore       string   `yaml:"upload_store"`
	Redirect          string   `yaml:"redirect"`
	RedirectStatus    int      `yaml:"redirect_status"`
}

// ServerConfig is one `server` block: a virtual host bound to a port,
// selected by Host header among servers sharing that port.
type ServerConfig struct {
	Listen            string         `yaml:"listen" validate:"required"`
	ServerNames       []string       `yaml:"server_names"`
	Root              string         `yaml:"root"`
	Index             string         `yaml:"index"`
	ClientMaxBodySize Size           `yaml:"client_max_body_size"`
	ErrorPages        map[int]string `yaml:"error_pages"`
	Locations         []Location     `yaml:"locations" validate:"required,dive"`
}

// File is the root of a configuration document: a set of server blocks,
// each possibly sharing a listen port with others distinguished by
// server_names (virtual hosting).
type File struct {
	Servers []ServerConfig `yaml:"servers" validate:"required,min=1,dive"`

	MetricsPath string `yaml:"metrics_path"`
	LogLevel    string `yaml:"log_level"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file at path, validating it
// against struct tags and the additional cross-field checks in Check.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("config: validate %q: %w", path, err)
	}
	if err := Check(&f); err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return &f, nil
}

// Check applies validation the struct tags can't express: default
// client_max_body_size, server-level root/index inheritance, and location
// path uniqueness (declaration order matters for the router's
// longest-prefix tiebreak, so duplicates are rejected rather than
// silently shadowed).
func Check(f *File) error {
	for si := range f.Servers {
		s := &f.Servers[si]
		if s.ClientMaxBodySize == 0 {
			s.ClientMaxBodySize = DefaultMaxBodySize
		}
		seen := make(map[string]bool, len(s.Locations))
		for li := range s.Locations {
			loc := &s.Locations[li]
			if seen[loc.Path] {
				return fmt.Errorf("server %q: duplicate location path %q", s.Listen, loc.Path)
			}
			seen[loc.Path] = true
			if loc.Root == "" {
				loc.Root = s.Root
			}
			if loc.Root == "" && loc.Redirect == "" {
				return fmt.Errorf("server %q: location %q has no root (neither its own nor the server's)", s.Listen, loc.Path)
			}
			if loc.Index == "" {
				loc.Index = s.Index
			}
			if len(loc.Methods) == 0 {
				loc.Methods = DefaultMethods
			}
		}
	}
	return nil
}

// DefaultMaxBodySize is used when a server declares no client_max_body_size.
const DefaultMaxBodySize Size = 1 << 20

// DefaultMethods is used when a location declares no methods.
var DefaultMethods = []string{"GET", "POST", "DELETE"}
