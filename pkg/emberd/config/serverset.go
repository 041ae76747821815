package config

// ServerSet groups the servers sharing one listen address, so the reactor
// opens exactly one socket per address even when several server blocks
// declare virtual hosts on it (two `listen: ":8080"` blocks with different
// server_names must not double-bind).
type ServerSet struct {
	Listen  string
	Servers []*ServerConfig
}

// BuildServerSets groups f.Servers by their Listen address, preserving the
// declaration order of both the sets and the servers within each set (the
// router's default-server rule is "first server on that port").
func BuildServerSets(f *File) []ServerSet {
	order := make([]string, 0, len(f.Servers))
	byAddr := make(map[string]*ServerSet, len(f.Servers))
	for i := range f.Servers {
		s := &f.Servers[i]
		set, ok := byAddr[s.Listen]
		if !ok {
			order = append(order, s.Listen)
			set = &ServerSet{Listen: s.Listen}
			byAddr[s.Listen] = set
		}
		set.Servers = append(set.Servers, s)
	}
	sets := make([]ServerSet, 0, len(order))
	for _, addr := range order {
		sets = append(sets, *byAddr[addr])
	}
	return sets
}

// SelectServer implements the router's Host-based virtual-host lookup:
// exact match against server_names, falling back to the first server
// declared for the set.
func (s *ServerSet) SelectServer(host string) *ServerConfig {
	for _, srv := range s.Servers {
		for _, name := range srv.ServerNames {
			if name == host {
				return srv
			}
		}
	}
	if len(s.Servers) > 0 {
		return s.Servers[0]
	}
	return nil
}
