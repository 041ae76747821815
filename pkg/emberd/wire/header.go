// Package wire implements the incremental HTTP/1.1 request parser and the
// Request/Response wire types the rest of emberd is built around.
package wire

import "strings"

// Header stores HTTP header fields with case-insensitive lookup and
// canonical-cased iteration. Entries are keyed by their lower-cased name
// with the canonical form kept alongside for serialization, so they
// survive across the parser's partial feeds and iterate in insertion
// order.
type Header struct {
	entries map[string]entry
	order   []string // lower-cased keys, insertion order, for stable output
}

type entry struct {
	canonical string
	value     string
}

// NewHeader returns an empty Header ready for use.
func NewHeader() Header {
	return Header{}
}

func (h *Header) ensure() {
	if h.entries == nil {
		h.entries = make(map[string]entry, 8)
	}
}

// Set stores name/value, replacing any existing value for that name
// (case-insensitive). The request parser rejects a repeated
// Content-Length or Transfer-Encoding before calling Set; any other
// repeated header keeps its last value, since Set enforces single-value
// semantics.
func (h *Header) Set(name, value string) {
	h.ensure()
	key := strings.ToLower(name)
	if _, exists := h.entries[key]; !exists {
		h.order = append(h.order, key)
	}
	h.entries[key] = entry{canonical: CanonicalHeaderName(name), value: value}
}

// Get returns the value stored for name (case-insensitive lookup), or ""
// with ok=false if absent.
func (h *Header) Get(name string) (string, bool) {
	if h.entries == nil {
		return "", false
	}
	e, ok := h.entries[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return e.value, true
}

// GetDefault returns the stored value or def if the header is absent.
func (h *Header) GetDefault(name, def string) string {
	if v, ok := h.Get(name); ok {
		return v
	}
	return def
}

// Has reports whether name is present (case-insensitive).
func (h *Header) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Del removes name (case-insensitive), if present.
func (h *Header) Del(name string) {
	if h.entries == nil {
		return
	}
	key := strings.ToLower(name)
	if _, ok := h.entries[key]; !ok {
		return
	}
	delete(h.entries, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Len reports the number of distinct header names stored.
func (h *Header) Len() int {
	return len(h.entries)
}

// Reset clears all headers for reuse when a Header is pooled.
func (h *Header) Reset() {
	for k := range h.entries {
		delete(h.entries, k)
	}
	h.order = h.order[:0]
}

// VisitAll calls visitor once per header in insertion order with the
// canonical-cased name. Iteration stops early if visitor returns false.
func (h *Header) VisitAll(visitor func(name, value string) bool) {
	for _, key := range h.order {
		e := h.entries[key]
		if !visitor(e.canonical, e.value) {
			return
		}
	}
}

// Clone returns a deep copy safe to retain past the lifetime of h.
func (h *Header) Clone() Header {
	clone := Header{}
	h.VisitAll(func(name, value string) bool {
		clone.Set(name, value)
		return true
	})
	return clone
}

// CanonicalHeaderName title-cases a header name at each '-' boundary, the
// same convention net/http uses ("content-type" -> "Content-Type").
func CanonicalHeaderName(name string) string {
	b := []byte(name)
	upper := true
	for i, c := range b {
		switch {
		case upper && c >= 'a' && c <= 'z':
			b[i] = c - 32
			upper = false
		case !upper && c >= 'A' && c <= 'Z':
			b[i] = c + 32
			upper = false
		default:
			upper = c == '-'
		}
	}
	return string(b)
}
