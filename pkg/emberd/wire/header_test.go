package wire

import "testing"

func TestHeaderCaseInsensitiveLookup(t *testing.T) {
	var h Header
	h.Set("Content-Type", "text/html")
	for _, name := range []string{"content-type", "CONTENT-TYPE", "Content-Type", "cOnTeNt-TyPe"} {
		if v, ok := h.Get(name); !ok || v != "text/html" {
			t.Errorf("Get(%q) = %q, %v", name, v, ok)
		}
	}
}

func TestHeaderSetReplaces(t *testing.T) {
	var h Header
	h.Set("X-A", "1")
	h.Set("x-a", "2")
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
	if v, _ := h.Get("X-A"); v != "2" {
		t.Errorf("value = %q, want 2", v)
	}
}

func TestHeaderDel(t *testing.T) {
	var h Header
	h.Set("X-A", "1")
	h.Set("X-B", "2")
	h.Del("x-a")
	if h.Has("X-A") {
		t.Error("X-A still present after Del")
	}
	count := 0
	h.VisitAll(func(name, value string) bool {
		count++
		if name != "X-B" {
			t.Errorf("unexpected header %q", name)
		}
		return true
	})
	if count != 1 {
		t.Errorf("visited %d headers, want 1", count)
	}
}

func TestHeaderVisitOrder(t *testing.T) {
	var h Header
	names := []string{"Alpha", "Beta", "Gamma"}
	for i, n := range names {
		h.Set(n, string(rune('0'+i)))
	}
	i := 0
	h.VisitAll(func(name, value string) bool {
		if name != names[i] {
			t.Errorf("position %d: got %q, want %q", i, name, names[i])
		}
		i++
		return true
	})
}

func TestCanonicalHeaderName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"content-type", "Content-Type"},
		{"content-TYPE", "Content-Type"},
		{"HOST", "Host"},
		{"x-request-id", "X-Request-Id"},
		{"accept", "Accept"},
	}
	for _, tt := range tests {
		got := CanonicalHeaderName(tt.in)
		if got != tt.want {
			t.Errorf("CanonicalHeaderName(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := CanonicalHeaderName(got); again != got {
			t.Errorf("not idempotent: %q -> %q", got, again)
		}
	}
}
