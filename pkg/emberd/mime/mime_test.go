package mime

import "testing"

func TestTypeByExtension(t *testing.T) {
	tests := []struct{ path, want string }{
		{"/var/www/index.html", "text/html"},
		{"/var/www/style.CSS", "text/css"},
		{"/a/b/photo.jpeg", "image/jpeg"},
		{"/a/b/data.json", "application/json"},
		{"/a/b/archive.tar.gz", "application/gzip"},
		{"/a/b/noext", DefaultContentType},
		{"/a.dir/noext", DefaultContentType},
		{"/a/b/strange.xyz", DefaultContentType},
	}
	for _, tt := range tests {
		if got := TypeByExtension(tt.path); got != tt.want {
			t.Errorf("TypeByExtension(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
