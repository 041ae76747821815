package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a byte count that unmarshals from either a bare integer or a
// human-friendly suffixed form ("1m", "512k", "2g"). Suffixes are
// case-insensitive; an absent suffix is interpreted as a plain byte
// count.
type Size int64

// UnmarshalYAML implements goccy/go-yaml's BytesUnmarshaler so Size fields
// decode straight from the document without an intermediate string field.
func (s *Size) UnmarshalYAML(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	if raw == "" || raw == "0" {
		*s = 0
		return nil
	}
	parsed, err := ParseSize(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSize parses a byte count with an optional k/m/g suffix (binary
// multiples: 1k = 1024 bytes).
func ParseSize(raw string) (Size, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("config: empty size value")
	}
	mult := int64(1)
	suffix := raw[len(raw)-1]
	numeric := raw
	switch suffix {
	case 'k', 'K':
		mult = 1 << 10
		numeric = raw[:len(raw)-1]
	case 'm', 'M':
		mult = 1 << 20
		numeric = raw[:len(raw)-1]
	case 'g', 'G':
		mult = 1 << 30
		numeric = raw[:len(raw)-1]
	}
	n, err := strconv.ParseInt(strings.TrimSpace(numeric), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid size %q: %w", raw, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("config: negative size %q", raw)
	}
	return Size(n * mult), nil
}
