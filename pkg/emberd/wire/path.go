package wire

import "strings"

// NormalizePath resolves "." and ".." segments in an absolute path, never
// ascending above the root. The result has no "." or ".." segment and no
// empty segment except the root "/" itself, and is idempotent:
// NormalizePath(NormalizePath(p)) == NormalizePath(p).
func NormalizePath(raw string) (string, error) {
	if raw == "" {
		return "/", nil
	}
	if raw[0] != '/' {
		return "", errInvalidPathByte
	}
	parts := strings.Split(raw, "/")
	stack := make([]string, 0, len(parts))
	for _, seg := range parts {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	if len(stack) == 0 {
		return "/", nil
	}
	return "/" + strings.Join(stack, "/"), nil
}

// hasControlByte reports whether b contains a byte < 0x20 other than HT
// (0x09); such bytes are rejected in request paths.
func hasControlByte(b string) bool {
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 && b[i] != 0x09 {
			return true
		}
	}
	return false
}
