package utils

import (
	"strings"
)

// SanitizeFilename keeps only characters that are safe in a stored file
// name and blocks directory traversal.
func SanitizeFilename(filename string) string {
	name := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, filename)
	return strings.ReplaceAll(name, "..", "_")
}

// FileNameWithoutExt strips the directory and extension from a path.
func FileNameWithoutExt(path string) string {
	base := path[strings.LastIndex(path, "/")+1:]
	if idx := strings.LastIndex(base, "."); idx != -1 {
		base = base[:idx]
	}
	return base
}
