package settings

import "strings"

// SplitPath splits a dot path into segments, dropping empty ones, so
// "a..b" and ".a.b." both address a -> b.
func SplitPath(path string) []string {
	parts := strings.Split(path, ".")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}
