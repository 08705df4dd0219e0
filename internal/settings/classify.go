package settings

import (
	"regexp"
	"strings"

	"github.com/vrsandeep/xwc-settings/internal/codec"
)

// splitPattern matches a compound key that encodes two path segments
// joined by a dash, e.g. "shipping-methods" or "shipping_-_methods".
//
// The pattern cannot tell a nesting marker from a dash that is part of the
// setting name. Stored keys depend on it, so it stays as is until the
// stored format uses an explicit delimiter everywhere.
var splitPattern = regexp.MustCompile(`^([a-z]+)_?-_?([a-z_]+)$`)

// HasSubfields reports whether v is an array of named sub-settings rather
// than a value: a structured payload whose first key is not numeric. An
// empty array counts as a (still empty) group.
func HasSubfields(v any) bool {
	arr, ok := v.(*codec.Array)
	if !ok {
		return false
	}
	first, ok := arr.FirstKey()
	if !ok {
		return true
	}
	return !isNumeric(first)
}

// IsSplit reports whether key should be split into nested segments at the
// given nesting level. Top-level keys are never split.
func IsSplit(key string, level int) bool {
	return level > 0 && splitPattern.MatchString(key)
}

// SplitKey separates a compound key into its first segment and the
// remaining segments, which are re-joined with "_-_" so they can be tested
// again one level deeper.
func SplitKey(key string) (first, rest string) {
	parts := strings.Split(key, "-")
	for i, p := range parts {
		parts[i] = strings.Trim(p, "_")
	}
	return parts[0], strings.Join(parts[1:], "_-_")
}

func isNumeric(key any) bool {
	switch k := key.(type) {
	case int64:
		return true
	case string:
		return floatLiteral.MatchString(strings.TrimSpace(k))
	}
	return false
}
