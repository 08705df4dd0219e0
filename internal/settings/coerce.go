package settings

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	truthy = map[string]bool{"1": true, "yes": true, "true": true, "on": true}
	falsy  = map[string]bool{"0": true, "no": true, "false": true, "off": true}

	intLiteral   = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatLiteral = regexp.MustCompile(`^[+-]?([0-9]+\.[0-9]*|\.[0-9]+|[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// ParseOption coerces a stored field value into a boolean, integer or
// float when its text says so. Structured values pass through untouched,
// nil becomes the empty string and unrecognised text is returned exactly
// as stored.
func ParseOption(v any) any {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return v
	}

	l := strings.ToLower(strings.TrimSpace(s))
	switch {
	case truthy[l]:
		return true
	case falsy[l]:
		return false
	case intLiteral.MatchString(l):
		if n, err := strconv.ParseInt(l, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(l, 64); err == nil {
			return f
		}
	case floatLiteral.MatchString(l):
		if f, err := strconv.ParseFloat(l, 64); err == nil {
			return f
		}
	}
	return s
}
