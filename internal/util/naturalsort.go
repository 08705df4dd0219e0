// Package util holds small helpers shared by the store and the CLI.
package util

import (
	"sort"
	"strconv"
	"strings"
)

type chunk struct {
	text  string
	num   int
	isNum bool
}

// chunks splits s into runs of digits and runs of other characters.
func chunks(s string) []chunk {
	var out []chunk
	for len(s) > 0 {
		digits := s[0] >= '0' && s[0] <= '9'
		end := 1
		for end < len(s) && (s[end] >= '0' && s[end] <= '9') == digits {
			end++
		}
		part := s[:end]
		s = s[end:]

		if digits {
			if n, err := strconv.Atoi(part); err == nil {
				out = append(out, chunk{text: part, num: n, isNum: true})
				continue
			}
		}
		out = append(out, chunk{text: strings.ToLower(part)})
	}
	return out
}

// NaturalLess orders option names the way people read them, so that
// "row2" sorts before "row10". Letters compare without case.
func NaturalLess(a, b string) bool {
	ca, cb := chunks(a), chunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		switch {
		case x.isNum && !y.isNum:
			return true
		case !x.isNum && y.isNum:
			return false
		case x.isNum && x.num != y.num:
			return x.num < y.num
		case !x.isNum && x.text != y.text:
			return x.text < y.text
		}
	}
	if len(ca) != len(cb) {
		return len(ca) < len(cb)
	}
	return a < b
}

// SortNatural sorts names in place with NaturalLess.
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool { return NaturalLess(names[i], names[j]) })
}
