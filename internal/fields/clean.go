package fields

import (
	"fmt"
	"io"
	"strings"

	"github.com/vrsandeep/xwc-settings/internal/codec"
	"golang.org/x/net/html"
)

// Clean sanitizes submitted text the way the host does: tags are stripped,
// whitespace runs collapse to a single space and the result is trimmed.
// Arrays are cleaned element by element; other scalars pass through.
func Clean(v any) any {
	switch t := v.(type) {
	case string:
		return cleanText(t)
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = cleanText(s)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = Clean(s)
		}
		return out
	case *codec.Array:
		out := codec.NewArray()
		for _, p := range t.Pairs() {
			out.Set(p.Key, Clean(p.Value))
		}
		return out
	}
	return v
}

func cleanText(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return ""
			}
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}
		}
	}
}

// isRawTextTag reports whether the current tag's content is dropped along
// with the tag.
func isRawTextTag(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// StringToArray turns a comma separated string into a list. Lists are
// returned as strings element by element. Empty elements are dropped.
func StringToArray(v any) []string {
	var parts []string
	switch t := v.(type) {
	case nil:
		return []string{}
	case []string:
		parts = t
	case []any:
		for _, s := range t {
			parts = append(parts, codec.KeyString(s))
		}
	case *codec.Array:
		for _, s := range t.Values() {
			parts = append(parts, codec.KeyString(s))
		}
	case string:
		parts = strings.Split(t, ",")
	default:
		parts = []string{fmt.Sprint(t)}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
