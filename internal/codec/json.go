package codec

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// DecodeJSON decodes JSON objects and arrays into ordered Arrays and JSON
// scalars into their Go equivalents. Anything that is not valid JSON is
// returned unchanged, so plain text values such as "yes" stay text.
func DecodeJSON(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || !gjson.Valid(trimmed) {
		return s
	}
	return fromResult(gjson.Parse(trimmed))
}

func fromResult(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return r.Str
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if n, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return n
			}
		}
		return r.Num
	}

	arr := NewArray()
	if r.IsArray() {
		r.ForEach(func(_, v gjson.Result) bool {
			arr.Append(fromResult(v))
			return true
		})
		return arr
	}
	r.ForEach(func(k, v gjson.Result) bool {
		arr.Set(k.Str, fromResult(v))
		return true
	})
	return arr
}

// EncodeJSON encodes v as JSON, keeping Array order.
func EncodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
