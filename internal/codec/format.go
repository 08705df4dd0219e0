package codec

import (
	"strings"

	"github.com/tidwall/gjson"
	"gitlab.com/tozd/go/errors"
)

// Format names the encoding used for option values in a store.
type Format string

const (
	// FormatSerialized is the host platform's native serialization.
	FormatSerialized Format = "serialized"
	// FormatJSON stores structured values as JSON documents.
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. An empty name selects FormatSerialized.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case "", FormatSerialized:
		return FormatSerialized, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", errors.Errorf("unknown value format %q", name)
}

// Decode turns a stored option value into a Go value.
func (f Format) Decode(s string) any {
	if f == FormatJSON {
		return DecodeJSON(s)
	}
	return MaybeUnserialize(s)
}

// Encode turns a Go value into its stored representation. Plain strings are
// stored verbatim, the way the host stores scalar options, unless they would
// be mistaken for an encoded value on the way back.
func (f Format) Encode(v any) (string, error) {
	if s, ok := v.(string); ok && !f.ambiguous(s) {
		return s, nil
	}
	if f == FormatJSON {
		return EncodeJSON(v)
	}
	return Serialize(v), nil
}

func (f Format) ambiguous(s string) bool {
	if f == FormatJSON {
		return gjson.Valid(strings.TrimSpace(s))
	}
	return IsSerialized(s)
}
