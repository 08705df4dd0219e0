// Package settingsapi is the glue between stored options and the admin
// forms that edit them: settings pages made of sections, and settings API
// forms for gateways and integrations.
package settingsapi

import (
	"context"
	"strings"

	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/fields"
	"github.com/vrsandeep/xwc-settings/internal/models"
)

// OptionReader reads raw stored options.
type OptionReader interface {
	GetOption(ctx context.Context, name string) (string, bool, error)
}

// OptionWriter persists raw options.
type OptionWriter interface {
	UpdateOption(ctx context.Context, name, value string) error
}

// OptionStore reads and writes raw options.
type OptionStore interface {
	OptionReader
	OptionWriter
}

// displayTypes are field types that only structure the form.
var displayTypes = []string{"title", "sectionend", "tbody_open", "tbody_close", "table_end"}

func isDisplayField(f models.Field) bool {
	for _, t := range displayTypes {
		if f.Type == t {
			return true
		}
	}
	return false
}

// splitFieldName splits "option[key]" into its option and setting names.
// A name without brackets is an option of its own.
func splitFieldName(name string) (option, setting string) {
	open := strings.IndexByte(name, '[')
	if open < 0 {
		return name, ""
	}
	end := strings.IndexByte(name[open:], ']')
	if end < 0 {
		return name, ""
	}
	return name[:open], name[open+1 : open+end]
}

// sanitizeByType cleans a submitted raw value according to the field type.
// ok is false when nothing was submitted for a field that needs input.
func sanitizeByType(f models.Field, raw any) (value any, ok bool) {
	switch f.Type {
	case "checkbox":
		s, _ := raw.(string)
		if s == "1" || s == "yes" {
			return "yes", true
		}
		return "no", true
	}
	if raw == nil {
		return nil, false
	}
	switch f.Type {
	case "textarea":
		if s, isString := raw.(string); isString {
			return strings.TrimSpace(s), true
		}
		return fields.Clean(raw), true
	case "multiselect", "multi_select_countries":
		return nonEmpty(fields.Clean(fields.StringToArray(raw)).([]string)), true
	}
	return fields.Clean(raw), true
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeArray decodes a stored option into an array. Missing or scalar
// options give an empty array.
func decodeArray(format codec.Format, raw string, found bool) *codec.Array {
	if !found {
		return codec.NewArray()
	}
	if arr, ok := format.Decode(raw).(*codec.Array); ok {
		return arr
	}
	return codec.NewArray()
}
