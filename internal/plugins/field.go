package plugins

import (
	"html/template"

	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/fields"
	"github.com/vrsandeep/xwc-settings/internal/models"
	"gitlab.com/tozd/go/errors"
)

// FieldPlugin is a field type implemented by a plugin script. The script
// exports name, type ("admin" or "settings"), render(field) and optionally
// sanitize(value, option, raw), css and js.
type FieldPlugin struct {
	runtime *PluginRuntime
	name    string
	kind    fields.Kind
	css     string
	js      string
}

// NewFieldPlugin wraps a loaded runtime as a field type.
func NewFieldPlugin(r *PluginRuntime) (*FieldPlugin, error) {
	name, _ := r.Export("name").(string)
	if name == "" {
		return nil, errors.Errorf("%w: %s exports no name", ErrNotFieldPlugin, r.Manifest().ID)
	}

	kind := fields.KindSettings
	if t, _ := r.Export("type").(string); t == string(fields.KindAdmin) {
		kind = fields.KindAdmin
	}
	css, _ := r.Export("css").(string)
	js, _ := r.Export("js").(string)

	return &FieldPlugin{runtime: r, name: name, kind: kind, css: css, js: js}, nil
}

func (p *FieldPlugin) Name() string      { return p.name }
func (p *FieldPlugin) Kind() fields.Kind { return p.kind }
func (p *FieldPlugin) CSS() string       { return p.css }
func (p *FieldPlugin) JS() string        { return p.js }

// Source names the plugin the field type comes from.
func (p *FieldPlugin) Source() string {
	return "plugin:" + p.runtime.Manifest().ID
}

// Render returns the markup produced by the script's render function.
func (p *FieldPlugin) Render(f models.Field) (template.HTML, error) {
	out, err := p.runtime.Call("render", f)
	if err != nil {
		return "", err
	}
	s, ok := out.(string)
	if !ok {
		return "", &PluginError{PluginID: p.runtime.Manifest().ID, Function: "render", Message: "render must return a string"}
	}
	// Plugins are installed by the site owner and are trusted to escape
	// their own output.
	return template.HTML(s), nil
}

// Sanitize calls the script's sanitize function. Without one, or when it
// fails, value is kept.
func (p *FieldPlugin) Sanitize(value any, opt models.Field, raw any) any {
	if !p.runtime.Has("sanitize") {
		return value
	}
	out, err := p.runtime.Call("sanitize", codec.Export(value), opt, codec.Export(raw))
	if err != nil {
		p.runtime.log.Warn().Err(err).Str("field", p.name).Msg("Plugin sanitize failed, keeping value")
		return value
	}
	return out
}
