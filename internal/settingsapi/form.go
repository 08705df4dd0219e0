package settingsapi

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/fields"
	"github.com/vrsandeep/xwc-settings/internal/models"
	"gitlab.com/tozd/go/errors"
)

// FormKind selects the admin screen a form lives on.
type FormKind string

const (
	KindGateway     FormKind = "gateway"
	KindIntegration FormKind = "integration"
)

// AdminVars locate the admin screen of a form.
type AdminVars struct {
	Page string `json:"page"`
	Tab  string `json:"tab"`
	REST string `json:"rest"`
}

var adminVars = map[FormKind]AdminVars{
	KindGateway:     {Page: "wc-settings", Tab: "checkout", REST: "/payment_gateways"},
	KindIntegration: {Page: "wc-settings", Tab: "integration", REST: "/integrations"},
}

var ErrUnknownKind = errors.Base("unknown form kind")

// Form is a settings API form: every field of the form is stored in a
// single option.
type Form struct {
	PluginID    string
	ID          string
	Kind        FormKind
	Title       string
	Description string
	Format      codec.Format
	Registry    *fields.Registry

	fields   []models.Field
	settings *codec.Array
}

// NewForm builds a form. Gateways get the enabled, title and description
// fields ahead of their own.
func NewForm(kind FormKind, pluginID, id string, own []models.Field) (*Form, error) {
	if _, ok := adminVars[kind]; !ok {
		return nil, errors.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return &Form{
		PluginID: pluginID,
		ID:       id,
		Kind:     kind,
		Format:   codec.FormatSerialized,
		Registry: fields.NewDefaultRegistry(),
		fields:   own,
		settings: codec.NewArray(),
	}, nil
}

// OptionKey is the option the form is stored under.
func (f *Form) OptionKey() string {
	return fmt.Sprintf("%s_api_settings_%s", strings.TrimRight(f.PluginID, "_"), f.ID)
}

// FieldKey is the form input name of the field stored under key.
func (f *Form) FieldKey(key string) string {
	return fmt.Sprintf("%s_%s_%s", strings.TrimRight(f.PluginID, "_"), f.ID, key)
}

// FormFields returns the base fields followed by the form's own.
func (f *Form) FormFields() []models.Field {
	var out []models.Field
	if f.Kind == KindGateway {
		out = append(out, f.gatewayFields()...)
	}
	return append(out, f.fields...)
}

func (f *Form) gatewayFields() []models.Field {
	return []models.Field{
		{
			ID:      "enabled",
			Title:   "Enable/Disable",
			Type:    "checkbox",
			Default: "no",
			// The host shows this as the checkbox label.
			Description: fmt.Sprintf("Enable %s Payment gateway", f.Title),
		},
		{
			ID:          "title",
			Title:       "Title",
			Type:        "safe_text",
			Description: "This controls the title which the user sees during checkout.",
			Default:     f.Title,
			DescTip:     true,
		},
		{
			ID:          "description",
			Title:       "Description",
			Type:        "textarea",
			Description: "Payment method description that the customer will see on your checkout.",
			Default:     f.Description,
			DescTip:     true,
		},
	}
}

// isOptionField reports whether a field is stored: display fields and
// form-only fields are not.
func isOptionField(fd models.Field) bool {
	for _, t := range displayTypes {
		if fd.Type == t {
			return false
		}
	}
	return !fd.FormOnly
}

// Defaults returns the default of every stored field, in form order.
func (f *Form) Defaults() *codec.Array {
	out := codec.NewArray()
	for _, fd := range f.FormFields() {
		if !isOptionField(fd) {
			continue
		}
		def := fd.Default
		if def == nil {
			def = ""
		}
		out.Set(fd.ID, def)
	}
	return out
}

// Load reads the stored settings, falling back to the defaults when the
// option does not exist yet.
func (f *Form) Load(ctx context.Context, r OptionReader) error {
	raw, found, err := r.GetOption(ctx, f.OptionKey())
	if err != nil {
		return err
	}
	if !found {
		f.settings = f.Defaults()
		return nil
	}
	arr, ok := f.Format.Decode(raw).(*codec.Array)
	if !ok {
		zerolog.Ctx(ctx).Warn().Str("option", f.OptionKey()).Msg("Stored form settings are not an array, using defaults")
		arr = f.Defaults()
	}
	f.settings = arr
	return nil
}

// Option returns the stored value of key, or the field default when it
// was never saved.
func (f *Form) Option(key string) any {
	if v, ok := f.settings.Get(key); ok {
		return v
	}
	for _, fd := range f.FormFields() {
		if fd.ID == key && fd.Default != nil {
			return fd.Default
		}
	}
	return ""
}

// Setting returns a setting with "yes" and "no" turned into booleans.
// Unknown names give nil.
func (f *Form) Setting(name string) any {
	v, ok := f.settings.Get(name)
	if !ok {
		return nil
	}
	switch v {
	case "yes":
		return true
	case "no":
		return false
	}
	return v
}

// Settings returns the loaded settings.
func (f *Form) Settings() *codec.Array {
	return f.settings
}

// Enabled reports whether a gateway is switched on.
func (f *Form) Enabled() bool {
	return f.Setting("enabled") == true
}

// AdminVars locates the admin screen of the form.
func (f *Form) AdminVars() AdminVars {
	return adminVars[f.Kind]
}

// IsAccessingSettings reports whether r targets the settings screen of
// this form, either through the REST API or the admin page.
func (f *Form) IsAccessingSettings(r *http.Request) bool {
	vars := f.AdminVars()
	q := r.URL.Query()

	if route := q.Get("rest_route"); route != "" {
		return strings.Contains(route, vars.REST)
	}
	if strings.HasPrefix(r.URL.Path, "/wp-json/") {
		return strings.Contains(r.URL.Path, vars.REST)
	}
	if strings.Contains(r.URL.Path, "/wp-admin/") {
		return q.Get("page") == vars.Page && q.Get("tab") == vars.Tab && q.Get("section") == f.ID
	}
	return false
}

// Render renders the fields of custom types with their stored values.
func (f *Form) Render() (template.HTML, error) {
	page := f.Registry.NewPage()
	var b strings.Builder
	for _, fd := range f.FormFields() {
		if _, known := f.Registry.Get(fd.Type); !known {
			continue
		}
		fd.FieldName = f.FieldKey(fd.ID)
		fd.Value = f.Option(fd.ID)
		out, err := page.Render(fd)
		if err != nil {
			return "", err
		}
		b.WriteString(string(out))
	}
	footer, err := page.Footer()
	if err != nil {
		return "", err
	}
	b.WriteString(string(footer))
	return template.HTML(b.String()), nil
}

// ProcessAdminOptions sanitizes the submitted form and stores every
// setting in the form's option.
func (f *Form) ProcessAdminOptions(ctx context.Context, form url.Values, w OptionWriter) error {
	for _, fd := range f.FormFields() {
		if !isOptionField(fd) {
			continue
		}
		key := f.FieldKey(fd.ID)
		raw := rawValue(form, key)
		value, ok := sanitizeByType(fd, raw)
		if !ok {
			value = f.Option(fd.ID)
		}
		f.settings.Set(fd.ID, f.Registry.SanitizeOption(value, fd, raw))
	}

	encoded, err := f.Format.Encode(f.settings)
	if err != nil {
		return errors.Errorf("encoding form %q: %w", f.ID, err)
	}
	if err := w.UpdateOption(ctx, f.OptionKey(), encoded); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("form", f.ID).Str("option", f.OptionKey()).Msg("Saved settings form")
	return nil
}
