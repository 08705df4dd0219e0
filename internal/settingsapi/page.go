package settingsapi

import (
	"context"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/config"
	"github.com/vrsandeep/xwc-settings/internal/fields"
	"github.com/vrsandeep/xwc-settings/internal/models"
	"gitlab.com/tozd/go/errors"
)

// DefaultKeyMask builds the option name of a page section from the page id
// and the section id.
const DefaultKeyMask = "%s_settings_%s"

var ErrUnknownSection = errors.Base("unknown settings section")

// Section is one tab of a settings page.
type Section struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Priority int            `json:"priority"`
	Enabled  bool           `json:"enabled"`
	Fields   []models.Field `json:"fields"`
}

// FieldFormatter rewrites the fields of one section before they are used.
type FieldFormatter func([]models.Field) []models.Field

// Page is a settings page whose sections are stored one option per
// section.
type Page struct {
	ID           string
	Label        string
	KeyMask      string
	NestedFields []string
	Format       codec.Format
	Registry     *fields.Registry

	sections   []Section
	formatters map[string]FieldFormatter
}

// NewPage builds a page from its configuration. Sections are ordered by
// priority; equal priorities keep their configured order.
func NewPage(cfg config.PageConfig, reg *fields.Registry, format codec.Format) *Page {
	p := &Page{
		ID:           cfg.ID,
		Label:        cfg.Label,
		KeyMask:      cfg.KeyMask,
		NestedFields: cfg.NestedFields,
		Format:       format,
		Registry:     reg,
		formatters:   make(map[string]FieldFormatter),
	}
	for _, s := range cfg.Sections {
		p.sections = append(p.sections, Section{
			ID:       s.ID,
			Name:     s.Name,
			Priority: s.Priority,
			Enabled:  s.IsEnabled(),
			Fields:   s.Fields,
		})
	}
	sort.SliceStable(p.sections, func(i, j int) bool { return p.sections[i].Priority < p.sections[j].Priority })
	return p
}

// SetFormatter registers fn to rewrite the fields of section.
func (p *Page) SetFormatter(section string, fn FieldFormatter) {
	p.formatters[section] = fn
}

// Sections returns every section, formatted, in priority order.
func (p *Page) Sections() []Section {
	out := make([]Section, len(p.sections))
	for i, s := range p.sections {
		if fn, ok := p.formatters[s.ID]; ok {
			s.Fields = fn(append([]models.Field(nil), s.Fields...))
		}
		out[i] = s
	}
	return out
}

// Section returns the section with the given id.
func (p *Page) Section(id string) (Section, bool) {
	for _, s := range p.Sections() {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// OwnSections returns the id and name of each enabled section.
func (p *Page) OwnSections() []Section {
	var out []Section
	for _, s := range p.Sections() {
		if s.Enabled {
			out = append(out, Section{ID: s.ID, Name: s.Name, Priority: s.Priority, Enabled: true})
		}
	}
	return out
}

// KeyBase returns the option name a section is stored under. The unnamed
// section is stored as "core".
func (p *Page) KeyBase(section string) string {
	if section == "" {
		section = "core"
	}
	mask := p.KeyMask
	if mask == "" {
		mask = DefaultKeyMask
	}
	return fmt.Sprintf(mask, p.ID, section)
}

// FieldName returns the form name of f inside the option base. Fields
// with a sub group are stored in the option of that group.
func (p *Page) FieldName(f models.Field, base string) string {
	if f.Sub != "" {
		base = base + "--" + f.Sub
	}
	return base + "[" + f.ID + "]"
}

// FormatField fills in the field name and prefixes the id with the sub
// group.
func (p *Page) FormatField(f models.Field, base string) models.Field {
	if f.FieldName == "" {
		f.FieldName = p.FieldName(f, base)
	}
	if f.Sub != "" {
		f.ID = f.Sub + "_" + f.ID
	}
	return f
}

// Fields returns the formatted fields of section with their stored values.
func (p *Page) Fields(ctx context.Context, section string, r OptionReader) ([]models.Field, error) {
	s, ok := p.Section(section)
	if !ok {
		return nil, errors.Errorf("%w: %q", ErrUnknownSection, section)
	}

	base := p.KeyBase(section)
	cache := make(map[string]*codec.Array)
	out := make([]models.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		f = p.FormatField(f, base)
		if f.Value == nil && !isDisplayField(f) {
			v, err := p.storedValue(ctx, r, f, cache)
			if err != nil {
				return nil, err
			}
			f.Value = v
		}
		out = append(out, f)
	}
	return out, nil
}

func (p *Page) storedValue(ctx context.Context, r OptionReader, f models.Field, cache map[string]*codec.Array) (any, error) {
	def := f.Default
	if def == nil {
		def = ""
	}

	option, setting := splitFieldName(f.FieldName)
	if setting == "" {
		raw, found, err := r.GetOption(ctx, option)
		if err != nil || !found {
			return def, err
		}
		return p.Format.Decode(raw), nil
	}

	arr, ok := cache[option]
	if !ok {
		raw, found, err := r.GetOption(ctx, option)
		if err != nil {
			return nil, err
		}
		arr = decodeArray(p.Format, raw, found)
		cache[option] = arr
	}
	if v, ok := arr.Get(setting); ok {
		return v, nil
	}
	return def, nil
}

// IsNestedOption reports whether opt holds a list: its name ends in "[]",
// the raw value is a list, or its name or id matches a nested field
// pattern.
func (p *Page) IsNestedOption(opt models.Field, raw any) bool {
	name := opt.FieldName
	if name == "" {
		name = opt.ID
	}
	if strings.HasSuffix(name, "[]") {
		return true
	}
	switch raw.(type) {
	case []string, []any, *codec.Array:
		return true
	}

	trimmed := strings.TrimRight(name, "[]")
	id := strings.TrimRight(opt.ID, "[]")
	for _, pattern := range p.NestedFields {
		if matchField(pattern, trimmed) || matchField(pattern, id) {
			return true
		}
	}
	return false
}

func matchField(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// SanitizeNestedArray cleans every element of a nested option and drops
// empty ones. Other options keep value.
func (p *Page) SanitizeNestedArray(value any, opt models.Field, raw any) any {
	if !p.IsNestedOption(opt, raw) {
		return value
	}
	return nonEmpty(fields.Clean(fields.StringToArray(raw)).([]string))
}

// rawValue returns what the form submitted for a field name: a list for
// "name[]" inputs, the single value otherwise, nil when absent.
func rawValue(form url.Values, name string) any {
	if vs, ok := form[name+"[]"]; ok {
		return append([]string(nil), vs...)
	}
	if strings.HasSuffix(name, "[]") {
		if vs, ok := form[name]; ok {
			return append([]string(nil), vs...)
		}
		return nil
	}
	if vs, ok := form[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return nil
}

// Save sanitizes the submitted values of section and stores them, one
// option per field group. Settings already stored in those options and
// not part of the form are kept.
func (p *Page) Save(ctx context.Context, section string, form url.Values, s OptionStore) ([]string, error) {
	fieldsOf, err := p.Fields(ctx, section, s)
	if err != nil {
		return nil, err
	}
	log := zerolog.Ctx(ctx)

	updates := make(map[string]any)
	var order []string
	for _, f := range fieldsOf {
		if isDisplayField(f) || f.FormOnly {
			continue
		}
		raw := rawValue(form, f.FieldName)
		value, ok := sanitizeByType(f, raw)
		if !ok {
			continue
		}
		value = p.Registry.SanitizeOption(value, f, raw)
		value = p.SanitizeNestedArray(value, f, raw)

		option, setting := splitFieldName(f.FieldName)
		if _, seen := updates[option]; !seen {
			order = append(order, option)
		}
		if setting == "" {
			updates[option] = value
			continue
		}

		arr, isArray := updates[option].(*codec.Array)
		if !isArray {
			stored, found, err := s.GetOption(ctx, option)
			if err != nil {
				return nil, err
			}
			arr = decodeArray(p.Format, stored, found)
			updates[option] = arr
		}
		arr.Set(setting, value)
	}

	for _, option := range order {
		encoded, err := p.Format.Encode(updates[option])
		if err != nil {
			return nil, errors.Errorf("encoding option %q: %w", option, err)
		}
		if err := s.UpdateOption(ctx, option, encoded); err != nil {
			return nil, err
		}
		log.Debug().Str("option", option).Str("page", p.ID).Msg("Saved settings option")
	}
	return order, nil
}

// Render renders the custom field types of section. Fields of types the
// registry does not know are left to the host.
func (p *Page) Render(ctx context.Context, section string, r OptionReader) (template.HTML, error) {
	fieldsOf, err := p.Fields(ctx, section, r)
	if err != nil {
		return "", err
	}

	render := p.Registry.NewPage()
	var b strings.Builder
	for _, f := range fieldsOf {
		if _, known := p.Registry.Get(f.Type); !known {
			continue
		}
		out, err := render.Render(f)
		if err != nil {
			return "", err
		}
		b.WriteString(string(out))
	}
	footer, err := render.Footer()
	if err != nil {
		return "", err
	}
	b.WriteString(string(footer))
	return template.HTML(b.String()), nil
}
