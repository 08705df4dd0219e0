package fields

import (
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/vrsandeep/xwc-settings/internal/models"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrDuplicate    = errors.Base("field type already registered")
	ErrUnknownField = errors.Base("unknown field type")
)

// Registry holds the field types known to the application.
type Registry struct {
	mu     sync.RWMutex
	fields map[string]Field
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fields: make(map[string]Field)}
}

// NewDefaultRegistry returns a registry holding the built-in field types.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NewRepeaterText())
	r.MustRegister(NewImageSelect())
	return r
}

// Register adds a field type. Names must be unique.
func (r *Registry) Register(f Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := f.Name()
	if _, exists := r.fields[name]; exists {
		return errors.Errorf("%w: %q", ErrDuplicate, name)
	}
	r.fields[name] = f
	r.order = append(r.order, name)
	return nil
}

// MustRegister is Register for setup code, where a duplicate is a
// programming error.
func (r *Registry) MustRegister(f Field) {
	if err := r.Register(f); err != nil {
		panic(fmt.Sprintf("field with name '%s' is already registered", f.Name()))
	}
}

// Get returns a field type by name.
func (r *Registry) Get(name string) (Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fields[name]
	return f, ok
}

// List describes the registered field types in registration order.
func (r *Registry) List() []models.FieldInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.FieldInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Info(r.fields[name]))
	}
	return out
}

// SanitizeOption runs value through the sanitizer of the field type named
// by opt.Type. Options marked NoSanitize and types without a sanitizer
// return value unchanged.
func (r *Registry) SanitizeOption(value any, opt models.Field, raw any) any {
	if opt.NoSanitize {
		return value
	}
	f, ok := r.Get(opt.Type)
	if !ok {
		return value
	}
	s, ok := f.(Sanitizer)
	if !ok {
		return value
	}
	return s.Sanitize(value, opt, raw)
}

// NewPage starts a render session for one admin page.
func (r *Registry) NewPage() *Page {
	return &Page{reg: r, rendered: make(map[string]bool)}
}

// Page tracks which field types were rendered so their assets are written
// once to the footer.
type Page struct {
	reg      *Registry
	mu       sync.Mutex
	rendered map[string]bool
}

// Render renders f with the field type named by f.Type.
func (p *Page) Render(f models.Field) (template.HTML, error) {
	field, ok := p.reg.Get(f.Type)
	if !ok {
		return "", errors.Errorf("%w: %q", ErrUnknownField, f.Type)
	}
	out, err := field.Render(f)
	if err != nil {
		return "", errors.Errorf("rendering %s field %q: %w", f.Type, f.ID, err)
	}

	p.mu.Lock()
	p.rendered[f.Type] = true
	p.mu.Unlock()
	return out, nil
}

// Rendered reports whether a field of the named type was rendered.
func (p *Page) Rendered(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rendered[name]
}

// Footer returns the CSS and JS of every rendered field type, in
// registration order.
func (p *Page) Footer() (template.HTML, error) {
	p.reg.mu.RLock()
	order := append([]string(nil), p.reg.order...)
	p.reg.mu.RUnlock()

	var b strings.Builder
	for _, name := range order {
		if !p.Rendered(name) {
			continue
		}
		f, _ := p.reg.Get(name)
		if s, ok := f.(Styler); ok && s.CSS() != "" {
			fmt.Fprintf(&b, `<style id="%s-field-css">%s</style>`, template.HTMLEscapeString(name), s.CSS())
		}
		if s, ok := f.(Scripter); ok && s.JS() != "" {
			fmt.Fprintf(&b, `<script id="%s-field-js">%s</script>`, template.HTMLEscapeString(name), s.JS())
		}
		if w, ok := f.(FooterWriter); ok {
			extra, err := w.FooterHTML()
			if err != nil {
				return "", errors.Errorf("writing %s footer: %w", name, err)
			}
			b.WriteString(string(extra))
		}
	}
	return template.HTML(b.String()), nil
}
