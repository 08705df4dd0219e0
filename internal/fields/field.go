// Package fields holds the custom admin form field types: how they are
// rendered, how their submitted values are sanitized, and the CSS and JS
// each one adds to the page footer.
package fields

import (
	"fmt"
	"html/template"

	"github.com/vrsandeep/xwc-settings/internal/models"
)

// Kind tells which host form API a field plugs into.
type Kind string

const (
	// KindAdmin fields render inside settings API forms (gateways, integrations).
	KindAdmin Kind = "admin"
	// KindSettings fields render on settings pages.
	KindSettings Kind = "settings"
)

// Field is a custom field type.
type Field interface {
	Name() string
	Kind() Kind
	Render(f models.Field) (template.HTML, error)
}

// Sanitizer is implemented by fields that clean their submitted value.
type Sanitizer interface {
	Sanitize(value any, opt models.Field, raw any) any
}

// Styler is implemented by fields that need CSS on the page.
type Styler interface {
	CSS() string
}

// Scripter is implemented by fields that need JS on the page.
type Scripter interface {
	JS() string
}

// FooterWriter is implemented by fields that print extra markup after their
// CSS and JS, such as client side row templates.
type FooterWriter interface {
	FooterHTML() (template.HTML, error)
}

// Sourced is implemented by fields that do not ship with the application.
type Sourced interface {
	Source() string
}

// HookName returns the host hook a field type answers to.
func HookName(f Field) string {
	if f.Kind() == KindAdmin {
		return fmt.Sprintf("woocommerce_generate_%s_html", f.Name())
	}
	return fmt.Sprintf("woocommerce_admin_field_%s", f.Name())
}

// Info describes f for listings.
func Info(f Field) models.FieldInfo {
	source := "builtin"
	if s, ok := f.(Sourced); ok {
		source = s.Source()
	}
	return models.FieldInfo{
		Name:   f.Name(),
		Kind:   string(f.Kind()),
		Hook:   HookName(f),
		Source: source,
	}
}
