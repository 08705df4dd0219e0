package fields

import (
	"bytes"
	"html"
	"html/template"
	"sort"
	"strings"
	texttemplate "text/template"

	"github.com/vrsandeep/xwc-settings/internal/assets"
	"github.com/vrsandeep/xwc-settings/internal/models"
)

var views = template.Must(template.ParseFS(assets.TemplatesFS,
	"templates/repeater_text.html",
	"templates/image_select.html",
))

// Client side row templates carry their own {{ }} placeholders.
var rowViews = texttemplate.Must(texttemplate.New("rows").Delims("[[", "]]").
	ParseFS(assets.TemplatesFS, "templates/repeater_text_row.html"))

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// tooltip returns the help tip shown next to a field title.
func tooltip(f models.Field) template.HTML {
	if !f.DescTip || f.Description == "" {
		return ""
	}
	return template.HTML(`<span class="woocommerce-help-tip" data-tip="` + html.EscapeString(f.Description) + `"></span>`)
}

// description returns the description shown under a field.
func description(f models.Field) template.HTML {
	if f.DescTip || f.Description == "" {
		return ""
	}
	return template.HTML(`<p class="description">` + html.EscapeString(f.Description) + `</p>`)
}

// customAttributes renders the non-empty custom attributes of f, sorted
// by name.
func customAttributes(f models.Field) []template.HTMLAttr {
	names := make([]string, 0, len(f.CustomAttributes))
	for name, value := range f.CustomAttributes {
		if value != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]template.HTMLAttr, 0, len(names))
	for _, name := range names {
		out = append(out, template.HTMLAttr(html.EscapeString(name)+`="`+html.EscapeString(f.CustomAttributes[name])+`"`))
	}
	return out
}

func joinAttrs(attrs []template.HTMLAttr) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = string(a)
	}
	return strings.Join(parts, " ")
}

// slug lowercases s and replaces anything but letters, digits, "-" and
// "_" with dashes.
func slug(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, s)
}
