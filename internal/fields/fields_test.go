package fields

import (
	"html/template"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/models"
)

func parse(t *testing.T, out template.HTML) *goquery.Document {
	t.Helper()
	// Table rows only parse inside a table.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + string(out) + "</table>"))
	require.NoError(t, err)
	return doc
}

// plainField is a field type without a sanitizer or assets.
type plainField struct{ name string }

func (p plainField) Name() string { return p.name }
func (p plainField) Kind() Kind   { return KindSettings }
func (p plainField) Render(f models.Field) (template.HTML, error) {
	return template.HTML("<p>" + template.HTMLEscapeString(f.ID) + "</p>"), nil
}

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	t.Run("List in registration order", func(t *testing.T) {
		assert.Equal(t, []models.FieldInfo{
			{Name: "repeater_text", Kind: "settings", Hook: "woocommerce_admin_field_repeater_text", Source: "builtin"},
			{Name: "image_select", Kind: "admin", Hook: "woocommerce_generate_image_select_html", Source: "builtin"},
		}, r.List())
	})

	t.Run("Duplicate registration", func(t *testing.T) {
		assert.ErrorIs(t, r.Register(NewRepeaterText()), ErrDuplicate)
		assert.Panics(t, func() { r.MustRegister(NewImageSelect()) })
	})

	t.Run("Get", func(t *testing.T) {
		f, ok := r.Get("image_select")
		require.True(t, ok)
		assert.Equal(t, KindAdmin, f.Kind())

		_, ok = r.Get("nonexistent")
		assert.False(t, ok)
	})
}

func TestSanitizeOption(t *testing.T) {
	r := NewDefaultRegistry()
	r.MustRegister(plainField{name: "plain"})

	got := r.SanitizeOption("ignored", models.Field{Type: "repeater_text"}, "a,b,,c")
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got = r.SanitizeOption("kept", models.Field{Type: "repeater_text", NoSanitize: true}, "a,b")
	assert.Equal(t, "kept", got)

	assert.Equal(t, "kept", r.SanitizeOption("kept", models.Field{Type: "text"}, "raw"))
	assert.Equal(t, "kept", r.SanitizeOption("kept", models.Field{Type: "plain"}, "raw"))
}

func TestPageFooter(t *testing.T) {
	r := NewDefaultRegistry()

	t.Run("Nothing rendered", func(t *testing.T) {
		footer, err := r.NewPage().Footer()
		require.NoError(t, err)
		assert.Empty(t, footer)
	})

	t.Run("Assets once per rendered type", func(t *testing.T) {
		page := r.NewPage()
		for _, id := range []string{"one", "two"} {
			_, err := page.Render(models.Field{ID: id, Type: "repeater_text"})
			require.NoError(t, err)
		}

		footer, err := page.Footer()
		require.NoError(t, err)
		doc := parse(t, footer)
		assert.Equal(t, 1, doc.Find("style#repeater_text-field-css").Length())
		assert.Equal(t, 1, doc.Find("script#repeater_text-field-js").Length())
		assert.Equal(t, 1, doc.Find("script#tmpl-xwc-repeater-text").Length())
		assert.Zero(t, doc.Find("style#image_select-field-css").Length())
		assert.Contains(t, string(footer), "{{ data.name }}")
	})

	t.Run("Unknown type", func(t *testing.T) {
		_, err := r.NewPage().Render(models.Field{ID: "x", Type: "nonexistent"})
		assert.ErrorIs(t, err, ErrUnknownField)
	})
}

func TestRepeaterTextRender(t *testing.T) {
	out, err := NewRepeaterText().Render(models.Field{
		ID:          "xwc_settings_core[emails]",
		Type:        "repeater_text",
		Title:       "Emails",
		FieldName:   "xwc_settings_core[emails]",
		Class:       "regular-text",
		Placeholder: "name@example.com",
		Description: "One address per row",
		Value:       codec.ArrayOf("a@example.com", "b@example.com"),
		CustomAttributes: map[string]string{
			"maxlength": "64",
			"readonly":  "",
		},
	})
	require.NoError(t, err)

	doc := parse(t, out)
	inputs := doc.Find(".repeater-row input")
	require.Equal(t, 2, inputs.Length())
	assert.Equal(t, "xwc_settings_core[emails][]", inputs.First().AttrOr("name", ""))
	assert.Equal(t, "a@example.com", inputs.First().AttrOr("value", ""))
	assert.Equal(t, "64", inputs.First().AttrOr("maxlength", ""))
	_, hasReadonly := inputs.First().Attr("readonly")
	assert.False(t, hasReadonly)

	add := doc.Find("button.repeater-add-row")
	assert.Equal(t, "xwc_settings_core[emails]", add.AttrOr("data-tmpl", ""))
	assert.Equal(t, `maxlength="64"`, add.AttrOr("data-custom_atts", ""))
	assert.Equal(t, "One address per row", doc.Find("p.description").First().Text())
	assert.True(t, doc.Find("td").HasClass("forminp-repeater_text"))
}

func TestImageSelectRender(t *testing.T) {
	field := NewImageSelect()
	field.ImageURL = func(image, key string) string { return "https://cdn.example.com/" + image }

	out, err := field.Render(models.Field{
		ID:        "style",
		Type:      "image_select",
		Title:     "Card style",
		FieldName: "woocommerce_cod_style",
		Value:     "dark",
		DescTip:   true,
		Options: []models.Choice{
			{Value: "light", Title: "Light", Image: "light.png"},
			{Value: "dark", Title: "Dark", Image: "dark.png"},
			{Value: "retro", Title: "Retro", Image: "retro.png", Disabled: true},
		},
		Description: "Pick a style",
	})
	require.NoError(t, err)

	doc := parse(t, out)
	opts := doc.Find(".image-select-option")
	require.Equal(t, 3, opts.Length())
	assert.False(t, opts.Eq(0).HasClass("selected"))
	assert.True(t, opts.Eq(1).HasClass("selected"))
	assert.True(t, opts.Eq(2).HasClass("disabled"))
	assert.Equal(t, "width: 50px; height: auto", opts.Eq(0).AttrOr("style", ""))
	assert.Equal(t, "https://cdn.example.com/light.png", opts.Eq(0).Find("img").AttrOr("src", ""))

	hidden := doc.Find("input[type=hidden]")
	assert.Equal(t, "woocommerce_cod_style", hidden.AttrOr("name", ""))
	assert.Equal(t, "dark", hidden.AttrOr("value", ""))
	assert.Equal(t, "Pick a style", doc.Find(".woocommerce-help-tip").AttrOr("data-tip", ""))
	assert.Zero(t, doc.Find("p.description").Length())
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Hello world", Clean("  <b>Hello</b>\n\t world "))
	assert.Equal(t, "text", Clean("<script>alert(1)</script>text"))
	assert.Equal(t, []string{"a", "b"}, Clean([]string{" a ", "<i>b</i>"}))
	assert.Equal(t, 5, Clean(5))

	arr := codec.NewArray()
	arr.Set("title", " <em>COD</em> ")
	cleaned := Clean(arr).(*codec.Array)
	v, _ := cleaned.Get("title")
	assert.Equal(t, "COD", v)
}

func TestStringToArray(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, StringToArray("a,b"))
	assert.Equal(t, []string{"a", "0"}, StringToArray("a,,0"))
	assert.Equal(t, []string{}, StringToArray(nil))
	assert.Equal(t, []string{}, StringToArray(""))
	assert.Equal(t, []string{"x", "y"}, StringToArray([]string{"x", "", "y"}))
	assert.Equal(t, []string{"1", "two"}, StringToArray([]any{int64(1), "two"}))
}
