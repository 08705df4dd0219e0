package fields

import (
	"bytes"
	"html/template"

	"github.com/vrsandeep/xwc-settings/internal/models"
)

// RowTemplateID is the id of the client side template used to add rows.
const RowTemplateID = "xwc-repeater-text"

// RepeaterText is a settings page field holding a list of text rows.
type RepeaterText struct{}

func NewRepeaterText() *RepeaterText { return &RepeaterText{} }

func (*RepeaterText) Name() string { return "repeater_text" }
func (*RepeaterText) Kind() Kind   { return KindSettings }

type repeaterView struct {
	ID          string
	Title       string
	TypeSlug    string
	Name        string
	Class       string
	Placeholder string
	Suffix      string
	Tooltip     template.HTML
	Description template.HTML
	Attrs       []template.HTMLAttr
	AttrText    string
	Rows        []string
}

func (r *RepeaterText) Render(f models.Field) (template.HTML, error) {
	name := f.FieldName
	if name == "" {
		name = f.ID
	}
	attrs := customAttributes(f)

	return execute("repeater_text", repeaterView{
		ID:          f.ID,
		Title:       f.Title,
		TypeSlug:    slug(f.Type),
		Name:        name + "[]",
		Class:       f.Class,
		Placeholder: f.Placeholder,
		Suffix:      f.Suffix,
		Tooltip:     tooltip(f),
		Description: description(f),
		Attrs:       attrs,
		AttrText:    joinAttrs(attrs),
		Rows:        StringToArray(f.Value),
	})
}

// Sanitize replaces the submitted value with the raw rows.
func (r *RepeaterText) Sanitize(_ any, _ models.Field, raw any) any {
	return StringToArray(raw)
}

func (r *RepeaterText) CSS() string {
	return `.repeater-rows .repeater-row {
    margin-bottom: 10px;
}
.repeater-row .repeater-remove-row {
    color: #d00;
    border-color: #d00;
}`
}

func (r *RepeaterText) JS() string {
	return `jQuery(function($){
    var rptField = {
        template: window.wp.template('` + RowTemplateID + `'),

        init: function() {
            $('.repeater-add-row').on('click', (e) => this.addRow(e));
            $('.repeater-rows').on('click', '.repeater-remove-row', (e) => this.removeRow(e));
        },

        addRow: function(e) {
            var {tmpl, ...data} = $(e.target).data();

            $('#'+tmpl).append(this.template(data));
        },

        removeRow: function(e) {
            $(e.target).closest('.row').remove();
        }
    };

    rptField.init();
});`
}

// FooterHTML writes the client side row template used by the JS.
func (r *RepeaterText) FooterHTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := rowViews.ExecuteTemplate(&buf, "repeater_text_row", RowTemplateID); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
