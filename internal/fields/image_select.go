package fields

import (
	"html/template"
	"strings"

	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/models"
)

const defaultSelectorWidth = "50px"

// ImageSelect is a settings API field that picks one option by clicking
// its image.
type ImageSelect struct {
	// ImageURL, when set, rewrites option image URLs before they are
	// rendered.
	ImageURL func(image, key string) string
}

func NewImageSelect() *ImageSelect { return &ImageSelect{} }

func (*ImageSelect) Name() string { return "image_select" }
func (*ImageSelect) Kind() Kind   { return KindAdmin }

type imageOptionView struct {
	Value   string
	Title   string
	Image   string
	Classes string
}

type imageSelectView struct {
	Key           string
	Title         string
	SelectorWidth string
	Selected      string
	Tooltip       template.HTML
	Description   template.HTML
	Options       []imageOptionView
}

// Render renders the field. f.FieldName is the form key and f.Value the
// stored option.
func (s *ImageSelect) Render(f models.Field) (template.HTML, error) {
	key := f.FieldName
	if key == "" {
		key = f.ID
	}
	width := f.SelectorWidth
	if width == "" {
		width = defaultSelectorWidth
	}
	selected := ""
	if f.Value != nil {
		selected = codec.KeyString(f.Value)
	}

	view := imageSelectView{
		Key:           key,
		Title:         f.Title,
		SelectorWidth: width,
		Selected:      selected,
		Tooltip:       tooltip(f),
		Description:   description(f),
	}
	for _, opt := range f.Options {
		classes := []string{"image-select-option"}
		if opt.Value == selected {
			classes = append(classes, "selected")
		}
		if opt.Disabled {
			classes = append(classes, "disabled")
		}
		image := opt.Image
		if s.ImageURL != nil {
			image = s.ImageURL(image, key)
		}
		view.Options = append(view.Options, imageOptionView{
			Value:   opt.Value,
			Title:   opt.Title,
			Image:   image,
			Classes: strings.Join(classes, " "),
		})
	}

	return execute("image_select", view)
}

func (s *ImageSelect) CSS() string {
	return `.image-select-field {
    display:flex;
    gap: 10px;
}

.image-select-field .image-select-option {
    height:auto;
    cursor: pointer;
    padding: 5px;
    background-color: #fff;
    border: 1px solid #ddd;
}

.image-select-field .image-select-option.selected {
    border: 1px solid #007cba;
}

.image-select-field .image-select-option.disabled {
    cursor: not-allowed;
    opacity: 0.9;
}

.image-select-option img {
    width: 100%;
    height: auto;
    display: block;
    margin: 0 auto;
}

.image-select-field .image-select-option.disabled img {
    filter: grayscale(0.75);
}`
}

func (s *ImageSelect) JS() string {
	return `jQuery(function($){
    $('.image-select-option').tipTip({
        'attribute': 'data-tip',
        'fadeIn': 50,
        'fadeOut': 50,
        'delay': 200,
        'keepAlive': true
    });

    $('.image-select-option').click(function() {
        if ($(this).hasClass('disabled')) {
            return;
        }

        $(this).siblings().removeClass('selected');
        $(this).addClass('selected');
        $(this).closest('.image-select-field').find('input').val($(this).attr('data-option'));
    });
});`
}
