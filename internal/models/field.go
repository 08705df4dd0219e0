package models

// Field describes one admin-form field. It doubles as the option
// descriptor handed to sanitizers when a form is saved.
type Field struct {
	ID               string            `json:"id" mapstructure:"id"`
	Type             string            `json:"type" mapstructure:"type"`
	Title            string            `json:"title,omitempty" mapstructure:"title"`
	Description      string            `json:"description,omitempty" mapstructure:"description"`
	DescTip          bool              `json:"desc_tip,omitempty" mapstructure:"desc_tip"`
	Default          any               `json:"default,omitempty" mapstructure:"default"`
	Value            any               `json:"value,omitempty" mapstructure:"value"`
	FieldName        string            `json:"field_name,omitempty" mapstructure:"field_name"`
	Sub              string            `json:"sub,omitempty" mapstructure:"sub"`
	Class            string            `json:"class,omitempty" mapstructure:"class"`
	CSS              string            `json:"css,omitempty" mapstructure:"css"`
	Placeholder      string            `json:"placeholder,omitempty" mapstructure:"placeholder"`
	Suffix           string            `json:"suffix,omitempty" mapstructure:"suffix"`
	Disabled         bool              `json:"disabled,omitempty" mapstructure:"disabled"`
	FormOnly         bool              `json:"form_only,omitempty" mapstructure:"form_only"`
	NoSanitize       bool              `json:"nosanitize,omitempty" mapstructure:"nosanitize"`
	CustomAttributes map[string]string `json:"custom_attributes,omitempty" mapstructure:"custom_attributes"`
	Options          []Choice          `json:"options,omitempty" mapstructure:"options"`
	SelectorWidth    string            `json:"selector_width,omitempty" mapstructure:"selector_width"`
}

// Choice is one selectable option of a field.
type Choice struct {
	Value    string `json:"value" mapstructure:"value"`
	Title    string `json:"title" mapstructure:"title"`
	Image    string `json:"image,omitempty" mapstructure:"image"`
	Disabled bool   `json:"disabled,omitempty" mapstructure:"disabled"`
}

// FieldInfo is the public description of a registered field type.
type FieldInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Hook   string `json:"hook"`
	Source string `json:"source"`
}
