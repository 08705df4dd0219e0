package models

// RawRow is one persisted setting group as read from the options table.
// Section is the option name with the group prefix stripped; Options is
// the stored value before decoding.
type RawRow struct {
	Section string `json:"section"`
	Options string `json:"options"`
}

// Option is a single row of the options table.
type Option struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	Autoload bool   `json:"autoload"`
}
