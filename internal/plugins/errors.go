package plugins

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// ErrNotFieldPlugin is returned for plugins that do not provide a field
// type.
var ErrNotFieldPlugin = errors.Base("plugin is not a field plugin")

// PluginError represents an error raised by plugin code.
type PluginError struct {
	PluginID  string
	Function  string
	Message   string
	Cause     error
	IsTimeout bool
	IsPanic   bool
}

func (e *PluginError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plugin %s: %s: %s: %v", e.PluginID, e.Function, e.Message, e.Cause)
	}
	return fmt.Sprintf("plugin %s: %s: %s", e.PluginID, e.Function, e.Message)
}

func (e *PluginError) Unwrap() error {
	return e.Cause
}
