package settings

import "gitlab.com/tozd/go/errors"

var (
	// ErrNoGroups means the repository was built without a page or api option group.
	ErrNoGroups = errors.Base("either a settings page or a settings API option group is required")
	// ErrEmptyPath is returned by Set when the path has no segments.
	ErrEmptyPath = errors.Base("empty settings path")
	// ErrShapeConflict is returned by Set when the path runs through a leaf value.
	ErrShapeConflict = errors.Base("settings path runs through a leaf value")
)
