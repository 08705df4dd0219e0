package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vrsandeep/xwc-settings/internal/codec"
	"github.com/vrsandeep/xwc-settings/internal/models"
	"gitlab.com/tozd/go/errors"
)

// Option name formats for the two kinds of option groups.
const (
	PageFormat = "%s_settings_"
	APIFormat  = "%s_api_settings_"
)

// RowLoader reads the raw rows whose option name starts with prefix. The
// returned sections have the prefix removed.
type RowLoader interface {
	LoadRows(ctx context.Context, prefix string) ([]models.RawRow, error)
}

// Config is the public contract of a configuration repository.
type Config interface {
	All() Branch
	Get(path string, def any) any
	Lookup(path string) (Node, bool)
	Has(path string) bool
	Set(path string, value any) error
	Reload(ctx context.Context) error
}

// Groups names the option groups a repository reads. Page is the id of a
// settings page, API the plugin id of a settings API form.
type Groups struct {
	Page string
	API  string
}

// Prefixes returns the option name prefixes to load, page group first.
func (g Groups) Prefixes() []string {
	var out []string
	if g.Page != "" {
		out = append(out, fmt.Sprintf(PageFormat, g.Page))
	}
	if g.API != "" {
		out = append(out, fmt.Sprintf(APIFormat, g.API))
	}
	return out
}

// Option configures a Repository.
type Option func(*Repository)

// WithDefaults lays defaults under the loaded tree. Loaded values win.
func WithDefaults(defaults Branch) Option {
	return func(r *Repository) { r.defaults = defaults }
}

// WithLogger sets the logger used to report skipped rows.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Repository) { r.log = log }
}

// WithFormat selects how stored option values are decoded.
func WithFormat(f codec.Format) Option {
	return func(r *Repository) { r.format = f }
}

// Repository holds the configuration tree built from the options store.
// It is not safe for concurrent use; see Synchronized.
type Repository struct {
	loader   RowLoader
	groups   Groups
	defaults Branch
	format   codec.Format
	log      zerolog.Logger
	tree     Branch
}

// New builds a repository and loads its tree.
func New(ctx context.Context, loader RowLoader, groups Groups, opts ...Option) (*Repository, error) {
	if groups.Page == "" && groups.API == "" {
		return nil, ErrNoGroups
	}
	r := &Repository{
		loader: loader,
		groups: groups,
		format: codec.FormatSerialized,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rebuilds the tree from the store. The current tree is kept when
// loading fails.
func (r *Repository) Reload(ctx context.Context) error {
	tree, err := r.build(ctx)
	if err != nil {
		return err
	}
	r.tree = tree
	return nil
}

func (r *Repository) build(ctx context.Context) (Branch, error) {
	b := &builder{decode: r.format.Decode, log: r.log}
	tree := Branch{}
	for _, prefix := range r.groups.Prefixes() {
		rows, err := r.loader.LoadRows(ctx, prefix)
		if err != nil {
			return nil, errors.Errorf("loading settings %q: %w", prefix, err)
		}
		r.log.Debug().Str("prefix", prefix).Int("rows", len(rows)).Msg("Loaded settings rows")
		b.fold(tree, rows)
	}
	if r.defaults != nil {
		underlay(tree, r.defaults)
	}
	return tree, nil
}

// All returns the whole tree. Callers must treat it as read-only.
func (r *Repository) All() Branch {
	return r.tree
}

// Lookup returns the node at path and whether it exists.
func (r *Repository) Lookup(path string) (Node, bool) {
	return r.tree.walk(SplitPath(path))
}

// Get returns the value at path: the leaf value, or the Branch for a
// group. def is returned when nothing is stored there.
func (r *Repository) Get(path string, def any) any {
	n, ok := r.Lookup(path)
	if !ok {
		return def
	}
	if leaf, isLeaf := n.(Leaf); isLeaf {
		return leaf.Value
	}
	return n
}

// Has reports whether anything is stored at path, including a nil value.
func (r *Repository) Has(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// Set stores value at path, creating missing groups on the way and
// replacing whatever the last segment held. A Branch is copied so later
// changes on either side stay apart, other Nodes are stored as given and
// any other value becomes a Leaf.
func (r *Repository) Set(path string, value any) error {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return ErrEmptyPath
	}

	cur := r.tree
	for i, seg := range segs[:len(segs)-1] {
		switch next := cur[seg].(type) {
		case Branch:
			cur = next
		case nil:
			child := Branch{}
			cur[seg] = child
			cur = child
		default:
			return errors.Errorf("%w: %q", ErrShapeConflict, strings.Join(segs[:i+1], "."))
		}
	}

	last := segs[len(segs)-1]
	switch n := value.(type) {
	case Branch:
		cur[last] = n.Clone()
		return nil
	case Node:
		cur[last] = n
		return nil
	}
	cur[last] = Leaf{Value: value}
	return nil
}

// Setting reads a single named setting, turning the host's "yes"/"no"
// strings into booleans.
func Setting(c Config, name string) any {
	v := c.Get(name, nil)
	switch v {
	case "yes":
		return true
	case "no":
		return false
	}
	return v
}
