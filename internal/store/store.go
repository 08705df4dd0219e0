// Package store reads and writes the host's options table. It is the data
// access layer behind the settings repository and the settings forms.
package store

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/vrsandeep/xwc-settings/internal/models"
	"github.com/vrsandeep/xwc-settings/internal/util"
	"gitlab.com/tozd/go/errors"
)

// ErrBadPattern is returned by ListOptions for a malformed glob.
var ErrBadPattern = errors.Base("invalid option name pattern")

// Options is the set of operations every options backend provides.
type Options interface {
	LoadRows(ctx context.Context, prefix string) ([]models.RawRow, error)
	GetOption(ctx context.Context, name string) (string, bool, error)
	UpdateOption(ctx context.Context, name, value string) error
	DeleteOption(ctx context.Context, name string) error
	ListOptions(ctx context.Context, pattern string) ([]models.Option, error)
}

var _ Options = (*Store)(nil)

// Store provides all functions to interact with the SQLite options table.
type Store struct {
	db *sql.DB
}

// New creates a new Store instance.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// LoadRows returns every option whose name starts with prefix, with the
// prefix removed from the section.
func (s *Store) LoadRows(ctx context.Context, prefix string) ([]models.RawRow, error) {
	query := `SELECT option_name, option_value FROM options WHERE option_name LIKE ? ESCAPE '\' ORDER BY option_name`
	rows, err := s.db.QueryContext(ctx, query, likePrefix(prefix))
	if err != nil {
		return nil, errors.Errorf("querying options: %w", err)
	}
	defer rows.Close()

	return scanRows(prefix, func(name, value *string) (bool, error) {
		if !rows.Next() {
			return false, rows.Err()
		}
		return true, rows.Scan(name, value)
	})
}

// GetOption returns the raw value stored under name.
func (s *Store) GetOption(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT option_value FROM options WHERE option_name = ?", name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Errorf("reading option %q: %w", name, err)
	}
	return value, true, nil
}

// UpdateOption creates or replaces the option called name.
func (s *Store) UpdateOption(ctx context.Context, name, value string) error {
	query := `INSERT INTO options (option_name, option_value) VALUES (?, ?)
              ON CONFLICT(option_name) DO UPDATE SET option_value = excluded.option_value`
	if _, err := s.db.ExecContext(ctx, query, name, value); err != nil {
		return errors.Errorf("writing option %q: %w", name, err)
	}
	return nil
}

// DeleteOption removes the option called name. Deleting a missing option
// is not an error.
func (s *Store) DeleteOption(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM options WHERE option_name = ?", name); err != nil {
		return errors.Errorf("deleting option %q: %w", name, err)
	}
	return nil
}

// ListOptions returns the options whose name matches the glob pattern,
// sorted by name. An empty pattern lists everything.
func (s *Store) ListOptions(ctx context.Context, pattern string) ([]models.Option, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("%w: %q", ErrBadPattern, pattern)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT option_id, option_name, option_value, autoload FROM options")
	if err != nil {
		return nil, errors.Errorf("listing options: %w", err)
	}
	defer rows.Close()

	var options []models.Option
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.Name, &o.Value, &o.Autoload); err != nil {
			return nil, err
		}
		if matchName(pattern, o.Name) {
			options = append(options, o)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortOptions(options)
	return options, nil
}

// likePrefix escapes the LIKE wildcards in prefix and appends "%".
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

// scanRows collects name/value pairs from next into raw rows. LIKE is not
// case sensitive in every backend, so names are checked against prefix
// again before it is stripped.
func scanRows(prefix string, next func(name, value *string) (bool, error)) ([]models.RawRow, error) {
	var out []models.RawRow
	for {
		var name, value string
		ok, err := next(&name, &value)
		if err != nil {
			return nil, errors.Errorf("scanning options: %w", err)
		}
		if !ok {
			break
		}
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		out = append(out, models.RawRow{Section: strings.TrimPrefix(name, prefix), Options: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Section < out[j].Section })
	return out, nil
}

// sortOptions orders options by name, numbers inside names compared by
// value.
func sortOptions(options []models.Option) {
	sort.SliceStable(options, func(i, j int) bool { return util.NaturalLess(options[i].Name, options[j].Name) })
}

func matchName(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, _ := doublestar.Match(pattern, name)
	return ok
}
