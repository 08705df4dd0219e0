package store

import (
	"context"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vrsandeep/xwc-settings/internal/models"
	"gitlab.com/tozd/go/errors"
)

var _ Options = (*PostgresStore)(nil)

// PostgresStore is the options backend for hosts that keep their options
// table in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool to url and verifies it.
func NewPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) LoadRows(ctx context.Context, prefix string) ([]models.RawRow, error) {
	query := `SELECT option_name, option_value FROM options WHERE option_name LIKE $1 ESCAPE '\' ORDER BY option_name`
	rows, err := s.pool.Query(ctx, query, likePrefix(prefix))
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

func (s *PostgresStore) GetOption(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, "SELECT option_value FROM options WHERE option_name = $1", name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Errorf("reading option %q: %w", name, err)
	}
	return value, true, nil
}

func (s *PostgresStore) UpdateOption(ctx context.Context, name, value string) error {
	query := `INSERT INTO options (option_name, option_value) VALUES ($1, $2)
              ON CONFLICT (option_name) DO UPDATE SET option_value = EXCLUDED.option_value`
	if _, err := s.pool.Exec(ctx, query, name, value); err != nil {
		return errors.Errorf("writing option %q: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) DeleteOption(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM options WHERE option_name = $1", name); err != nil {
		return errors.Errorf("deleting option %q: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) ListOptions(ctx context.Context, pattern string) ([]models.Option, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("%w: %q", ErrBadPattern, pattern)
	}

	rows, err := s.pool.Query(ctx, "SELECT option_id, option_name, option_value, autoload FROM options")
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
