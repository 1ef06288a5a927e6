package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

var (
	ErrDuplicateWord = errors.New("storage: duplicate word")
	ErrWordNotFound  = errors.New("storage: word not found")
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join("migrations", file))
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

// QueryResult is the raw outcome of an ad-hoc statement run from the owner console.
type QueryResult struct {
	Columns []string
	Rows    [][]string
	Tag     string
}

// Query runs an arbitrary statement and stringifies every returned value.
func (s *Store) Query(ctx context.Context, query string) (QueryResult, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return QueryResult{}, err
	}
	defer rows.Close()

	var result QueryResult
	for _, field := range rows.FieldDescriptions() {
		result.Columns = append(result.Columns, field.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return QueryResult{}, err
		}
		row := make([]string, len(values))
		for i, value := range values {
			row[i] = fmt.Sprint(value)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, err
	}
	result.Tag = rows.CommandTag().String()
	return result, nil
}

// Exec runs one or more statements without arguments and returns the final
// command tag.
func (s *Store) Exec(ctx context.Context, query string) (string, error) {
	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func collectStrings(rows pgx.Rows) ([]string, error) {
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
