package vocabulary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver registered as "pgx"
	_ "github.com/lib/pq"              // PostgreSQL driver registered as "postgres"
	_ "github.com/mattn/go-sqlite3"    // SQLite driver registered as "sqlite3"
	"go.uber.org/zap"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// ErrUnknownDriver is returned for drivers other than the supported ones
var ErrUnknownDriver = errors.New("unknown vocabulary driver")

const schema = `
CREATE TABLE IF NOT EXISTS context_paths (
	parent TEXT NOT NULL,
	name   TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (parent, name)
);
CREATE TABLE IF NOT EXISTS context_functions (
	name   TEXT PRIMARY KEY,
	detail TEXT NOT NULL DEFAULT ''
)`

// SQLStore reads vocabulary from a database. Organisations usually keep custom
// contact fields there, so the vocabulary follows the data without redeploying.
type SQLStore struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// Open connects to the database and verifies the connection
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverPgx:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	return NewSQLStore(db, driver, logger), nil
}

// NewSQLStore wraps an open database handle
func NewSQLStore(db *sql.DB, driver string, logger *zap.Logger) *SQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLStore{db: db, driver: driver, logger: logger}
}

// Migrate creates the vocabulary tables if they don't exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate vocabulary schema: %w", err)
		}
	}
	return nil
}

// AddPath registers a dotted path, e.g. "contact.fields.district"
func (s *SQLStore) AddPath(ctx context.Context, path, detail string) error {
	parent, name := SplitPath(NormalizePath(path))
	if name == "" {
		return fmt.Errorf("invalid vocabulary path %q", path)
	}

	_, err := s.db.ExecContext(ctx,
		s.rebind("INSERT INTO context_paths (parent, name, detail) VALUES (?, ?, ?)"),
		parent, name, detail)
	if err != nil {
		return fmt.Errorf("failed to add vocabulary path %s: %w", path, err)
	}
	return nil
}

// AddFunction registers a function name
func (s *SQLStore) AddFunction(ctx context.Context, name, detail string) error {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("function name is required")
	}

	_, err := s.db.ExecContext(ctx,
		s.rebind("INSERT INTO context_functions (name, detail) VALUES (?, ?)"),
		name, detail)
	if err != nil {
		return fmt.Errorf("failed to add function %s: %w", name, err)
	}
	return nil
}

// Children returns the entries below parent
func (s *SQLStore) Children(ctx context.Context, parent string) ([]Entry, error) {
	parent = NormalizePath(parent)

	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT name, detail FROM context_paths WHERE parent = ? ORDER BY name"),
		parent)
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary below %q: %w", parent, err)
	}
	defer rows.Close()

	kind := KindField
	if parent == "" {
		kind = KindTopLevel
	}

	var entries []Entry
	for rows.Next() {
		var name, detail string
		if err := rows.Scan(&name, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan vocabulary row: %w", err)
		}
		entries = append(entries, Entry{Name: name, Path: JoinPath(parent, name), Detail: detail, Kind: kind})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("loaded vocabulary", zap.String("parent", parent), zap.Int("entries", len(entries)))
	return entries, nil
}

// Functions returns the functions stored in the database
func (s *SQLStore) Functions(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, detail FROM context_functions ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query vocabulary functions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var name, detail string
		if err := rows.Scan(&name, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan function row: %w", err)
		}
		name = strings.ToUpper(name)
		entries = append(entries, Entry{Name: name, Path: name, Detail: detail, Kind: KindFunction})
	}

	return entries, rows.Err()
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind converts ? placeholders to $n for the PostgreSQL drivers
func (s *SQLStore) rebind(query string) string {
	if s.driver == DriverSQLite {
		return query
	}

	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
