package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	// Registered drivers: "pgx" for Postgres and "sqlite" for embedded deployments.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour behind a Store.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("store: unsupported driver %q", driver)
}

// Store is the transactional entity store for devices, connections and rules.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the database and verifies it is reachable.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return nil, err
	}
	if driver == "postgres" {
		driver = "pgx"
	}
	if driver == "sqlite3" {
		driver = "sqlite"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if dialect == DialectSQLite {
		// Savepoints and in-memory databases need a single shared connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return New(db, dialect, opts...)
}

// New wraps an existing handle.
func New(db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("store: nil db")
	}
	if dialect != DialectPostgres && dialect != DialectSQLite {
		return nil, fmt.Errorf("store: unsupported dialect %q", dialect)
	}
	s := &Store{db: db, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the handle.
func (s *Store) Close() error { return s.db.Close() }

// Devices returns a repository bound to the pool.
func (s *Store) Devices() *DeviceRepository {
	return NewDeviceRepository(s.db, WithDeviceClock(s.now))
}

// Connections returns a repository bound to the pool.
func (s *Store) Connections() *ConnectionRepository {
	return NewConnectionRepository(s.db, WithConnectionClock(s.now))
}

// Tx is a unit of work with repositories bound to one transaction.
type Tx struct {
	tx          *sql.Tx
	Devices     *DeviceRepository
	Connections *ConnectionRepository
	Rules       *RuleRepository
}

// InTx runs fn in a transaction. fn's error or a commit failure rolls
// everything back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	tx := &Tx{
		tx:          sqlTx,
		Devices:     NewDeviceRepository(sqlTx, WithDeviceClock(s.now)),
		Connections: NewConnectionRepository(sqlTx, WithConnectionClock(s.now)),
		Rules:       NewRuleRepository(sqlTx, WithRuleClock(s.now)),
	}
	if err := fn(tx); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		_ = sqlTx.Rollback()
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

var savepointName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ErrTxBroken reports that savepoint bookkeeping failed and the enclosing
// transaction can no longer be trusted.
var ErrTxBroken = errors.New("store: transaction unusable")

// Savepoint runs fn inside a named savepoint. When fn fails, only the work
// since the savepoint is undone and fn's error is returned; the outer
// transaction stays usable.
func (t *Tx) Savepoint(ctx context.Context, name string, fn func() error) error {
	if !savepointName.MatchString(name) {
		return fmt.Errorf("store: invalid savepoint name %q", name)
	}
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("%w: savepoint: %v", ErrTxBroken, err)
	}
	if err := fn(); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("%w: rollback to savepoint: %v (cause: %v)", ErrTxBroken, rbErr, err)
		}
		if _, relErr := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); relErr != nil {
			return fmt.Errorf("%w: release savepoint: %v (cause: %v)", ErrTxBroken, relErr, err)
		}
		return err
	}
	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("%w: release savepoint: %v", ErrTxBroken, err)
	}
	return nil
}

// OpenInMemory opens a private in-memory SQLite store with the schema
// applied. Used by tests and dry-run tooling.
func OpenInMemory(ctx context.Context, opts ...Option) (*Store, error) {
	store, err := Open(ctx, "sqlite", "file::memory:?_pragma=foreign_keys(1)", opts...)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
