package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/haasonsaas/simpleplugin/internal/backoff"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLConfig configures connection pooling.
type SQLConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
	// ConnectAttempts bounds how often the initial ping is tried
	ConnectAttempts int
}

// DefaultSQLConfig returns default connection pool settings.
func DefaultSQLConfig() *SQLConfig {
	return &SQLConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		ConnectAttempts: 3,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS player_records (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	name_key TEXT NOT NULL,
	last_seen TIMESTAMP NOT NULL,
	world TEXT NOT NULL,
	x DOUBLE PRECISION NOT NULL,
	y DOUBLE PRECISION NOT NULL,
	z DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS player_records_name_key ON player_records (name_key);
`

// SQLStore implements RecordStore on SQLite or PostgreSQL.
type SQLStore struct {
	db *sql.DB
}

// Open returns the store for driver. DriverMemory ignores dsn.
func Open(driver, dsn string, config *SQLConfig) (RecordStore, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, DriverPostgres:
		return NewSQLStoreFromDSN(driver, dsn, config)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

// NewSQLStoreFromDSN opens a database, pings it and creates the schema.
func NewSQLStoreFromDSN(driver, dsn string, config *SQLConfig) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if config == nil {
		config = DefaultSQLConfig()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite allows one writer at a time
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(config.MaxOpenConns)
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	store, err := newSQLStore(ctx, db, config, backoff.DefaultPolicy())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// newSQLStore pings db until it answers, then creates the schema.
func newSQLStore(ctx context.Context, db *sql.DB, config *SQLConfig, policy backoff.Policy) (*SQLStore, error) {
	err := backoff.Retry(ctx, policy, config.ConnectAttempts, func(int) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	store := &SQLStore{db: db}
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Migrate creates the schema if needed.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases database resources.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts a record by ID.
func (s *SQLStore) Save(ctx context.Context, rec *PlayerRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_records (id, name, name_key, last_seen, world, x, y, z)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			name_key = excluded.name_key,
			last_seen = excluded.last_seen,
			world = excluded.world,
			x = excluded.x,
			y = excluded.y,
			z = excluded.z
	`,
		rec.ID.String(),
		rec.Name,
		nameKey(rec.Name),
		rec.LastSeen.UTC(),
		rec.Location.World,
		rec.Location.X,
		rec.Location.Y,
		rec.Location.Z,
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// Get returns the most recently seen record for name.
func (s *SQLStore) Get(ctx context.Context, name string) (*PlayerRecord, error) {
	if name == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, last_seen, world, x, y, z
		FROM player_records WHERE name_key = $1
		ORDER BY last_seen DESC LIMIT 1
	`, nameKey(name))

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// GetByID returns the record for id.
func (s *SQLStore) GetByID(ctx context.Context, id uuid.UUID) (*PlayerRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, last_seen, world, x, y, z
		FROM player_records WHERE id = $1
	`, id.String())

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// List returns records, most recently seen first.
func (s *SQLStore) List(ctx context.Context, limit, offset int) ([]*PlayerRecord, error) {
	query := `
		SELECT id, name, last_seen, world, x, y, z
		FROM player_records
		ORDER BY last_seen DESC, name ASC`
	args := []any{}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*PlayerRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

type recordScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner recordScanner) (*PlayerRecord, error) {
	var (
		rec PlayerRecord
		id  string
	)
	if err := scanner.Scan(
		&id,
		&rec.Name,
		&rec.LastSeen,
		&rec.Location.World,
		&rec.Location.X,
		&rec.Location.Y,
		&rec.Location.Z,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse record id %q: %w", id, err)
	}
	rec.ID = parsed
	return &rec, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
