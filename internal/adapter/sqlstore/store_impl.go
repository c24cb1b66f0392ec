// Package sqlstore keeps the state document in a SQL table. It is used with
// PostgreSQL (through the pgx database/sql driver) and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/user/indexnow-service/internal/entity"
	"github.com/user/indexnow-service/internal/repository"
)

// Driver names registered by the imported drivers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS app_data (
	key        TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// StoreImpl provides a StateStore over a single row of the app_data table.
type StoreImpl struct {
	db  *sqlx.DB
	key string
	now func() time.Time
}

// Open connects with the given driver and data source name and ensures the schema exists.
func Open(ctx context.Context, driver, dsn string) (*StoreImpl, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s database: %w", driver, err)
	}
	store := NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing connection.
func NewStore(db *sqlx.DB) *StoreImpl {
	return &StoreImpl{db: db, key: repository.StateKey, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the app_data table if it does not exist.
func (s *StoreImpl) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create app_data table: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *StoreImpl) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *StoreImpl) Close() error {
	return s.db.Close()
}

// Read loads the document row. A missing row yields an empty document.
func (s *StoreImpl) Read(ctx context.Context) (*entity.AppData, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, s.db.Rebind(`SELECT data FROM app_data WHERE key = ?`), s.key)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.NewAppData(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query app_data: %w", err)
	}

	data := &entity.AppData{}
	if err := json.Unmarshal([]byte(raw), data); err != nil {
		return nil, fmt.Errorf("failed to decode app_data: %w", err)
	}
	if err := entity.Migrate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Write upserts the document row.
func (s *StoreImpl) Write(ctx context.Context, data *entity.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	query := s.db.Rebind(`
		INSERT INTO app_data (key, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, s.key, string(raw), s.now()); err != nil {
		return fmt.Errorf("failed to upsert app_data: %w", err)
	}
	return nil
}
