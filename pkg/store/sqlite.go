package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)

	"mercator-hq/exportable/pkg/record"
)

// Supported database/sql driver names.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is the database/sql driver: "sqlite3" (mattn/go-sqlite3) or
	// "sqlite" (modernc.org/sqlite).
	// Default: "sqlite3"
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/records.db",
		Driver:       DriverCGO,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens the database, enables WAL mode if configured and
// creates the schema.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Path == "" {
		return nil, NewStorageError("sqlite", "open", errors.New("db path cannot be empty"))
	}
	switch config.Driver {
	case "":
		config.Driver = DriverCGO
	case DriverCGO, DriverPureGo:
	default:
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("unknown driver %q", config.Driver))
	}

	logger := slog.Default().With("component", "store.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite store initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, rec *record.Record) error {
	hash, key, body, err := entryOf(rec)
	if err != nil {
		return NewStorageError("sqlite", "put", err)
	}
	now := time.Now().UnixMilli()
	if _, err := s.db.ExecContext(ctx, upsertRecord, rec.Type().Name(), hash, key, string(body), now, now); err != nil {
		return NewStorageError("sqlite", "put", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, typ *record.Type, key record.Key) (*record.Record, error) {
	hash, err := slotOf(typ, key)
	if err != nil {
		return nil, NewStorageError("sqlite", "get", err)
	}

	var body string
	err = s.db.QueryRowContext(ctx, selectRecord, typ.Name(), hash).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStorageError("sqlite", "get", fmt.Errorf("%s %s: %w", typ.Name(), key, ErrNotFound))
	}
	if err != nil {
		return nil, NewStorageError("sqlite", "get", err)
	}

	rec, err := typ.Read(body)
	if err != nil {
		return nil, NewStorageError("sqlite", "decode", err)
	}
	return rec, nil
}

// Stream implements Store.
func (s *SQLiteStore) Stream(ctx context.Context, typ *record.Type) (<-chan *record.Record, <-chan error) {
	recordsCh := make(chan *record.Record, streamBuffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, streamRecords, typ.Name())
		if err != nil {
			errCh <- NewStorageError("sqlite", "stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var body string
			if err := rows.Scan(&body); err != nil {
				errCh <- NewStorageError("sqlite", "scan", err)
				return
			}
			rec, err := typ.Read(body)
			if err != nil {
				errCh <- NewStorageError("sqlite", "decode", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- rec:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- NewStorageError("sqlite", "stream", err)
		}
	}()

	return recordsCh, errCh
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context, typ *record.Type) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, countRecords, typ.Name()).Scan(&count); err != nil {
		return 0, NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, typ *record.Type, key record.Key) error {
	hash, err := slotOf(typ, key)
	if err != nil {
		return NewStorageError("sqlite", "delete", err)
	}

	result, err := s.db.ExecContext(ctx, deleteRecord, typ.Name(), hash)
	if err != nil {
		return NewStorageError("sqlite", "delete", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return NewStorageError("sqlite", "delete", err)
	}
	if n == 0 {
		return NewStorageError("sqlite", "delete", fmt.Errorf("%s %s: %w", typ.Name(), key, ErrNotFound))
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite store closed")
	return nil
}
