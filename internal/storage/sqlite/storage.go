package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/record"
	"github.com/iudanet/moneykeeper/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Storage represents SQLite storage implementation
type Storage struct {
	db      *sql.DB
	factory storage.Factory
	logger  *slog.Logger
}

var _ storage.Codec = (*Storage)(nil)

// New creates a new SQLite storage instance
// dbPath is the path to the SQLite database file
// Use ":memory:" for in-memory database (useful for testing)
func New(ctx context.Context, dbPath string, factory storage.Factory, logger *slog.Logger) (*Storage, error) {
	// Открываем соединение с БД
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Одно соединение: in-memory база живет ровно столько, сколько соединение
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}
	s := &Storage{db: db, factory: factory, logger: logger}

	// Запускаем миграции
	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// runMigrations выполняет миграции из embedded FS
func (s *Storage) runMigrations(ctx context.Context) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	return nil
}

// Initialized reports whether a data set was saved
func (s *Storage) Initialized(ctx context.Context) (bool, error) {
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM control_keys`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to count control keys: %w", err)
	}
	return n > 0, nil
}

// Save replaces the stored records in one transaction. Control key rows
// accumulate, one per generation; the highest generation is current.
func (s *Storage) Save(ctx context.Context, ds *dataset.DataSet) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	control, err := storage.ControlOf(ds)
	if err != nil {
		return err
	}
	rows, err := storage.Export(ds)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveControl(ctx, tx, control); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (type, id, deleted, fields) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		fields, err := json.Marshal(row.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal %s#%d: %w", row.Type, row.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, string(row.Type), row.ID, boolToInt(row.Deleted), string(fields)); err != nil {
			return fmt.Errorf("failed to save %s#%d: %w", row.Type, row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "data set saved",
		slog.String("dataset", ds.Name()),
		slog.Int("records", len(rows)),
		slog.Uint64("generation", uint64(control.Generation)))
	return nil
}

func saveControl(ctx context.Context, tx *sql.Tx, c *storage.Control) error {
	kdf, err := json.Marshal(c.KDF)
	if err != nil {
		return fmt.Errorf("failed to marshal kdf params: %w", err)
	}

	// Поколения новее текущего остались от перезаписанного набора
	if _, err := tx.ExecContext(ctx, `DELETE FROM control_keys WHERE generation > ?`, c.Generation); err != nil {
		return fmt.Errorf("failed to drop stale control keys: %w", err)
	}

	query := `
		INSERT INTO control_keys (generation, name, fingerprint, salt, kdf, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(generation) DO UPDATE SET
			name = excluded.name,
			fingerprint = excluded.fingerprint,
			salt = excluded.salt,
			kdf = excluded.kdf
	`
	if _, err := tx.ExecContext(ctx, query,
		c.Generation,
		c.Name,
		c.Fingerprint,
		c.Salt,
		string(kdf),
		time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("failed to save control key: %w", err)
	}
	return nil
}

// Load reads the current control key and every row, then rebuilds the data set
func (s *Storage) Load(ctx context.Context, password string) (*dataset.DataSet, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	control, err := s.loadControl(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.loadRows(ctx)
	if err != nil {
		return nil, err
	}

	ds, err := storage.Restore(ctx, control, rows, password, s.factory)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "data set loaded", slog.String("dataset", ds.Name()), slog.Int("records", len(rows)))
	return ds, nil
}

func (s *Storage) loadControl(ctx context.Context) (*storage.Control, error) {
	query := `
		SELECT generation, name, fingerprint, salt, kdf
		FROM control_keys
		ORDER BY generation DESC
		LIMIT 1
	`

	var (
		c   storage.Control
		kdf string
	)
	err := s.db.QueryRowContext(ctx, query).Scan(&c.Generation, &c.Name, &c.Fingerprint, &c.Salt, &kdf)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to get control key: %w", err)
	}

	var params crypto.KDFParams
	if err := json.Unmarshal([]byte(kdf), &params); err != nil {
		return nil, fmt.Errorf("%w: control key kdf: %v", storage.ErrCorruptRow, err)
	}
	c.KDF = params
	return &c, nil
}

func (s *Storage) loadRows(ctx context.Context) ([]storage.Row, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT type, id, deleted, fields FROM records ORDER BY type, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rs.Close()

	var out []storage.Row
	for rs.Next() {
		var (
			row     storage.Row
			typ     string
			deleted int
			fields  string
		)
		if err := rs.Scan(&typ, &row.ID, &deleted, &fields); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		row.Type = record.Type(typ)
		row.Deleted = deleted == 1
		if err := json.Unmarshal([]byte(fields), &row.Fields); err != nil {
			return nil, fmt.Errorf("%w: %s#%d: %v", storage.ErrCorruptRow, typ, row.ID, err)
		}
		out = append(out, row)
	}

	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return out, nil
}

// DB returns the underlying database connection for testing purposes
func (s *Storage) DB() *sql.DB {
	return s.db
}

// boolToInt converts bool to int for SQLite
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
