package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.etcd.io/bbolt"

	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/record"
	"github.com/iudanet/moneykeeper/internal/storage"
)

var (
	// BoltDB bucket names
	bucketControl = []byte("control")
	bucketRecords = []byte("records")

	keyControl = []byte("current")
)

// Storage is the BoltDB codec: one nested bucket per record type under
// "records", keyed by big-endian id, holding JSON rows.
type Storage struct {
	db      *bbolt.DB
	factory storage.Factory
	logger  *slog.Logger
}

var _ storage.Codec = (*Storage)(nil)

// New opens (or creates) the BoltDB file at dbPath
func New(ctx context.Context, dbPath string, factory storage.Factory, logger *slog.Logger) (*Storage, error) {
	// Открываем BoltDB
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	s := &Storage{db: db, factory: factory, logger: logger}

	// Инициализируем buckets
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
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

// initBuckets создает необходимые buckets если они не существуют
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketControl, bucketRecords} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

// Initialized reports whether a data set was saved
func (s *Storage) Initialized(ctx context.Context) (bool, error) {
	if s.db == nil {
		return false, storage.ErrStorageClosed
	}
	var ok bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(bucketControl).Get(keyControl) != nil
		return nil
	})
	return ok, err
}

// Save replaces the stored data set in one transaction
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

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := json.Marshal(control)
		if err != nil {
			return fmt.Errorf("failed to marshal control: %w", err)
		}
		if err := tx.Bucket(bucketControl).Put(keyControl, data); err != nil {
			return fmt.Errorf("failed to save control: %w", err)
		}

		// Полная перезапись: удаляем старые записи и пишем текущий снимок
		if err := tx.DeleteBucket(bucketRecords); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to clear records: %w", err)
		}
		records, err := tx.CreateBucket(bucketRecords)
		if err != nil {
			return fmt.Errorf("failed to create records bucket: %w", err)
		}

		for _, row := range rows {
			if err := putRow(records, row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "data set saved",
		slog.String("dataset", ds.Name()),
		slog.Int("records", len(rows)),
		slog.Uint64("generation", uint64(control.Generation)))
	return nil
}

func putRow(records *bbolt.Bucket, row storage.Row) error {
	bucket, err := records.CreateBucketIfNotExists([]byte(row.Type))
	if err != nil {
		return fmt.Errorf("failed to create %s bucket: %w", row.Type, err)
	}

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal %s#%d: %w", row.Type, row.ID, err)
	}

	if err := bucket.Put(idKey(row.ID), data); err != nil {
		return fmt.Errorf("failed to save %s#%d: %w", row.Type, row.ID, err)
	}
	return nil
}

// Load reads the control key and every row, then rebuilds the data set
func (s *Storage) Load(ctx context.Context, password string) (*dataset.DataSet, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}
	var (
		control *storage.Control
		rows    []storage.Row
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketControl).Get(keyControl)
		if data == nil {
			return storage.ErrNotInitialized
		}
		control = &storage.Control{}
		if err := json.Unmarshal(data, control); err != nil {
			return fmt.Errorf("failed to unmarshal control: %w", err)
		}

		// Итерируемся по bucket'ам типов
		return tx.Bucket(bucketRecords).ForEachBucket(func(name []byte) error {
			return tx.Bucket(bucketRecords).Bucket(name).ForEach(func(k, v []byte) error {
				row := storage.Row{}
				if err := json.Unmarshal(v, &row); err != nil {
					return fmt.Errorf("%w: %s/%x: %v", storage.ErrCorruptRow, name, k, err)
				}
				if row.Type != record.Type(name) || idKeyOf(row.ID) != string(k) {
					return fmt.Errorf("%w: %s#%d stored under %s/%x", storage.ErrCorruptRow, row.Type, row.ID, name, k)
				}
				rows = append(rows, row)
				return nil
			})
		})
	})
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

func idKey(id uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, id)
	return key
}

func idKeyOf(id uint32) string { return string(idKey(id)) }
