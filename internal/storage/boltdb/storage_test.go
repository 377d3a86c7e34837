package boltdb

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/finance"
	"github.com/iudanet/moneykeeper/internal/record"
	"github.com/iudanet/moneykeeper/internal/storage"
)

const testPassword = "test-password-123"

var testKDF = crypto.KDFParams{Time: 1, Memory: 64, Threads: 1}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func factory(name string, keyring *crypto.Keyring) (*dataset.DataSet, error) {
	return finance.NewDataSet(name, keyring, dataset.WithLogger(testLogger()))
}

func setupTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(context.Background(), dbPath, factory, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, dbPath
}

func newFinanceDataSet(t *testing.T) *dataset.DataSet {
	t.Helper()
	key, err := crypto.NewControlKey(testPassword, 1, testKDF)
	require.NoError(t, err)
	ds, err := factory("household", crypto.NewKeyring(key))
	require.NoError(t, err)

	load := func(typ record.Type, id uint32, values map[record.FieldID]any) {
		_, err := ds.Load(typ, id, values)
		require.NoError(t, err)
	}
	load(finance.CurrencyType, 1, map[record.FieldID]any{finance.CurrencyCode: "USD"})
	load(finance.PayeeType, 1, map[record.FieldID]any{finance.PayeeName: "Grocer", finance.PayeeNotes: ""})
	load(finance.AccountType, 1, map[record.FieldID]any{finance.AccountName: "Checking", finance.AccountCurrency: "USD", finance.AccountOpening: "10.50"})
	load(finance.TransactionType, 1, map[record.FieldID]any{
		finance.TxDate: "2024-03-01", finance.TxAmount: "42.10", finance.TxAccount: uint32(1),
		finance.TxPartnerKind: finance.PartnerPayee, finance.TxPartner: uint32(1),
	})
	require.NoError(t, ds.ResolveLinks())

	tx, ok := ds.Lookup(record.Ref{Type: finance.TransactionType, ID: 1})
	require.True(t, ok)
	_, err = tx.Delete()
	require.NoError(t, err)
	return ds
}

func TestNew_Success(t *testing.T) {
	store, dbPath := setupTestStorage(t)

	// Проверяем что файл БД действительно создан
	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	// Проверяем, что бакеты существуют
	err = store.db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketControl, bucketRecords} {
			if tx.Bucket(b) == nil {
				return os.ErrNotExist
			}
		}
		return nil
	})
	require.NoError(t, err)

	ok, err := store.Initialized(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew_InvalidPath(t *testing.T) {
	// На некоторых системах путь с нулевым символом даст ошибку
	store, err := New(context.Background(), string([]byte{0}), factory, testLogger())
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestLoad_NotInitialized(t *testing.T) {
	store, _ := setupTestStorage(t)
	_, err := store.Load(context.Background(), testPassword)
	assert.ErrorIs(t, err, storage.ErrNotInitialized)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, dbPath := setupTestStorage(t)
	ds := newFinanceDataSet(t)

	require.NoError(t, store.Save(ctx, ds))
	require.NoError(t, store.Close())

	// Открываем файл заново
	reopened, err := New(ctx, dbPath, factory, testLogger())
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(ctx, testPassword)
	require.NoError(t, err)
	assert.Equal(t, "household", loaded.Name())
	assert.Equal(t, ds.Len(), loaded.Len())

	diff, err := dataset.Diff(loaded, ds)
	require.NoError(t, err)
	assert.Equal(t, 0, diff.Len())

	tx, ok := loaded.Lookup(record.Ref{Type: finance.TransactionType, ID: 1})
	require.True(t, ok)
	assert.Equal(t, record.StateDeleted, tx.State())
	ref, ok := tx.Link(finance.TxPartner)
	require.True(t, ok)
	assert.Equal(t, finance.PayeeType, ref.Type)

	// Пустая зашифрованная строка переживает сохранение
	payee, _ := loaded.Lookup(record.Ref{Type: finance.PayeeType, ID: 1})
	notes, err := payee.Get(finance.PayeeNotes)
	require.NoError(t, err)
	assert.Equal(t, "", notes)
}

func TestSave_NoPlaintextOnDisk(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStorage(t)
	require.NoError(t, store.Save(ctx, newFinanceDataSet(t)))

	var row storage.Row
	err := store.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Bucket([]byte(finance.PayeeType)).Get(idKey(1))
		if data == nil {
			return os.ErrNotExist
		}
		return json.Unmarshal(data, &row)
	})
	require.NoError(t, err)

	name := row.Fields["Name"]
	assert.Equal(t, storage.FieldEncrypted, name.Kind)
	assert.NotContains(t, string(name.Data), "Grocer")
	assert.Equal(t, finance.PayeeType, row.Type)
	assert.Equal(t, uint32(1), row.ID)
}

func TestLoad_WrongPassword(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStorage(t)
	require.NoError(t, store.Save(ctx, newFinanceDataSet(t)))

	_, err := store.Load(ctx, "another-password")
	assert.ErrorIs(t, err, storage.ErrWrongPassword)
}

func TestSave_ReplacesPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestStorage(t)
	ds := newFinanceDataSet(t)
	require.NoError(t, store.Save(ctx, ds))

	// Повторное сохранение после смены ключа
	oldKey := ds.Keyring().Current()
	newKey, err := crypto.NewControlKey("brand-new-password", 2, testKDF)
	require.NoError(t, err)
	require.NoError(t, ds.Rekey(oldKey, newKey))
	require.NoError(t, store.Save(ctx, ds))

	_, err = store.Load(ctx, testPassword)
	assert.ErrorIs(t, err, storage.ErrWrongPassword)

	loaded, err := store.Load(ctx, "brand-new-password")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), loaded.Generation())
	assert.Equal(t, ds.Len(), loaded.Len())
}

func TestClose(t *testing.T) {
	store, _ := setupTestStorage(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.Load(context.Background(), testPassword)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.Save(context.Background(), newFinanceDataSet(t)), storage.ErrStorageClosed)
}
