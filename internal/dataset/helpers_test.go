package dataset

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/record"
)

const (
	currencyType record.Type = "currency"
	accountType  record.Type = "account"
	entryType    record.Type = "entry"
)

const cCode record.FieldID = 0

const (
	aName record.FieldID = iota
	aCurrency
	aSecret
	aParent
)

const (
	eKind record.FieldID = iota
	ePartner
	eAmount
)

var fastKDF = crypto.KDFParams{Time: 1, Memory: 64, Threads: 1}

type baseSchema struct{ catalog *record.Catalog }

func (s baseSchema) Catalog() *record.Catalog                { return s.catalog }
func (s baseSchema) Validate(*record.Record, *record.Report) {}
func (s baseSchema) Compare(a, b *record.Record) int         { return 0 }

type namedSchema struct {
	baseSchema
	name record.FieldID
}

func (s namedSchema) NameField() record.FieldID { return s.name }

func (s namedSchema) Compare(a, b *record.Record) int { return record.ByField(s.name)(a, b) }

var (
	currencies = namedSchema{name: cCode, baseSchema: baseSchema{record.NewCatalog(currencyType,
		record.Descriptor{ID: cCode, Name: "Code", Kind: record.Plain, DataType: record.String, Required: true},
	)}}

	accounts = namedSchema{name: aName, baseSchema: baseSchema{record.NewCatalog(accountType,
		record.Descriptor{ID: aName, Name: "Name", Kind: record.Plain, DataType: record.String, Required: true},
		record.Descriptor{ID: aCurrency, Name: "Currency", Kind: record.Link, Target: currencyType},
		record.Descriptor{ID: aSecret, Name: "Secret", Kind: record.Encrypted, DataType: record.String},
		record.Descriptor{ID: aParent, Name: "Parent", Kind: record.Link, Target: accountType},
	)}}

	entries = baseSchema{record.NewCatalog(entryType,
		record.Descriptor{ID: eKind, Name: "Kind", Kind: record.Plain, DataType: record.String},
		record.Descriptor{ID: ePartner, Name: "Partner", Kind: record.Link, Dispatch: &record.Dispatch{
			KindField: eKind,
			Targets:   map[string]record.Type{"account": accountType, "currency": currencyType},
		}},
		record.Descriptor{ID: eAmount, Name: "Amount", Kind: record.Encrypted, DataType: record.Decimal},
	)}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestKeyring(t *testing.T) *crypto.Keyring {
	t.Helper()
	key, err := crypto.NewControlKey("test-password-123", 1, fastKDF)
	require.NoError(t, err)
	return crypto.NewKeyring(key)
}

// newEmptyDataSet регистрирует типы в обратном порядке зависимостей
func newEmptyDataSet(t *testing.T) *DataSet {
	t.Helper()
	ds := New("test", newTestKeyring(t), WithLogger(testLogger()))
	for _, s := range []record.Schema{entries, accounts, currencies} {
		_, err := ds.Register(s)
		require.NoError(t, err)
	}
	return ds
}

func mustLoad(t *testing.T, ds *DataSet, typ record.Type, id uint32, values map[record.FieldID]any) *record.Record {
	t.Helper()
	r, err := ds.Load(typ, id, values)
	require.NoError(t, err)
	return r
}

// newTestDataSet загружает небольшой набор с разными видами ссылок и разрешает их
func newTestDataSet(t *testing.T) *DataSet {
	t.Helper()
	ds := newEmptyDataSet(t)
	mustLoad(t, ds, currencyType, 1, map[record.FieldID]any{cCode: "USD"})
	mustLoad(t, ds, currencyType, 2, map[record.FieldID]any{cCode: "EUR"})
	mustLoad(t, ds, accountType, 1, map[record.FieldID]any{aName: "Wages", aCurrency: "USD", aSecret: "pin-1"})
	mustLoad(t, ds, accountType, 2, map[record.FieldID]any{aName: "Cash", aCurrency: uint32(2), aParent: uint32(1)})
	mustLoad(t, ds, entryType, 1, map[record.FieldID]any{eKind: "account", ePartner: uint32(2), eAmount: "5"})
	mustLoad(t, ds, entryType, 2, map[record.FieldID]any{eKind: "currency", ePartner: "EUR", eAmount: "1.25"})
	require.NoError(t, ds.ResolveLinks())
	return ds
}

func mustFind(t *testing.T, ds *DataSet, typ record.Type, id uint32) *record.Record {
	t.Helper()
	r, ok := ds.Lookup(record.Ref{Type: typ, ID: id})
	require.True(t, ok, "%s#%d", typ, id)
	return r
}

func nameOf(t *testing.T, r *record.Record) string {
	t.Helper()
	name, err := record.As[string](r, aName)
	require.NoError(t, err)
	return name
}
