package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/moneykeeper/internal/record"
)

func TestResolveLinks(t *testing.T) {
	ds := newTestDataSet(t)

	tests := []struct {
		name  string
		ref   record.Ref
		field record.FieldID
		want  record.Ref
	}{
		{name: "by name", ref: record.Ref{Type: accountType, ID: 1}, field: aCurrency, want: record.Ref{Type: currencyType, ID: 1}},
		{name: "by id", ref: record.Ref{Type: accountType, ID: 2}, field: aCurrency, want: record.Ref{Type: currencyType, ID: 2}},
		{name: "self type", ref: record.Ref{Type: accountType, ID: 2}, field: aParent, want: record.Ref{Type: accountType, ID: 1}},
		{name: "dispatch to account", ref: record.Ref{Type: entryType, ID: 1}, field: ePartner, want: record.Ref{Type: accountType, ID: 2}},
		{name: "dispatch to currency by name", ref: record.Ref{Type: entryType, ID: 2}, field: ePartner, want: record.Ref{Type: currencyType, ID: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustFind(t, ds, tt.ref.Type, tt.ref.ID)
			got, ok := r.Link(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveLinks_Idempotent(t *testing.T) {
	ds := newTestDataSet(t)

	before := make(map[record.Ref]*record.ValueStore)
	for r := range ds.Records() {
		before[r.Ref()] = r.Store().Clone()
	}

	require.NoError(t, ds.ResolveLinks())

	for r := range ds.Records() {
		assert.True(t, before[r.Ref()].Equal(r.Store()), r.Ref().String())
		assert.Empty(t, r.Errors())
	}
	assert.True(t, ds.Validate())
}

func TestResolveLinks_Placeholder(t *testing.T) {
	ds := newEmptyDataSet(t)
	mustLoad(t, ds, accountType, 1, map[record.FieldID]any{aName: "Wages"})
	mustLoad(t, ds, accountType, 2, map[record.FieldID]any{aName: "Cash", aParent: record.Ref{Type: accountType, ID: 1}})
	require.NoError(t, ds.ResolveLinks())

	ref, ok := mustFind(t, ds, accountType, 2).Link(aParent)
	require.True(t, ok)
	assert.Equal(t, uint32(1), ref.ID)
}

func TestResolveLinks_Failures(t *testing.T) {
	tests := []struct {
		name   string
		values map[record.FieldID]any
		typ    record.Type
		field  record.FieldID
	}{
		{name: "unknown name", typ: accountType, field: aCurrency, values: map[record.FieldID]any{aName: "Card", aCurrency: "GBP"}},
		{name: "unknown id", typ: accountType, field: aParent, values: map[record.FieldID]any{aName: "Card", aParent: uint32(42)}},
		{name: "placeholder of another type", typ: accountType, field: aParent, values: map[record.FieldID]any{aName: "Card", aParent: record.Ref{Type: currencyType, ID: 1}}},
		{name: "unknown dispatch kind", typ: entryType, field: ePartner, values: map[record.FieldID]any{eKind: "bogus", ePartner: uint32(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := newEmptyDataSet(t)
			mustLoad(t, ds, currencyType, 1, map[record.FieldID]any{cCode: "USD"})
			ok := mustLoad(t, ds, accountType, 1, map[record.FieldID]any{aName: "Wages", aCurrency: "USD"})
			bad := mustLoad(t, ds, tt.typ, 9, tt.values)

			err := ds.ResolveLinks()
			require.ErrorIs(t, err, ErrUnresolvedLink)

			var re *ResolutionError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.typ, re.Type)
			assert.Equal(t, uint32(9), re.ID)

			errs := bad.FieldErrors(tt.field)
			require.Len(t, errs, 1)
			assert.Equal(t, record.Missing, errs[0].Kind)

			assert.True(t, ok.Value(aCurrency).IsUnresolvedLink(), "a failed pass must not rewrite any link")
		})
	}
}

func TestResolutionOrder(t *testing.T) {
	ds := newEmptyDataSet(t)
	assert.Equal(t, []record.Type{currencyType, accountType, entryType}, ds.resolutionOrder())

	// Цикл разрывается по порядку регистрации
	a := baseSchema{record.NewCatalog("a", record.Descriptor{ID: 0, Name: "B", Kind: record.Link, Target: "b"})}
	b := baseSchema{record.NewCatalog("b", record.Descriptor{ID: 0, Name: "A", Kind: record.Link, Target: "a"})}
	c := baseSchema{record.NewCatalog("c", record.Descriptor{ID: 0, Name: "Name", Kind: record.Plain, DataType: record.String})}

	cyc := New("cycle", newTestKeyring(t), WithLogger(testLogger()))
	for _, s := range []record.Schema{a, b, c} {
		_, err := cyc.Register(s)
		require.NoError(t, err)
	}
	assert.Equal(t, []record.Type{"c", "a", "b"}, cyc.resolutionOrder())
}
