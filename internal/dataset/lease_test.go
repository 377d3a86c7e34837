package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/moneykeeper/internal/record"
)

func TestLease(t *testing.T) {
	ds := newTestDataSet(t)
	old := ds.Keyring().Current()
	next := old.WithGeneration(2)

	first := ds.Acquire()
	second := ds.Acquire()
	assert.True(t, ds.Locked())

	mutations := map[string]func() error{
		"add": func() error {
			_, err := ds.Load(currencyType, 0, map[record.FieldID]any{cCode: "GBP"})
			return err
		},
		"begin": func() error {
			_, err := ds.Begin()
			return err
		},
		"resolve": ds.ResolveLinks,
		"rekey":   func() error { return ds.Rekey(old, next) },
	}
	for name, mutate := range mutations {
		assert.ErrorIs(t, mutate(), ErrLocked, name)
	}

	first.Release()
	first.Release()
	assert.True(t, ds.Locked(), "double release must not free another holder's lease")

	second.Release()
	assert.False(t, ds.Locked())
	_, err := ds.Load(currencyType, 0, map[record.FieldID]any{cCode: "GBP"})
	require.NoError(t, err)
}

func TestLease_BlocksSessionCommit(t *testing.T) {
	ds := newTestDataSet(t)
	s, err := ds.Begin()
	require.NoError(t, err)
	defer s.Discard()

	e, _ := s.Find(record.Ref{Type: accountType, ID: 1})
	_, err = e.Set(aName, "Salary")
	require.NoError(t, err)

	lease := ds.Acquire()
	_, err = s.Commit()
	assert.ErrorIs(t, err, ErrLocked)
	lease.Release()

	_, err = s.Commit()
	require.NoError(t, err)
}
