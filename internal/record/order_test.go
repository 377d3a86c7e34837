package record

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_SchemaOrder(t *testing.T) {
	ring := newTestKeyring(t)

	mk := func(id uint32, name string, hidden bool) *Record {
		r, err := FromValues(things, ring, id, map[FieldID]any{fName: name, fHidden: hidden})
		require.NoError(t, err)
		return r
	}
	records := []*Record{
		mk(1, "Zeta", false),
		mk(2, "Alpha", true),
		mk(3, "Beta", false),
		mk(4, "Alpha", false),
	}

	slices.SortFunc(records, Compare)

	var ids []uint32
	for _, r := range records {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []uint32{4, 3, 1, 2}, ids)
}

func TestCompare_Total(t *testing.T) {
	ring := newTestKeyring(t)

	a, err := New(things, ring)
	require.NoError(t, err)
	b, err := New(things, ring)
	require.NoError(t, err)

	// Две временные записи с одинаковыми значениями различаются
	assert.Equal(t, 0, Compare(a, a))
	assert.NotEqual(t, 0, Compare(a, b))
	assert.Equal(t, -Compare(a, b), Compare(b, a))

	g, err := FromValues(gadgets, ring, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, Compare(a, g), "types order first")
}

func TestDescending(t *testing.T) {
	ring := newTestKeyring(t)
	a := newThing(t, ring, 1, "Alpha")
	b := newThing(t, ring, 2, "Beta")

	byName := ByField(fName)
	assert.Equal(t, -1, byName(a, b))
	assert.Equal(t, 1, Descending(byName)(a, b))
	assert.Equal(t, 0, Compose()(a, b))
}
