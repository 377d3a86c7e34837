package dataset

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/iudanet/moneykeeper/internal/record"
)

// Diff compares two data sets with identical catalogs and returns a
// read-only Difference data set holding only the records that differ. Every
// id of the union appears at most once: Inserted (live only in newDS),
// Deleted (live only in oldDS) or Changed (live in both with differing
// fields). Soft-deleted records count as absent. Changed records carry the
// new values and the plaintext before and after of every differing field.
// The result holds copies of both keyrings, so it stays readable after
// either input is edited or re-keyed.
func Diff(newDS, oldDS *DataSet) (*DataSet, error) {
	if err := sameCatalogs(newDS, oldDS); err != nil {
		return nil, err
	}

	out := newDS.derive(Difference, newDS.keyring.Clone())
	oldCipher := cipherOf(oldDS.keyring.Clone())
	out.name = fmt.Sprintf("%s vs %s", newDS.name, oldDS.name)
	for _, typ := range newDS.types {
		nl, ol := newDS.lists[typ], oldDS.lists[typ]
		dl := NewList(nl.schema, Difference)
		out.lists[typ] = dl

		for _, id := range unionIDs(nl, ol) {
			n := liveRecord(nl, id)
			o := liveRecord(ol, id)

			var (
				src    *record.Record
				change *record.Change
				cipher = out.Cipher()
			)
			switch {
			case n != nil && o == nil:
				src, change = n, &record.Change{Kind: record.Inserted}
			case n == nil && o != nil:
				src, change, cipher = o, &record.Change{Kind: record.Deleted}, oldCipher
			case n != nil && o != nil:
				fields, err := changedFields(n, o)
				if err != nil {
					return nil, fmt.Errorf("failed to compare %s: %w", n.Ref(), err)
				}
				if len(fields) == 0 {
					continue
				}
				src, change = n, &record.Change{Kind: record.Changed, Fields: fields}
			default:
				continue
			}

			c := src.Clone()
			c.SetCipher(cipher)
			c.MarkReadOnly(change)
			if err := dl.add(c); err != nil {
				return nil, err
			}
		}
	}

	newDS.logger.Debug("data sets compared", slog.String("new", newDS.name), slog.String("old", oldDS.name), slog.Int("records", out.Len()))
	return out, nil
}

func sameCatalogs(a, b *DataSet) error {
	if !slices.Equal(sortedTypes(a), sortedTypes(b)) {
		return fmt.Errorf("%w: record types differ", ErrCatalogMismatch)
	}
	for _, typ := range a.types {
		if !a.lists[typ].schema.Catalog().Equal(b.lists[typ].schema.Catalog()) {
			return fmt.Errorf("%w: %s fields differ", ErrCatalogMismatch, typ)
		}
	}
	return nil
}

func sortedTypes(ds *DataSet) []record.Type {
	return slices.Sorted(maps.Keys(ds.lists))
}

func unionIDs(a, b *List) []uint32 {
	ids := make(map[uint32]struct{}, len(a.items)+len(b.items))
	for id := range a.items {
		ids[id] = struct{}{}
	}
	for id := range b.items {
		ids[id] = struct{}{}
	}
	return slices.Sorted(maps.Keys(ids))
}

func liveRecord(l *List, id uint32) *record.Record {
	r, ok := l.items[id]
	if !ok || r.IsDeleted() {
		return nil
	}
	return r
}

func changedFields(n, o *record.Record) ([]record.FieldChange, error) {
	ids, err := record.DifferingFields(n, o)
	if err != nil {
		return nil, err
	}
	out := make([]record.FieldChange, 0, len(ids))
	for _, f := range ids {
		before, err := o.Get(f)
		if err != nil {
			return nil, err
		}
		after, err := n.Get(f)
		if err != nil {
			return nil, err
		}
		out = append(out, record.FieldChange{Field: f, Before: before, After: after})
	}
	return out, nil
}
