package record

import "cmp"

// Comparator orders two records.
type Comparator func(a, b *Record) int

// Compose applies comparators in sequence until one decides.
func Compose(cs ...Comparator) Comparator {
	return func(a, b *Record) int {
		for _, c := range cs {
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

// ByField orders by the plaintext of f. Unset or unreadable values sort first.
func ByField(f FieldID) Comparator {
	return func(a, b *Record) int {
		va, _ := a.Get(f)
		vb, _ := b.Get(f)
		return compareScalars(va, vb)
	}
}

// Descending reverses c.
func Descending(c Comparator) Comparator {
	return func(a, b *Record) int { return -c(a, b) }
}

// Compare is the total order used for list iteration: type, then the
// schema's order, then identity. Two distinct records never compare equal.
func Compare(a, b *Record) int {
	if a == b {
		return 0
	}
	if c := cmp.Compare(a.Type(), b.Type()); c != 0 {
		return c
	}
	if c := a.schema.Compare(a, b); c != 0 {
		return c
	}
	if c := cmp.Compare(a.id, b.id); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}
