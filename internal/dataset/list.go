package dataset

import (
	"fmt"
	"iter"
	"slices"

	"github.com/iudanet/moneykeeper/internal/record"
)

// Style governs how a list may be mutated.
type Style uint8

const (
	// Core is the authoritative copy: unique ids and unique live names.
	Core Style = iota
	// Edit is a staging copy of a Core list for one session.
	Edit
	// Clone is an independent full copy.
	Clone
	// Difference holds Differencer output and is read-only.
	Difference
)

func (s Style) String() string {
	switch s {
	case Core:
		return "core"
	case Edit:
		return "edit"
	case Clone:
		return "clone"
	case Difference:
		return "difference"
	default:
		return "unknown"
	}
}

// List is an id-indexed collection of records of one type.
type List struct {
	schema record.Schema
	items  map[uint32]*record.Record
	names  map[string]uint32
	typ    record.Type
	order  []uint32
	nextID uint32
	style  Style
}

// NewList creates an empty list.
func NewList(schema record.Schema, style Style) *List {
	return &List{
		schema: schema,
		typ:    schema.Catalog().Type(),
		style:  style,
		items:  make(map[uint32]*record.Record),
		nextID: 1,
	}
}

// Type returns the record type the list holds.
func (l *List) Type() record.Type { return l.typ }

// Schema returns the schema every record of the list follows.
func (l *List) Schema() record.Schema { return l.schema }

// Style returns the style of the owning data set.
func (l *List) Style() Style { return l.style }

// Len counts records, soft-deleted ones included.
func (l *List) Len() int { return len(l.items) }

// NextID returns the id the next transient record will receive.
func (l *List) NextID() uint32 { return l.nextID }

// DeduplicateCheck reports whether id is free.
func (l *List) DeduplicateCheck(id uint32) bool {
	_, ok := l.items[id]
	return !ok
}

// Add inserts r. Transient records get the next free id. A failed insert
// leaves the list unchanged.
func (l *List) Add(r *record.Record) error {
	if l.style == Difference {
		return ErrReadOnly
	}
	return l.add(r)
}

func (l *List) add(r *record.Record) error {
	if r.Type() != l.typ {
		return &LoadError{Type: l.typ, ID: r.ID(), Err: fmt.Errorf("%w: %s", ErrUnknownType, r.Type())}
	}
	id := r.ID()
	if id == 0 {
		id = l.nextID
	}
	if !l.DeduplicateCheck(id) {
		return &LoadError{Type: l.typ, ID: id, Err: ErrDuplicateID}
	}
	if l.uniqueNames() && !r.IsDeleted() {
		name, ok, err := l.nameOf(r)
		if err != nil {
			return &LoadError{Type: l.typ, ID: id, Err: err}
		}
		if ok {
			if other, found := l.FindByName(name); found {
				return &LoadError{Type: l.typ, ID: id, Err: fmt.Errorf("%w: %q is used by #%d", ErrDuplicateName, name, other.ID())}
			}
		}
	}

	r.AssignID(id)
	l.items[id] = r
	l.order = append(l.order, id)
	l.nextID = max(l.nextID, id+1)
	l.names = nil
	return nil
}

func (l *List) uniqueNames() bool {
	_, named := l.schema.(record.Named)
	return named && (l.style == Core || l.style == Clone)
}

// nameOf returns the indexed name of r; ok is false for lists without a name
// index and for records with an empty name.
func (l *List) nameOf(r *record.Record) (name string, ok bool, err error) {
	n, named := l.schema.(record.Named)
	if !named {
		return "", false, nil
	}
	name, err = record.As[string](r, n.NameField())
	if err != nil {
		return "", false, err
	}
	return name, name != "", nil
}

// FindByID returns the record with id, deleted records included.
func (l *List) FindByID(id uint32) (*record.Record, bool) {
	r, ok := l.items[id]
	return r, ok
}

// FindByName looks a live record up by its indexed name. Names change through
// record setters the list does not observe, so a hit is re-checked and a miss
// or a stale hit rebuilds the index once.
func (l *List) FindByName(name string) (*record.Record, bool) {
	if _, named := l.schema.(record.Named); !named {
		return nil, false
	}
	if r, ok := l.lookupName(name); ok {
		return r, true
	}
	l.rebuildNames()
	return l.lookupName(name)
}

func (l *List) lookupName(name string) (*record.Record, bool) {
	if l.names == nil {
		return nil, false
	}
	id, ok := l.names[name]
	if !ok {
		return nil, false
	}
	r := l.items[id]
	if r == nil || r.IsDeleted() {
		return nil, false
	}
	if current, ok, err := l.nameOf(r); err != nil || !ok || current != name {
		return nil, false
	}
	return r, true
}

func (l *List) rebuildNames() {
	l.names = make(map[string]uint32, len(l.items))
	for _, id := range l.order {
		r := l.items[id]
		if r.IsDeleted() {
			continue
		}
		name, ok, err := l.nameOf(r)
		if err != nil || !ok {
			continue
		}
		if _, dup := l.names[name]; !dup {
			l.names[name] = id
		}
	}
}

// Records iterates the list in the record type's order.
func (l *List) Records() iter.Seq[*record.Record] {
	return slices.Values(l.Sorted())
}

// Sorted returns the records in the record type's order.
func (l *List) Sorted() []*record.Record {
	out := l.inserted()
	slices.SortFunc(out, record.Compare)
	return out
}

// inserted returns the records in insertion order.
func (l *List) inserted() []*record.Record {
	out := make([]*record.Record, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.items[id])
	}
	return out
}

// Validate re-validates every record and flags live records sharing a name.
// It reports whether the whole list is valid.
func (l *List) Validate() bool { return l.validate(nil) }

func (l *List) validate(lookup record.Lookup) bool {
	owners := make(map[string][]*record.Record)
	for _, r := range l.inserted() {
		r.ValidateWith(lookup)
		if r.IsDeleted() {
			continue
		}
		if name, ok, err := l.nameOf(r); err == nil && ok {
			owners[name] = append(owners[name], r)
		}
	}

	if n, named := l.schema.(record.Named); named {
		for name, rs := range owners {
			if len(rs) < 2 {
				continue
			}
			for _, r := range rs {
				r.AddError(record.FieldError{
					Field:   n.NameField(),
					Kind:    record.Duplicate,
					Message: fmt.Sprintf("name %q is used by %d records", name, len(rs)),
				})
			}
		}
	}

	valid := true
	for _, r := range l.items {
		if !r.IsValid() {
			valid = false
		}
	}
	return valid
}

// DeriveEdit returns an Edit-style mirror: every record is a fresh edit copy
// pointing back at its original here.
func (l *List) DeriveEdit() *List {
	out := l.derive(Edit)
	for _, id := range l.order {
		out.items[id] = record.NewEditCopy(l.items[id])
	}
	return out
}

// DeriveClone returns a structurally independent copy with history.
func (l *List) DeriveClone() *List {
	out := l.derive(Clone)
	for _, id := range l.order {
		out.items[id] = l.items[id].Clone()
	}
	return out
}

func (l *List) derive(style Style) *List {
	return &List{
		schema: l.schema,
		typ:    l.typ,
		style:  style,
		items:  make(map[uint32]*record.Record, len(l.items)),
		order:  slices.Clone(l.order),
		nextID: l.nextID,
	}
}
