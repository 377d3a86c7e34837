package record

import (
	"fmt"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/iudanet/moneykeeper/internal/crypto"
)

// State is the lifecycle state of a record.
type State uint8

const (
	StateNew State = iota
	StateClean
	StateChanged
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateClean:
		return "clean"
	case StateChanged:
		return "changed"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

var seqCounter atomic.Uint64

// Record is one entity instance. ID 0 marks a transient record that has not
// been placed in a list yet.
type Record struct {
	schema    Schema
	catalog   *Catalog
	cipher    Cipher
	store     *ValueStore
	base      *Record
	change    *Change
	errors    []FieldError
	seq       uint64
	id        uint32
	committed bool
	readOnly  bool
}

func newRecord(schema Schema, cipher Cipher, id uint32, store *ValueStore) *Record {
	return &Record{
		schema:  schema,
		catalog: schema.Catalog(),
		cipher:  cipher,
		store:   store,
		id:      id,
		seq:     seqCounter.Add(1),
	}
}

// FromValues is the bulk-load constructor. Every field is supplied at once;
// encrypted input may be plaintext, Ciphertext, an Envelope or a pair, and is
// normalized without double encryption. Links stay raw until resolution.
// The record starts Clean.
func FromValues(schema Schema, cipher Cipher, id uint32, values map[FieldID]any) (*Record, error) {
	r := newRecord(schema, cipher, id, NewValueStore())
	for _, f := range slices.Sorted(maps.Keys(values)) {
		d, ok := r.catalog.Field(f)
		if !ok {
			return nil, fmt.Errorf("%w: %s field %d", ErrUnknownField, r.Type(), f)
		}
		v, err := r.loadValue(d, values[f])
		if err != nil {
			return nil, fmt.Errorf("%s field %q: %w", r.Type(), d.Name, err)
		}
		r.store.Set(f, v)
	}
	r.committed = true
	return r, nil
}

// New creates an interactive record. Schema defaults are applied through the
// regular setters, so each one is a history step. The record stays New until
// its first Commit.
func New(schema Schema, cipher Cipher) (*Record, error) {
	r := newRecord(schema, cipher, 0, NewValueStore())
	if d, ok := schema.(Defaulter); ok {
		if err := d.ApplyDefaults(r); err != nil {
			return nil, fmt.Errorf("failed to apply %s defaults: %w", r.Type(), err)
		}
	}
	return r, nil
}

// NewEditCopy creates the Edit-style mirror of base: same identity, current
// values copied, no history, and a link back to base.
func NewEditCopy(base *Record) *Record {
	r := newRecord(base.schema, base.cipher, base.id, base.store.CloneCurrent())
	r.base = base
	r.committed = base.committed
	return r
}

// Clone returns a structurally independent copy with the same identity and history.
func (r *Record) Clone() *Record {
	c := newRecord(r.schema, r.cipher, r.id, r.store.Clone())
	c.committed = r.committed
	c.errors = slices.Clone(r.errors)
	return c
}

// Copy duplicates the record's current values under a fresh, transient identity.
func (r *Record) Copy() *Record {
	store := r.store.CloneCurrent()
	store.SetDeleted(false)
	return newRecord(r.schema, r.cipher, 0, store)
}

// ID returns the record id; 0 while the record is transient.
func (r *Record) ID() uint32 { return r.id }

// Type returns the record type of the schema.
func (r *Record) Type() Type { return r.catalog.Type() }

// Schema returns the schema the record was built with.
func (r *Record) Schema() Schema { return r.schema }

// Catalog returns the field catalog of the schema.
func (r *Record) Catalog() *Catalog { return r.catalog }

// Base returns the record an edit copy mirrors, or nil.
func (r *Record) Base() *Record { return r.base }

// Change returns the difference description of a read-only record, or nil.
func (r *Record) Change() *Change { return r.change }

// IsDeleted reports whether the record is soft-deleted.
func (r *Record) IsDeleted() bool { return r.store.Deleted() }

// IsReadOnly reports whether the record rejects edits.
func (r *Record) IsReadOnly() bool { return r.readOnly }

// HistoryDepth returns the number of undoable edit steps.
func (r *Record) HistoryDepth() int { return r.store.Depth() }

// Ref returns the (type, id) handle of the record.
func (r *Record) Ref() Ref { return Ref{Type: r.Type(), ID: r.id} }

// Store exposes the value store for persistence and re-keying.
func (r *Record) Store() *ValueStore { return r.store }

// State derives the lifecycle state.
func (r *Record) State() State {
	switch {
	case r.store.Deleted():
		return StateDeleted
	case !r.committed:
		return StateNew
	case r.store.Depth() > 0:
		return StateChanged
	default:
		return StateClean
	}
}

// AssignID gives a transient record its identity. Lists call it on insert.
func (r *Record) AssignID(id uint32) { r.id = id }

// SetCipher rebinds the record to another cipher (used when cloning a DataSet).
func (r *Record) SetCipher(c Cipher) { r.cipher = c }

// Cipher returns the cipher encrypted fields are sealed with.
func (r *Record) Cipher() Cipher { return r.cipher }

// MarkReadOnly freezes the record and attaches its change description.
func (r *Record) MarkReadOnly(change *Change) {
	r.readOnly = true
	r.change = change
}

// Value returns the stored value of f, pairs and raw links included.
func (r *Record) Value(f FieldID) Value { return r.store.Get(f) }

// Get returns the plaintext of f: a scalar, the decrypted value of an
// encrypted field (cached after the first read), a Ref for a resolved link,
// or the raw id/name of an unresolved one. Unset fields return nil.
func (r *Record) Get(f FieldID) (any, error) {
	d, ok := r.catalog.Field(f)
	if !ok {
		return nil, fmt.Errorf("%w: %s field %d", ErrUnknownField, r.Type(), f)
	}
	v := r.store.Get(f)
	switch v.kind {
	case ValueScalar:
		return v.scalar, nil
	case ValueEncrypted:
		return open(r.cipher, d.DataType, v.pair)
	case ValueLinkRaw:
		return v.raw, nil
	case ValueLinkResolved:
		return v.ref, nil
	}
	return nil, nil
}

// As reads f as T. Unset fields yield the zero value.
func As[T any](r *Record, f FieldID) (T, error) {
	var zero T
	v, err := r.Get(f)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s field %d holds %T", ErrBadValue, r.Type(), f, v)
	}
	return t, nil
}

// Link returns the target of a resolved link field.
func (r *Record) Link(f FieldID) (Ref, bool) {
	return r.store.Get(f).Ref()
}

// SetResolved installs a resolved link without history. Used by link resolution.
func (r *Record) SetResolved(f FieldID, ref Ref) {
	r.store.Set(f, Resolved(ref))
}

// Set is the interactive setter: it captures history, mutates and reports
// whether the value actually changed.
func (r *Record) Set(f FieldID, v any) (bool, error) {
	if r.readOnly {
		return false, ErrReadOnly
	}
	d, ok := r.catalog.Field(f)
	if !ok {
		return false, fmt.Errorf("%w: %s field %d", ErrUnknownField, r.Type(), f)
	}
	nv, err := r.editValue(d, v)
	if err != nil {
		return false, fmt.Errorf("%s field %q: %w", r.Type(), d.Name, err)
	}

	r.store.PushHistory()
	r.store.Set(f, nv)
	return r.store.CheckForHistory(), nil
}

// Delete soft-deletes the record as an undoable edit.
func (r *Record) Delete() (bool, error) {
	return r.setDeleted(true)
}

// Undelete reverses a soft delete as an undoable edit.
func (r *Record) Undelete() (bool, error) {
	return r.setDeleted(false)
}

func (r *Record) setDeleted(deleted bool) (bool, error) {
	if r.readOnly {
		return false, ErrReadOnly
	}
	r.store.PushHistory()
	r.store.SetDeleted(deleted)
	return r.store.CheckForHistory(), nil
}

// Commit accepts every pending edit; the record becomes Clean (or stays Deleted).
func (r *Record) Commit() {
	r.store.CommitAll()
	r.committed = true
}

// Undo reverses the most recent edit.
func (r *Record) Undo() error {
	if r.readOnly {
		return ErrReadOnly
	}
	if !r.store.Undo() {
		return ErrNothingToUndo
	}
	return nil
}

// FieldEqual compares f on two records of the same type by plaintext.
func FieldEqual(a, b *Record, f FieldID) (bool, error) {
	d, ok := a.catalog.Field(f)
	if !ok {
		return false, fmt.Errorf("%w: %s field %d", ErrUnknownField, a.Type(), f)
	}
	va, vb := a.store.Get(f), b.store.Get(f)
	if d.Kind == Link || va.Equal(vb) {
		return va.Equal(vb), nil
	}
	pa, err := a.Get(f)
	if err != nil {
		return false, err
	}
	pb, err := b.Get(f)
	if err != nil {
		return false, err
	}
	return scalarEqual(pa, pb), nil
}

// DifferingFields lists the fields whose plaintext differs between a and b.
func DifferingFields(a, b *Record) ([]FieldID, error) {
	var out []FieldID
	for _, d := range a.catalog.fields {
		eq, err := FieldEqual(a, b, d.ID)
		if err != nil {
			return nil, err
		}
		if !eq {
			out = append(out, d.ID)
		}
	}
	return out, nil
}

// ApplyChanges copies every differing field of other into r as a single
// history step and reports whether anything changed. Records of different
// types are ignored.
func (r *Record) ApplyChanges(other *Record) (bool, error) {
	if other == nil || other.Type() != r.Type() || r.readOnly {
		return false, nil
	}
	fields, err := DifferingFields(r, other)
	if err != nil {
		return false, err
	}
	if len(fields) == 0 {
		return false, nil
	}

	updates := make(map[FieldID]Value, len(fields))
	for _, f := range fields {
		d, _ := r.catalog.Field(f)
		v := other.store.Get(f)
		if d.Kind == Encrypted && v.kind == ValueEncrypted && other.cipher != r.cipher {
			plain, err := other.Get(f)
			if err != nil {
				return false, err
			}
			p, err := seal(r.cipher, d.DataType, plain)
			if err != nil {
				return false, err
			}
			v = EncryptedValue(p)
		}
		updates[f] = v
	}

	r.store.PushHistory()
	for f, v := range updates {
		r.store.Set(f, v)
	}
	return r.store.CheckForHistory(), nil
}

func (r *Record) loadValue(d Descriptor, v any) (Value, error) {
	if v == nil {
		return None(), nil
	}
	if val, ok := v.(Value); ok {
		return r.loadTagged(d, val)
	}
	switch d.Kind {
	case Plain:
		s, err := coerce(d.DataType, v)
		if err != nil || s == nil {
			return None(), err
		}
		return Scalar(s), nil
	case Encrypted:
		return r.loadEncrypted(d, v)
	case Link:
		return loadLink(v)
	}
	return None(), fmt.Errorf("%w: unknown field kind %d", ErrBadValue, d.Kind)
}

// loadTagged admits a ready-made Value only when its kind fits the field.
// Scalars headed for an encrypted field are sealed on the way in.
func (r *Record) loadTagged(d Descriptor, v Value) (Value, error) {
	if v.kind == ValueNone {
		return v, nil
	}
	switch d.Kind {
	case Plain:
		if v.kind == ValueScalar {
			s, err := coerce(d.DataType, v.scalar)
			if err != nil || s == nil {
				return None(), err
			}
			return Scalar(s), nil
		}
	case Encrypted:
		switch v.kind {
		case ValueScalar:
			return r.loadEncrypted(d, v.scalar)
		case ValueEncrypted:
			if v.pair == nil {
				return None(), nil
			}
			return r.loadEncrypted(d, v.pair)
		}
	case Link:
		if v.kind == ValueLinkRaw || v.kind == ValueLinkResolved {
			return v, nil
		}
	}
	return None(), fmt.Errorf("%w: %s value in a %s field", ErrBadValue, v.kind, d.Kind)
}

func (r *Record) loadEncrypted(d Descriptor, v any) (Value, error) {
	switch t := v.(type) {
	case Ciphertext:
		env, err := crypto.ParseEnvelope(t)
		if err != nil {
			return None(), err
		}
		return EncryptedValue(NewSealedPair(env)), nil
	case crypto.Envelope:
		return EncryptedValue(NewSealedPair(t)), nil
	case *EncryptedPair:
		if t == nil {
			return None(), nil
		}
		if t.state != PairPlain {
			return EncryptedValue(t), nil
		}
		v = t.plain
	}
	plain, err := coerce(d.DataType, v)
	if err != nil || plain == nil {
		return None(), err
	}
	p, err := seal(r.cipher, d.DataType, plain)
	if err != nil {
		return None(), err
	}
	return EncryptedValue(p), nil
}

func loadLink(v any) (Value, error) {
	switch t := v.(type) {
	case uint32:
		return LinkID(t), nil
	case int:
		if t <= 0 {
			return None(), fmt.Errorf("%w: link id %d", ErrBadValue, t)
		}
		return LinkID(uint32(t)), nil
	case int64:
		if t <= 0 {
			return None(), fmt.Errorf("%w: link id %d", ErrBadValue, t)
		}
		return LinkID(uint32(t)), nil
	case string:
		if t == "" {
			return None(), nil
		}
		return LinkName(t), nil
	case Ref:
		return LinkPlaceholder(t), nil
	case *Record:
		if t.id == 0 {
			return None(), fmt.Errorf("%w: link to a transient %s", ErrBadValue, t.Type())
		}
		return LinkPlaceholder(t.Ref()), nil
	}
	return None(), fmt.Errorf("%w: %T is not a link", ErrBadValue, v)
}

func (r *Record) editValue(d Descriptor, v any) (Value, error) {
	switch d.Kind {
	case Link:
		switch t := v.(type) {
		case *Record:
			if t.id == 0 {
				return None(), fmt.Errorf("%w: link to a transient %s", ErrBadValue, t.Type())
			}
			return Resolved(t.Ref()), nil
		case Ref:
			return Resolved(t), nil
		}
	case Encrypted:
		if val, ok := v.(Value); ok && val.kind == ValueScalar {
			v = val.scalar
		}
		switch v.(type) {
		case nil, Ciphertext, crypto.Envelope, *EncryptedPair, Value:
		default:
			plain, err := coerce(d.DataType, v)
			if err != nil {
				return None(), err
			}
			if plain == nil {
				return None(), nil
			}
			// Reusing the current pair keeps an unchanged plaintext from
			// registering as an edit.
			if cur := r.store.Get(d.ID); cur.kind == ValueEncrypted {
				if old, err := open(r.cipher, d.DataType, cur.pair); err == nil && scalarEqual(old, plain) {
					return cur, nil
				}
			}
			p, err := seal(r.cipher, d.DataType, plain)
			if err != nil {
				return None(), err
			}
			return EncryptedValue(p), nil
		}
	}
	return r.loadValue(d, v)
}
