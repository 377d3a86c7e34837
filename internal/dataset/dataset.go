// Package dataset groups record lists into data sets and implements the
// operations that span lists: link resolution, edit sessions, cloning,
// re-keying and differencing.
package dataset

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/record"
)

// Option configures a DataSet.
type Option func(*DataSet)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ds *DataSet) {
		if logger != nil {
			ds.logger = logger
		}
	}
}

// DataSet is a named collection of lists, one per record type, sharing a keyring.
type DataSet struct {
	logger  *slog.Logger
	keyring *crypto.Keyring
	lists   map[record.Type]*List
	session *Session
	name    string
	types   []record.Type
	leases  int
	style   Style
}

// New creates an empty Core data set.
func New(name string, keyring *crypto.Keyring, opts ...Option) *DataSet {
	ds := &DataSet{
		name:    name,
		keyring: keyring,
		style:   Core,
		lists:   make(map[record.Type]*List),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

// Name returns the data set name.
func (ds *DataSet) Name() string { return ds.name }

// Style returns how the data set was derived.
func (ds *DataSet) Style() Style { return ds.style }

// Keyring returns the control keys; nil for a data set created without one.
func (ds *DataSet) Keyring() *crypto.Keyring { return ds.keyring }

// Logger returns the data set logger.
func (ds *DataSet) Logger() *slog.Logger { return ds.logger }

// Cipher returns the keyring as the cipher records are sealed with. A data
// set without a keyring yields a nil Cipher, so encrypted fields fail with
// record.ErrNoCipher.
func (ds *DataSet) Cipher() record.Cipher {
	return cipherOf(ds.keyring)
}

func cipherOf(k *crypto.Keyring) record.Cipher {
	if k == nil {
		return nil
	}
	return k
}

// Generation returns the current control key generation.
func (ds *DataSet) Generation() uint32 {
	if ds.keyring == nil {
		return 0
	}
	return ds.keyring.Generation()
}

// Register adds an empty list for schema. Registration order breaks ties in
// link resolution and is the iteration order of Types.
func (ds *DataSet) Register(schema record.Schema) (*List, error) {
	if err := ds.checkMutable(); err != nil {
		return nil, err
	}
	typ := schema.Catalog().Type()
	if _, ok := ds.lists[typ]; ok {
		return nil, fmt.Errorf("record type %s is already registered", typ)
	}
	l := NewList(schema, ds.style)
	ds.lists[typ] = l
	ds.types = append(ds.types, typ)
	return l, nil
}

// Types returns the registered record types in registration order.
func (ds *DataSet) Types() []record.Type { return slices.Clone(ds.types) }

// List returns the list of typ.
func (ds *DataSet) List(typ record.Type) (*List, bool) {
	l, ok := ds.lists[typ]
	return l, ok
}

// Schema returns the schema registered for typ.
func (ds *DataSet) Schema(typ record.Type) (record.Schema, bool) {
	l, ok := ds.lists[typ]
	if !ok {
		return nil, false
	}
	return l.schema, true
}

// Lookup follows a link handle.
func (ds *DataSet) Lookup(ref record.Ref) (*record.Record, bool) {
	l, ok := ds.lists[ref.Type]
	if !ok {
		return nil, false
	}
	return l.FindByID(ref.ID)
}

// Records iterates every record, list by list in registration order.
func (ds *DataSet) Records() iter.Seq[*record.Record] {
	return func(yield func(*record.Record) bool) {
		for _, typ := range ds.types {
			for r := range ds.lists[typ].Records() {
				if !yield(r) {
					return
				}
			}
		}
	}
}

// Len returns the number of records across all lists.
func (ds *DataSet) Len() int {
	n := 0
	for _, l := range ds.lists {
		n += l.Len()
	}
	return n
}

// NewRecord creates a transient record of typ bound to this data set's keyring.
func (ds *DataSet) NewRecord(typ record.Type) (*record.Record, error) {
	l, ok := ds.lists[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	return record.New(l.schema, ds.Cipher())
}

// Add inserts r into the list of its type.
func (ds *DataSet) Add(r *record.Record) error {
	if err := ds.checkMutable(); err != nil {
		return err
	}
	if ds.session != nil {
		return ErrSessionOpen
	}
	l, ok := ds.lists[r.Type()]
	if !ok {
		return &LoadError{Type: r.Type(), ID: r.ID(), Err: ErrUnknownType}
	}
	return l.Add(r)
}

// Load is the bulk-load path: it builds a record from raw values and inserts
// it. Links stay raw until ResolveLinks.
func (ds *DataSet) Load(typ record.Type, id uint32, values map[record.FieldID]any) (*record.Record, error) {
	l, ok := ds.lists[typ]
	if !ok {
		return nil, &LoadError{Type: typ, ID: id, Err: ErrUnknownType}
	}
	r, err := record.FromValues(l.schema, ds.Cipher(), id, values)
	if err != nil {
		return nil, &LoadError{Type: typ, ID: id, Err: err}
	}
	if err := ds.Add(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate validates every list and checks that resolved links point at
// records of this data set. It reports whether everything is valid.
func (ds *DataSet) Validate() bool {
	valid := true
	for _, typ := range ds.types {
		l := ds.lists[typ]
		if !l.validate(ds.Lookup) {
			valid = false
		}
		for _, r := range l.inserted() {
			if !ds.checkLinks(r) {
				valid = false
			}
		}
	}
	return valid
}

func (ds *DataSet) checkLinks(r *record.Record) bool {
	ok := true
	for _, d := range r.Catalog().Fields() {
		if d.Kind != record.Link {
			continue
		}
		ref, resolved := r.Link(d.ID)
		if !resolved {
			continue
		}
		if _, found := ds.Lookup(ref); !found {
			r.AddError(record.FieldError{
				Field:   d.ID,
				Kind:    record.Missing,
				Message: fmt.Sprintf("%s refers to a missing record %s", d.Name, ref),
			})
			ok = false
		}
	}
	return ok
}

// Invalid returns the records that failed the last validation.
func (ds *DataSet) Invalid() []*record.Record {
	var out []*record.Record
	for r := range ds.Records() {
		if !r.IsValid() {
			out = append(out, r)
		}
	}
	return out
}

// DeriveClone returns an independent copy. The copy gets its own keyring so
// it can be re-keyed separately.
func (ds *DataSet) DeriveClone() *DataSet {
	out := ds.derive(Clone, ds.keyring.Clone())
	for _, typ := range ds.types {
		l := ds.lists[typ].DeriveClone()
		for _, r := range l.items {
			r.SetCipher(out.Cipher())
		}
		out.lists[typ] = l
	}
	return out
}

// deriveEdit returns the Edit-style staging copy used by sessions.
func (ds *DataSet) deriveEdit() *DataSet {
	out := ds.derive(Edit, ds.keyring)
	for _, typ := range ds.types {
		out.lists[typ] = ds.lists[typ].DeriveEdit()
	}
	return out
}

func (ds *DataSet) derive(style Style, keyring *crypto.Keyring) *DataSet {
	return &DataSet{
		name:    ds.name,
		style:   style,
		keyring: keyring,
		logger:  ds.logger,
		types:   slices.Clone(ds.types),
		lists:   make(map[record.Type]*List, len(ds.lists)),
	}
}

func (ds *DataSet) checkMutable() error {
	if ds.style == Difference {
		return ErrReadOnly
	}
	if ds.leases > 0 {
		return ErrLocked
	}
	return nil
}
