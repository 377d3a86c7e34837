// Package storage defines how data sets are persisted. Backends store the
// control key header and one row per record; rows carry ciphertext for
// encrypted fields and never plaintext.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/record"
)

// Codec persists one data set.
type Codec interface {
	// Save replaces the stored data set with ds.
	Save(ctx context.Context, ds *dataset.DataSet) error
	// Load derives the control key from password, loads every row and
	// resolves links.
	Load(ctx context.Context, password string) (*dataset.DataSet, error)
	// Close releases the backend.
	Close() error
}

// Factory creates the empty data set rows are loaded into.
type Factory func(name string, keyring *crypto.Keyring) (*dataset.DataSet, error)

// Control is the stored description of the current control key.
type Control struct {
	Name        string           `json:"name"`
	Fingerprint string           `json:"fingerprint"`
	Salt        []byte           `json:"salt"`
	KDF         crypto.KDFParams `json:"kdf"`
	Generation  uint32           `json:"generation"`
}

// FieldKind tags a stored field value.
type FieldKind string

const (
	FieldPlain     FieldKind = "plain"
	FieldEncrypted FieldKind = "encrypted"
	FieldLink      FieldKind = "link"
)

// FieldValue is one stored field. Data is the scalar byte form for plain
// fields and the marshalled envelope for encrypted ones.
type FieldValue struct {
	Kind FieldKind `json:"kind"`
	Data []byte    `json:"data,omitempty"`
	Link uint32    `json:"link,omitempty"`
}

// Row is the stored form of one record. Fields are keyed by field name.
type Row struct {
	Fields  map[string]FieldValue `json:"fields"`
	Type    record.Type           `json:"type"`
	ID      uint32                `json:"id"`
	Deleted bool                  `json:"deleted,omitempty"`
}

// ControlOf describes the current control key of ds.
func ControlOf(ds *dataset.DataSet) (*Control, error) {
	key := ds.Keyring().Current()
	if key == nil {
		return nil, dataset.ErrNoKeyring
	}
	fp, err := crypto.Fingerprint(key)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint control key: %w", err)
	}
	return &Control{
		Name:        ds.Name(),
		Fingerprint: fp,
		Salt:        key.Salt(),
		KDF:         key.Params(),
		Generation:  key.Generation,
	}, nil
}

// Open derives the control key described by c from password.
func (c *Control) Open(password string) (*crypto.ControlKey, error) {
	key, err := crypto.DeriveControlKey(password, c.Salt, c.Generation, c.KDF)
	if err != nil {
		return nil, fmt.Errorf("failed to derive control key: %w", err)
	}
	if err := crypto.VerifyFingerprint(key, c.Fingerprint); err != nil {
		if errors.Is(err, crypto.ErrKeyMismatch) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}
	return key, nil
}

// Export converts every record of ds to rows. Links must be resolved.
func Export(ds *dataset.DataSet) ([]Row, error) {
	var rows []Row
	for r := range ds.Records() {
		row, err := exportRecord(r)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", r.Ref(), err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func exportRecord(r *record.Record) (Row, error) {
	row := Row{
		Type:    r.Type(),
		ID:      r.ID(),
		Deleted: r.IsDeleted(),
		Fields:  make(map[string]FieldValue),
	}
	for f, v := range r.Store().Fields() {
		d, _ := r.Catalog().Field(f)
		var fv FieldValue
		switch v.Kind() {
		case record.ValueScalar:
			if d.Kind == record.Encrypted {
				return Row{}, fmt.Errorf("field %q holds plaintext in an encrypted field", d.Name)
			}
			data, err := record.EncodeScalar(d.DataType, v.Scalar())
			if err != nil {
				return Row{}, err
			}
			fv = FieldValue{Kind: FieldPlain, Data: data}
		case record.ValueEncrypted:
			env, ok := v.Pair().Envelope()
			if !ok {
				return Row{}, fmt.Errorf("field %q was never encrypted", d.Name)
			}
			data, err := env.MarshalBinary()
			if err != nil {
				return Row{}, err
			}
			fv = FieldValue{Kind: FieldEncrypted, Data: data}
		case record.ValueLinkResolved:
			ref, _ := v.Ref()
			fv = FieldValue{Kind: FieldLink, Link: ref.ID}
		case record.ValueLinkRaw:
			return Row{}, fmt.Errorf("field %q: %w", d.Name, dataset.ErrUnresolvedLink)
		default:
			continue
		}
		row.Fields[d.Name] = fv
	}
	return row, nil
}

// Import loads rows into ds through the bulk-load path and resolves links.
// A failing row aborts the import.
func Import(ds *dataset.DataSet, rows []Row) error {
	for _, row := range rows {
		if err := importRow(ds, row); err != nil {
			return err
		}
	}
	if err := ds.ResolveLinks(); err != nil {
		return fmt.Errorf("failed to resolve links: %w", err)
	}
	return nil
}

func importRow(ds *dataset.DataSet, row Row) error {
	schema, ok := ds.Schema(row.Type)
	if !ok {
		return fmt.Errorf("%w: %s#%d: %w", ErrCorruptRow, row.Type, row.ID, dataset.ErrUnknownType)
	}
	catalog := schema.Catalog()

	values := make(map[record.FieldID]any, len(row.Fields))
	for name, fv := range row.Fields {
		f, ok := catalog.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: %s#%d has unknown field %q", ErrCorruptRow, row.Type, row.ID, name)
		}
		d, _ := catalog.Field(f)
		switch fv.Kind {
		case FieldPlain:
			v, err := record.DecodeScalar(d.DataType, fv.Data)
			if err != nil {
				return fmt.Errorf("%w: %s#%d field %q: %w", ErrCorruptRow, row.Type, row.ID, name, err)
			}
			values[f] = v
		case FieldEncrypted:
			values[f] = record.Ciphertext(fv.Data)
		case FieldLink:
			values[f] = fv.Link
		default:
			return fmt.Errorf("%w: %s#%d field %q has kind %q", ErrCorruptRow, row.Type, row.ID, name, fv.Kind)
		}
	}

	r, err := record.FromValues(schema, ds.Cipher(), row.ID, values)
	if err != nil {
		return &dataset.LoadError{Type: row.Type, ID: row.ID, Err: err}
	}
	if row.Deleted {
		r.Store().SetDeleted(true)
	}
	return ds.Add(r)
}

// Restore opens the control key with password, builds a data set with
// factory and imports rows into it.
func Restore(ctx context.Context, c *Control, rows []Row, password string, factory Factory) (*dataset.DataSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := c.Open(password)
	if err != nil {
		return nil, err
	}
	ds, err := factory(c.Name, crypto.NewKeyring(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create data set: %w", err)
	}
	if err := Import(ds, rows); err != nil {
		return nil, err
	}
	return ds, nil
}
