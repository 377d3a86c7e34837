// Package finance declares the personal finance record types: currencies,
// payees, accounts, categories and transactions.
package finance

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/record"
	"github.com/iudanet/moneykeeper/internal/validation"
)

// Schemas returns every record type in registration order: link targets
// before the types that use them.
func Schemas() []record.Schema {
	return []record.Schema{Currencies, Payees, Accounts, Categories, Transactions}
}

// NewDataSet creates an empty data set with every finance list registered.
func NewDataSet(name string, keyring *crypto.Keyring, opts ...dataset.Option) (*dataset.DataSet, error) {
	ds := dataset.New(name, keyring, opts...)
	for _, s := range Schemas() {
		if _, err := ds.Register(s); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", s.Catalog().Type(), err)
		}
	}
	return ds, nil
}

// checkName applies the record name policy to field f.
func checkName(r *record.Record, rp *record.Report, f record.FieldID) {
	if rp.Has(f) {
		return
	}
	name, err := record.As[string](r, f)
	if err != nil || name == "" {
		return
	}
	if err := validation.ValidateName(name); err != nil {
		rp.Add(f, kindOf(err), "%v", err)
	}
}

func kindOf(err error) record.ErrorKind {
	switch {
	case errors.Is(err, validation.ErrEmpty):
		return record.Missing
	case errors.Is(err, validation.ErrTooLong):
		return record.BadLength
	default:
		return record.Invalid
	}
}

// flag reads a boolean field; unset and unreadable values are false.
func flag(r *record.Record, f record.FieldID) bool {
	v, _ := record.As[bool](r, f)
	return v
}

// byFlag orders records with f unset or false before records with f true.
func byFlag(f record.FieldID) record.Comparator {
	return func(a, b *record.Record) int {
		switch fa, fb := flag(a, f), flag(b, f); {
		case fa == fb:
			return 0
		case fb:
			return -1
		default:
			return 1
		}
	}
}

// linked follows link f through the report's lookup.
func linked(r *record.Record, rp *record.Report, f record.FieldID) (*record.Record, bool) {
	ref, ok := r.Link(f)
	if !ok {
		return nil, false
	}
	return rp.Lookup(ref)
}

func setDefaults(r *record.Record, values map[record.FieldID]any) error {
	for _, f := range slices.Sorted(maps.Keys(values)) {
		if _, err := r.Set(f, values[f]); err != nil {
			return err
		}
	}
	return nil
}
