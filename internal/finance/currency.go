package finance

import (
	"github.com/iudanet/moneykeeper/internal/record"
	"github.com/iudanet/moneykeeper/internal/validation"
)

// CurrencyType is the record type of currencies.
const CurrencyType record.Type = "currency"

// Currency fields
const (
	CurrencyCode record.FieldID = iota
	CurrencyDescription
)

type currencySchema struct{ catalog *record.Catalog }

// Currencies is the currency schema. Currencies are indexed by code.
var Currencies = currencySchema{catalog: record.NewCatalog(CurrencyType,
	record.Descriptor{ID: CurrencyCode, Name: "Code", Kind: record.Plain, DataType: record.String, Required: true},
	record.Descriptor{ID: CurrencyDescription, Name: "Description", Kind: record.Encrypted, DataType: record.String, MaxLength: 256},
)}

func (s currencySchema) Catalog() *record.Catalog  { return s.catalog }
func (s currencySchema) NameField() record.FieldID { return CurrencyCode }

func (s currencySchema) Validate(r *record.Record, rp *record.Report) {
	if rp.Has(CurrencyCode) {
		return
	}
	code, err := record.As[string](r, CurrencyCode)
	if err != nil || code == "" {
		return
	}
	if err := validation.ValidateCurrencyCode(code); err != nil {
		rp.Add(CurrencyCode, kindOf(err), "%v", err)
	}
}

func (s currencySchema) Compare(a, b *record.Record) int {
	return record.ByField(CurrencyCode)(a, b)
}
