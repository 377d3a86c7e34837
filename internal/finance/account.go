package finance

import (
	"github.com/shopspring/decimal"

	"github.com/iudanet/moneykeeper/internal/record"
)

// AccountType is the record type of accounts.
const AccountType record.Type = "account"

// Account fields
const (
	AccountName record.FieldID = iota
	AccountCurrency
	AccountOpening
	AccountClosed
	AccountNotes
)

type accountSchema struct{ catalog *record.Catalog }

// Accounts is the account schema.
var Accounts = accountSchema{catalog: record.NewCatalog(AccountType,
	record.Descriptor{ID: AccountName, Name: "Name", Kind: record.Plain, DataType: record.String, Required: true},
	record.Descriptor{ID: AccountCurrency, Name: "Currency", Kind: record.Link, Target: CurrencyType, Required: true},
	record.Descriptor{ID: AccountOpening, Name: "OpeningBalance", Kind: record.Plain, DataType: record.Decimal},
	record.Descriptor{ID: AccountClosed, Name: "Closed", Kind: record.Plain, DataType: record.Bool},
	record.Descriptor{ID: AccountNotes, Name: "Notes", Kind: record.Encrypted, DataType: record.String, MaxLength: 1024},
)}

func (s accountSchema) Catalog() *record.Catalog  { return s.catalog }
func (s accountSchema) NameField() record.FieldID { return AccountName }

func (s accountSchema) Validate(r *record.Record, rp *record.Report) {
	checkName(r, rp, AccountName)
}

// Compare puts open accounts before closed ones, then orders by name.
func (s accountSchema) Compare(a, b *record.Record) int {
	return record.Compose(byFlag(AccountClosed), record.ByField(AccountName))(a, b)
}

func (s accountSchema) ApplyDefaults(r *record.Record) error {
	return setDefaults(r, map[record.FieldID]any{
		AccountOpening: decimal.Zero,
		AccountClosed:  false,
	})
}
