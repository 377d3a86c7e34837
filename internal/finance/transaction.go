package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iudanet/moneykeeper/internal/record"
)

// TransactionType is the record type of transactions.
const TransactionType record.Type = "transaction"

// Transaction fields
const (
	TxDate record.FieldID = iota
	TxAmount
	TxAccount
	TxPartnerKind
	TxPartner
	TxCategory
	TxNotes
)

// Partner kinds select the list TxPartner points into.
const (
	PartnerAccount = "account"
	PartnerPayee   = "payee"
)

// Accepted transaction dates.
var (
	MinDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxDate = time.Date(2199, time.December, 31, 0, 0, 0, 0, time.UTC)
)

type transactionSchema struct{ catalog *record.Catalog }

// Transactions is the transaction schema. A transaction moves Amount out of
// Account to a payee, or to another account when it is a transfer.
var Transactions = transactionSchema{catalog: record.NewCatalog(TransactionType,
	record.Descriptor{ID: TxDate, Name: "Date", Kind: record.Plain, DataType: record.Date, Required: true},
	record.Descriptor{ID: TxAmount, Name: "Amount", Kind: record.Encrypted, DataType: record.Decimal, Required: true},
	record.Descriptor{ID: TxAccount, Name: "Account", Kind: record.Link, Target: AccountType, Required: true},
	record.Descriptor{ID: TxPartnerKind, Name: "PartnerKind", Kind: record.Plain, DataType: record.String, Required: true},
	record.Descriptor{ID: TxPartner, Name: "Partner", Kind: record.Link, Dispatch: &record.Dispatch{
		KindField: TxPartnerKind,
		Targets: map[string]record.Type{
			PartnerAccount: AccountType,
			PartnerPayee:   PayeeType,
		},
	}},
	record.Descriptor{ID: TxCategory, Name: "Category", Kind: record.Link, Target: CategoryType},
	record.Descriptor{ID: TxNotes, Name: "Notes", Kind: record.Encrypted, DataType: record.String, MaxLength: 1024},
)}

func (s transactionSchema) Catalog() *record.Catalog { return s.catalog }

func (s transactionSchema) Validate(r *record.Record, rp *record.Report) {
	if date, err := record.As[time.Time](r, TxDate); err == nil && !date.IsZero() {
		if date.Before(MinDate) || date.After(MaxDate) {
			rp.Add(TxDate, record.OutOfRange, "date %s is outside %s..%s",
				date.Format(time.DateOnly), MinDate.Format(time.DateOnly), MaxDate.Format(time.DateOnly))
		}
	}

	kind, _ := record.As[string](r, TxPartnerKind)
	transfer := kind == PartnerAccount

	if amount, err := record.As[decimal.Decimal](r, TxAmount); err == nil && !rp.Has(TxAmount) {
		switch {
		case amount.IsZero():
			rp.Add(TxAmount, record.Zero, "amount cannot be zero")
		case transfer && amount.IsNegative():
			rp.Add(TxAmount, record.Negative, "transfer amount cannot be negative")
		}
	}

	if account, ok := linked(r, rp, TxAccount); ok && flag(account, AccountClosed) {
		rp.Add(TxAccount, record.Disabled, "account is closed")
	}

	switch kind {
	case "":
	case PartnerAccount, PartnerPayee:
		s.validatePartner(r, rp, kind)
	default:
		rp.Add(TxPartnerKind, record.Invalid, "unknown partner kind %q", kind)
	}
}

func (s transactionSchema) validatePartner(r *record.Record, rp *record.Report, kind string) {
	if rp.Has(TxPartner) {
		return
	}
	ref, ok := r.Link(TxPartner)
	if !ok {
		rp.Add(TxPartner, record.Missing, "%s partner is required", kind)
		return
	}
	if account, ok := r.Link(TxAccount); ok && kind == PartnerAccount && ref == account {
		rp.Add(TxPartner, record.Invalid, "cannot transfer to the same account")
		return
	}
	partner, found := rp.Lookup(ref)
	if !found {
		return
	}
	switch {
	case kind == PartnerAccount && flag(partner, AccountClosed):
		rp.Add(TxPartner, record.Disabled, "partner account is closed")
	case kind == PartnerPayee && flag(partner, PayeeDisabled):
		rp.Add(TxPartner, record.Disabled, "payee is disabled")
	}
}

// Compare orders by date, newest first, then by account.
func (s transactionSchema) Compare(a, b *record.Record) int {
	return record.Compose(record.Descending(record.ByField(TxDate)), record.ByField(TxAccount))(a, b)
}

func (s transactionSchema) ApplyDefaults(r *record.Record) error {
	return setDefaults(r, map[record.FieldID]any{
		TxDate:        time.Now(),
		TxPartnerKind: PartnerPayee,
	})
}
