package finance

import "github.com/iudanet/moneykeeper/internal/record"

// PayeeType is the record type of payees.
const PayeeType record.Type = "payee"

// Payee fields
const (
	PayeeName record.FieldID = iota
	PayeeDisabled
	PayeeNotes
)

type payeeSchema struct{ catalog *record.Catalog }

// Payees is the payee schema. Payee names are encrypted and still indexed.
var Payees = payeeSchema{catalog: record.NewCatalog(PayeeType,
	record.Descriptor{ID: PayeeName, Name: "Name", Kind: record.Encrypted, DataType: record.String, Required: true},
	record.Descriptor{ID: PayeeDisabled, Name: "Disabled", Kind: record.Plain, DataType: record.Bool},
	record.Descriptor{ID: PayeeNotes, Name: "Notes", Kind: record.Encrypted, DataType: record.String, MaxLength: 1024},
)}

func (s payeeSchema) Catalog() *record.Catalog  { return s.catalog }
func (s payeeSchema) NameField() record.FieldID { return PayeeName }

func (s payeeSchema) Validate(r *record.Record, rp *record.Report) {
	checkName(r, rp, PayeeName)
}

// Compare puts active payees first, then orders by name.
func (s payeeSchema) Compare(a, b *record.Record) int {
	return record.Compose(byFlag(PayeeDisabled), record.ByField(PayeeName))(a, b)
}

func (s payeeSchema) ApplyDefaults(r *record.Record) error {
	return setDefaults(r, map[record.FieldID]any{PayeeDisabled: false})
}
