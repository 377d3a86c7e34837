package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/moneykeeper/internal/crypto"
)

const (
	thingType  Type = "thing"
	gadgetType Type = "gadget"
)

const (
	fName FieldID = iota
	fSecret
	fAmount
	fParent
	fHidden
)

var thingCatalog = NewCatalog(thingType,
	Descriptor{ID: fName, Name: "Name", Kind: Plain, DataType: String, Required: true, MaxLength: 10},
	Descriptor{ID: fSecret, Name: "Secret", Kind: Encrypted, DataType: String, MaxLength: 8},
	Descriptor{ID: fAmount, Name: "Amount", Kind: Encrypted, DataType: Decimal},
	Descriptor{ID: fParent, Name: "Parent", Kind: Link, Target: thingType},
	Descriptor{ID: fHidden, Name: "Hidden", Kind: Plain, DataType: Bool},
)

// thingSchema - тестовая схема: скрытые записи после видимых, затем по имени
type thingSchema struct{ catalog *Catalog }

func (s thingSchema) Catalog() *Catalog { return s.catalog }

func (s thingSchema) Validate(r *Record, rp *Report) {
	if ref, ok := r.Link(fParent); ok && ref.ID == r.ID() {
		rp.Add(fParent, BadParent, "record cannot be its own parent")
	}
}

func (s thingSchema) Compare(a, b *Record) int {
	return Compose(ByField(fHidden), ByField(fName))(a, b)
}

func (s thingSchema) ApplyDefaults(r *Record) error {
	_, err := r.Set(fHidden, false)
	return err
}

var things = thingSchema{catalog: thingCatalog}

var gadgets = thingSchema{catalog: NewCatalog(gadgetType,
	Descriptor{ID: 0, Name: "Name", Kind: Plain, DataType: String},
)}

func newTestKeyring(t *testing.T) *crypto.Keyring {
	t.Helper()
	key, err := crypto.NewControlKey("test-password-123", 1, crypto.KDFParams{Time: 1, Memory: 64, Threads: 1})
	require.NoError(t, err)
	return crypto.NewKeyring(key)
}

func newThing(t *testing.T, ring *crypto.Keyring, id uint32, name string) *Record {
	t.Helper()
	r, err := FromValues(things, ring, id, map[FieldID]any{
		fName:   name,
		fSecret: "s3cret",
		fAmount: "10.50",
	})
	require.NoError(t, err)
	return r
}
