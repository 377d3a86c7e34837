package finance

import "github.com/iudanet/moneykeeper/internal/record"

// CategoryType is the record type of categories.
const CategoryType record.Type = "category"

// Category fields
const (
	CategoryName record.FieldID = iota
	CategoryParent
)

type categorySchema struct{ catalog *record.Catalog }

// Categories is the category schema. Categories form a two-level tree: a
// category with a parent cannot itself be a parent.
var Categories = categorySchema{catalog: record.NewCatalog(CategoryType,
	record.Descriptor{ID: CategoryName, Name: "Name", Kind: record.Plain, DataType: record.String, Required: true},
	record.Descriptor{ID: CategoryParent, Name: "Parent", Kind: record.Link, Target: CategoryType},
)}

func (s categorySchema) Catalog() *record.Catalog  { return s.catalog }
func (s categorySchema) NameField() record.FieldID { return CategoryName }

func (s categorySchema) Validate(r *record.Record, rp *record.Report) {
	checkName(r, rp, CategoryName)

	ref, ok := r.Link(CategoryParent)
	if !ok {
		return
	}
	if ref == r.Ref() {
		rp.Add(CategoryParent, record.BadParent, "category cannot be its own parent")
		return
	}
	if parent, found := rp.Lookup(ref); found {
		if _, nested := parent.Link(CategoryParent); nested {
			rp.Add(CategoryParent, record.BadParent, "parent %s is itself a subcategory", ref)
		}
	}
}

// Compare puts top-level categories first and groups subcategories by parent.
func (s categorySchema) Compare(a, b *record.Record) int {
	return record.Compose(record.ByField(CategoryParent), record.ByField(CategoryName))(a, b)
}
