// Package record implements the generic substrate every entity is built on:
// field catalogs, the versioned value store with its history stack, the
// encrypted-pair representation of sensitive fields and the record lifecycle.
package record

import (
	"fmt"
	"slices"
)

// Type identifies a record type (and the list holding records of that type).
type Type string

// FieldID indexes a field inside its type's Catalog. Domain packages declare
// FieldIDs as consecutive constants starting at zero.
type FieldID int

// FieldKind describes how a field is stored.
type FieldKind uint8

const (
	// Plain fields hold scalars as-is.
	Plain FieldKind = iota
	// Encrypted fields hold an EncryptedPair under the dataset control key.
	Encrypted
	// Link fields reference another record through a Ref.
	Link
)

func (k FieldKind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Encrypted:
		return "encrypted"
	case Link:
		return "link"
	default:
		return "unknown"
	}
}

// DataType is the scalar type of a Plain or Encrypted field.
type DataType uint8

const (
	String DataType = iota
	Integer
	Decimal
	Date
	Bool
	Bytes
)

func (d DataType) String() string {
	switch d {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case Date:
		return "date"
	case Bool:
		return "bool"
	case Bytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Dispatch selects the target list of a polymorphic link from the value of
// another (plain string) field on the same record.
type Dispatch struct {
	Targets   map[string]Type
	KindField FieldID
}

// Descriptor is one immutable field declaration.
type Descriptor struct {
	Dispatch  *Dispatch
	Name      string
	Target    Type
	ID        FieldID
	MaxLength int
	Kind      FieldKind
	DataType  DataType
	Required  bool
}

// Targets returns every list the link field may point into.
func (d Descriptor) Targets() []Type {
	if d.Kind != Link {
		return nil
	}
	if d.Dispatch == nil {
		return []Type{d.Target}
	}
	out := make([]Type, 0, len(d.Dispatch.Targets))
	for _, t := range d.Dispatch.Targets {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out
}

// Catalog is the ordered field table of one record type. It is built once at
// startup and shared by every record of that type.
type Catalog struct {
	byName map[string]FieldID
	typ    Type
	fields []Descriptor
}

// NewCatalog builds a catalog. Field IDs must be 0..n-1 in declaration order
// and names must be unique; violations are programming errors and panic.
func NewCatalog(typ Type, fields ...Descriptor) *Catalog {
	c := &Catalog{
		typ:    typ,
		fields: slices.Clone(fields),
		byName: make(map[string]FieldID, len(fields)),
	}
	for i, f := range c.fields {
		if int(f.ID) != i {
			panic(fmt.Sprintf("record: %s field %q has id %d, want %d", typ, f.Name, f.ID, i))
		}
		if _, dup := c.byName[f.Name]; dup {
			panic(fmt.Sprintf("record: %s field %q declared twice", typ, f.Name))
		}
		if f.Kind == Link && f.Target == "" && f.Dispatch == nil {
			panic(fmt.Sprintf("record: %s link field %q has no target", typ, f.Name))
		}
		if f.Dispatch != nil && (int(f.Dispatch.KindField) >= len(fields) || fields[f.Dispatch.KindField].Kind != Plain) {
			panic(fmt.Sprintf("record: %s link field %q dispatches on a non-plain field", typ, f.Name))
		}
		c.byName[f.Name] = f.ID
	}
	return c
}

// Type returns the record type the catalog describes.
func (c *Catalog) Type() Type { return c.typ }

// Len returns the number of fields.
func (c *Catalog) Len() int { return len(c.fields) }

// Field returns the descriptor of id.
func (c *Catalog) Field(id FieldID) (Descriptor, bool) {
	if id < 0 || int(id) >= len(c.fields) {
		return Descriptor{}, false
	}
	return c.fields[id], true
}

// Lookup finds a field by name.
func (c *Catalog) Lookup(name string) (FieldID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// Fields returns the descriptors in declaration order.
func (c *Catalog) Fields() []Descriptor {
	return slices.Clone(c.fields)
}

// LinkTargets returns the distinct types this catalog links to, excluding itself.
func (c *Catalog) LinkTargets() []Type {
	var out []Type
	for _, f := range c.fields {
		for _, t := range f.Targets() {
			if t != c.typ && !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// Equal reports whether two catalogs declare the same fields.
func (c *Catalog) Equal(other *Catalog) bool {
	if c == other {
		return true
	}
	if other == nil || c.typ != other.typ || len(c.fields) != len(other.fields) {
		return false
	}
	for i, f := range c.fields {
		g := other.fields[i]
		if f.Name != g.Name || f.Kind != g.Kind || f.DataType != g.DataType || f.Target != g.Target {
			return false
		}
	}
	return true
}
