package record

import (
	"bytes"
	"cmp"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ValueKind tags the Value union.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueScalar
	ValueEncrypted
	ValueLinkRaw
	ValueLinkResolved
)

func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueScalar:
		return "scalar"
	case ValueEncrypted:
		return "encrypted"
	case ValueLinkRaw:
		return "raw link"
	case ValueLinkResolved:
		return "resolved link"
	default:
		return "unknown"
	}
}

// Ref is a (type, id) handle to a record in the same DataSet.
type Ref struct {
	Type Type
	ID   uint32
}

func (r Ref) String() string { return fmt.Sprintf("%s#%d", r.Type, r.ID) }

// Value is the tagged union stored per field. Values are immutable; setters
// always install a new Value.
type Value struct {
	scalar any
	pair   *EncryptedPair
	raw    any // uint32 id, string name or Ref placeholder
	ref    Ref
	kind   ValueKind
}

// None returns the empty value.
func None() Value { return Value{} }

// Scalar wraps a normalized scalar.
func Scalar(v any) Value { return Value{kind: ValueScalar, scalar: v} }

// EncryptedValue wraps a pair.
func EncryptedValue(p *EncryptedPair) Value { return Value{kind: ValueEncrypted, pair: p} }

// LinkID is an unresolved link by target id.
func LinkID(id uint32) Value { return Value{kind: ValueLinkRaw, raw: id} }

// LinkName is an unresolved link by target name.
func LinkName(name string) Value { return Value{kind: ValueLinkRaw, raw: name} }

// LinkPlaceholder is an unresolved link that already names its target object.
func LinkPlaceholder(ref Ref) Value { return Value{kind: ValueLinkRaw, raw: ref} }

// Resolved is a resolved link.
func Resolved(ref Ref) Value { return Value{kind: ValueLinkResolved, ref: ref} }

func (v Value) Kind() ValueKind        { return v.kind }
func (v Value) IsNone() bool           { return v.kind == ValueNone }
func (v Value) Scalar() any            { return v.scalar }
func (v Value) Pair() *EncryptedPair   { return v.pair }
func (v Value) Raw() any               { return v.raw }
func (v Value) Ref() (Ref, bool)       { return v.ref, v.kind == ValueLinkResolved }
func (v Value) IsUnresolvedLink() bool { return v.kind == ValueLinkRaw }

// Equal is structural equality. Encrypted values compare by pair identity,
// envelope bytes or cached plaintext; plaintext comparison across different
// envelopes needs a cipher and is done at the record level.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueNone:
		return true
	case ValueScalar:
		return scalarEqual(v.scalar, o.scalar)
	case ValueEncrypted:
		return v.pair.sameAs(o.pair)
	case ValueLinkRaw:
		return v.raw == o.raw
	case ValueLinkResolved:
		return v.ref == o.ref
	}
	return false
}

func scalarEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case Ref:
		y, ok := b.(Ref)
		return ok && x == y
	case string, int64, bool, uint32:
		return a == b
	}
	return false
}

// compareScalars orders two plaintext values of the same data type; nil sorts first.
func compareScalars(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmp.Compare(x, y)
		}
	case decimal.Decimal:
		if y, ok := b.(decimal.Decimal); ok {
			return x.Cmp(y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case []byte:
		if y, ok := b.([]byte); ok {
			return bytes.Compare(x, y)
		}
	case Ref:
		if y, ok := b.(Ref); ok {
			if c := cmp.Compare(x.Type, y.Type); c != 0 {
				return c
			}
			return cmp.Compare(x.ID, y.ID)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
