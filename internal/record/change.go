package record

// ChangeKind tags a record in a difference set.
type ChangeKind uint8

const (
	Inserted ChangeKind = iota + 1
	Deleted
	Changed
)

func (k ChangeKind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case Deleted:
		return "deleted"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// FieldChange is the before/after plaintext of one differing field.
type FieldChange struct {
	Before any
	After  any
	Field  FieldID
}

// Change describes why a record appears in a difference set.
type Change struct {
	Fields []FieldChange
	Kind   ChangeKind
}

// Before returns the prior plaintext of f for Changed records.
func (c *Change) Before(f FieldID) (any, bool) {
	for _, fc := range c.Fields {
		if fc.Field == f {
			return fc.Before, true
		}
	}
	return nil, false
}
