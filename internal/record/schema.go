package record

// Schema is implemented by every domain type. It supplies the field catalog,
// the domain validation rules and the type-specific ordering.
type Schema interface {
	Catalog() *Catalog
	// Validate adds domain FieldErrors to report. Generic checks driven by
	// descriptors (Required, MaxLength, unresolved links) run before it.
	Validate(r *Record, report *Report)
	// Compare orders two records of this type. Returning 0 is allowed;
	// Compare in this package breaks ties on identity.
	Compare(a, b *Record) int
}

// Named is implemented by schemas whose lists keep a unique name index.
type Named interface {
	NameField() FieldID
}

// Defaulter is implemented by schemas that prefill interactively created records.
type Defaulter interface {
	ApplyDefaults(r *Record) error
}
