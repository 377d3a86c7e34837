package record

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// ErrorKind classifies a validation failure.
type ErrorKind uint8

const (
	Missing ErrorKind = iota
	Duplicate
	BadLength
	OutOfRange
	Negative
	Zero
	BadParent
	Disabled
	// Invalid marks a value that could not be read, e.g. failed decryption.
	Invalid
)

func (k ErrorKind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Duplicate:
		return "duplicate"
	case BadLength:
		return "bad length"
	case OutOfRange:
		return "out of range"
	case Negative:
		return "negative"
	case Zero:
		return "zero"
	case BadParent:
		return "bad parent"
	case Disabled:
		return "disabled"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// FieldError is one validation failure. Validation errors are data on the
// record, never returned as Go errors.
type FieldError struct {
	Message string
	Field   FieldID
	Kind    ErrorKind
}

func (e FieldError) String() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Lookup follows a link handle to the record it names.
type Lookup func(Ref) (*Record, bool)

// Report collects FieldErrors for one record during validation.
type Report struct {
	lookup Lookup
	errs   []FieldError
}

// Lookup follows a resolved link of the record under validation. It finds
// nothing when the record is validated outside a data set.
func (rp *Report) Lookup(ref Ref) (*Record, bool) {
	if rp.lookup == nil {
		return nil, false
	}
	return rp.lookup(ref)
}

// Add records a failure on field.
func (rp *Report) Add(field FieldID, kind ErrorKind, format string, args ...any) {
	rp.errs = append(rp.errs, FieldError{Field: field, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Has reports whether field already carries an error.
func (rp *Report) Has(field FieldID) bool {
	return slices.ContainsFunc(rp.errs, func(e FieldError) bool { return e.Field == field })
}

// Validate re-derives every FieldError from scratch and replaces the error
// list. It never fails.
func (r *Record) Validate() { r.ValidateWith(nil) }

// ValidateWith is Validate with link lookup for schema rules that inspect
// linked records.
func (r *Record) ValidateWith(lookup Lookup) {
	rp := &Report{lookup: lookup}
	for _, d := range r.catalog.fields {
		r.checkDescriptor(d, rp)
	}
	r.schema.Validate(r, rp)
	r.errors = rp.errs
}

func (r *Record) checkDescriptor(d Descriptor, rp *Report) {
	v := r.store.Get(d.ID)
	if v.IsNone() {
		if d.Required {
			rp.Add(d.ID, Missing, "%s is required", d.Name)
		}
		return
	}
	if v.kind == ValueLinkRaw {
		rp.Add(d.ID, Missing, "%s refers to an unknown record %v", d.Name, v.raw)
		return
	}
	if d.MaxLength <= 0 || d.Kind == Link {
		return
	}
	plain, err := r.Get(d.ID)
	if err != nil {
		rp.Add(d.ID, Invalid, "%s cannot be read: %v", d.Name, err)
		return
	}
	switch t := plain.(type) {
	case string:
		if utf8.RuneCountInString(t) > d.MaxLength {
			rp.Add(d.ID, BadLength, "%s exceeds %d characters", d.Name, d.MaxLength)
		}
	case []byte:
		if len(t) > d.MaxLength {
			rp.Add(d.ID, BadLength, "%s exceeds %d bytes", d.Name, d.MaxLength)
		}
	}
}

// AddError appends a failure found outside the record, e.g. a duplicate name
// detected by the owning list.
func (r *Record) AddError(e FieldError) {
	r.errors = append(r.errors, e)
}

// Errors returns the failures of the last validation.
func (r *Record) Errors() []FieldError { return slices.Clone(r.errors) }

// FieldErrors returns the failures on one field.
func (r *Record) FieldErrors(f FieldID) []FieldError {
	var out []FieldError
	for _, e := range r.errors {
		if e.Field == f {
			out = append(out, e)
		}
	}
	return out
}

// IsValid reports whether the last validation found no failures.
func (r *Record) IsValid() bool { return len(r.errors) == 0 }
