package record

import "errors"

// Record errors
var (
	// ErrUnknownField indicates a FieldID outside the record's catalog
	ErrUnknownField = errors.New("unknown field")

	// ErrBadValue indicates a value that cannot be converted to the field's data type
	ErrBadValue = errors.New("bad field value")

	// ErrNoCipher indicates an encrypted field on a record without a cipher
	ErrNoCipher = errors.New("no cipher for encrypted field")

	// ErrReadOnly indicates mutation of a record in a Difference list
	ErrReadOnly = errors.New("record is read-only")

	// ErrNothingToUndo indicates Undo on a record without history
	ErrNothingToUndo = errors.New("nothing to undo")
)
