package dataset

import (
	"errors"
	"fmt"

	"github.com/iudanet/moneykeeper/internal/record"
)

// Common data set errors
var (
	// ErrDuplicateID indicates an insert with an id already present in the list
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrDuplicateName indicates an insert that breaks the unique name index
	ErrDuplicateName = errors.New("duplicate record name")

	// ErrUnresolvedLink indicates a link whose target does not exist in the data set
	ErrUnresolvedLink = errors.New("unresolved link")

	// ErrUnknownType indicates a record type that is not registered in the data set
	ErrUnknownType = errors.New("unknown record type")

	// ErrLocked indicates a mutation while a lease is held
	ErrLocked = errors.New("data set is locked")

	// ErrSessionOpen indicates an operation that needs exclusive access while an edit session is open
	ErrSessionOpen = errors.New("edit session is open")

	// ErrSessionClosed indicates use of a committed or discarded session
	ErrSessionClosed = errors.New("edit session is closed")

	// ErrReadOnly indicates a mutation of a Difference data set
	ErrReadOnly = record.ErrReadOnly

	// ErrCatalogMismatch indicates two data sets that cannot be compared
	ErrCatalogMismatch = errors.New("catalog mismatch")

	// ErrNoKeyring indicates a key operation on a data set created without a keyring
	ErrNoKeyring = errors.New("data set has no keyring")
)

// LoadError reports a structural failure while inserting a record.
type LoadError struct {
	Err  error
	Type record.Type
	ID   uint32
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s#%d: %v", e.Type, e.ID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ResolutionError reports a link that could not be resolved.
type ResolutionError struct {
	Raw   any
	Type  record.Type
	Field string
	ID    uint32
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s#%d field %q: %v: %v", e.Type, e.ID, e.Field, ErrUnresolvedLink, e.Raw)
}

func (e *ResolutionError) Unwrap() error { return ErrUnresolvedLink }
