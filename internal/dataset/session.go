package dataset

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/iudanet/moneykeeper/internal/record"
)

// Session is an isolated edit of a data set. Edits live in an Edit-style
// copy until Commit applies them; Discard drops them without touching the
// original.
type Session struct {
	core   *DataSet
	edit   *DataSet
	id     string
	closed bool
}

// Begin opens the data set's edit session. Only one session may be open at a time.
func (ds *DataSet) Begin() (*Session, error) {
	if err := ds.checkMutable(); err != nil {
		return nil, err
	}
	if ds.style == Edit {
		return nil, fmt.Errorf("%w: cannot begin a session on an edit data set", ErrReadOnly)
	}
	if ds.session != nil {
		return nil, ErrSessionOpen
	}

	s := &Session{
		id:   uuid.NewString(),
		core: ds,
		edit: ds.deriveEdit(),
	}
	ds.session = s
	ds.logger.Debug("edit session started", slog.String("dataset", ds.name), slog.String("session", s.id))
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// DataSet returns the Edit-style copy the session mutates.
func (s *Session) DataSet() *DataSet { return s.edit }

// Closed reports whether the session was committed or discarded.
func (s *Session) Closed() bool { return s.closed }

// Find returns the edit copy of a record in the session.
func (s *Session) Find(ref record.Ref) (*record.Record, bool) {
	return s.edit.Lookup(ref)
}

// Commit applies the session to the original data set and closes the
// session. Existing records receive their changes through ApplyChanges and
// follow soft deletes; new records are inserted. Every structural check runs
// before the first change, so a failed Commit leaves the original untouched
// and the session open. It returns the number of records changed.
func (s *Session) Commit() (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	if err := s.core.checkMutable(); err != nil {
		return 0, err
	}
	if err := s.edit.ResolveLinks(); err != nil {
		return 0, fmt.Errorf("failed to resolve session links: %w", err)
	}
	if err := s.precheck(); err != nil {
		return 0, err
	}

	changed := 0
	for _, typ := range s.edit.types {
		core := s.core.lists[typ]
		for _, r := range s.edit.lists[typ].inserted() {
			ok, err := s.apply(core, r)
			if err != nil {
				// precheck makes this unreachable for well-formed schemas
				return changed, fmt.Errorf("failed to apply %s: %w", r.Ref(), err)
			}
			if ok {
				changed++
			}
		}
		core.names = nil
	}

	s.close()
	s.core.logger.Info("edit session committed",
		slog.String("dataset", s.core.name),
		slog.String("session", s.id),
		slog.Int("changed", changed))
	return changed, nil
}

func (s *Session) apply(core *List, r *record.Record) (bool, error) {
	base := r.Base()
	if base == nil {
		if r.IsDeleted() {
			return false, nil
		}
		c := r.Clone()
		c.Commit()
		core.items[c.ID()] = c
		core.order = append(core.order, c.ID())
		core.nextID = max(core.nextID, c.ID()+1)
		return true, nil
	}

	changed, err := base.ApplyChanges(r)
	if err != nil {
		return false, err
	}
	if r.IsDeleted() != base.IsDeleted() {
		if r.IsDeleted() {
			_, err = base.Delete()
		} else {
			_, err = base.Undelete()
		}
		if err != nil {
			return false, err
		}
		changed = true
	}
	if changed {
		base.Commit()
	}
	return changed, nil
}

// precheck verifies that the committed state would keep ids and live names
// unique and that every changed field can be read.
func (s *Session) precheck() error {
	for _, typ := range s.edit.types {
		core, edit := s.core.lists[typ], s.edit.lists[typ]
		for _, r := range edit.inserted() {
			if base := r.Base(); base != nil {
				if _, err := record.DifferingFields(base, r); err != nil {
					return &LoadError{Type: typ, ID: r.ID(), Err: err}
				}
				continue
			}
			if !r.IsDeleted() && !core.DeduplicateCheck(r.ID()) {
				return &LoadError{Type: typ, ID: r.ID(), Err: ErrDuplicateID}
			}
		}
		if err := checkMergedNames(core, edit); err != nil {
			return err
		}
	}
	return nil
}

// checkMergedNames checks name uniqueness over the records core would hold
// after the commit: edit records replace their originals.
func checkMergedNames(core, edit *List) error {
	if !core.uniqueNames() {
		return nil
	}
	seen := make(map[string]uint32)
	check := func(r *record.Record) error {
		if r.IsDeleted() {
			return nil
		}
		name, ok, err := core.nameOf(r)
		if err != nil {
			return &LoadError{Type: core.typ, ID: r.ID(), Err: err}
		}
		if !ok {
			return nil
		}
		if other, dup := seen[name]; dup {
			return &LoadError{Type: core.typ, ID: r.ID(), Err: fmt.Errorf("%w: %q is used by #%d", ErrDuplicateName, name, other)}
		}
		seen[name] = r.ID()
		return nil
	}

	for _, id := range core.order {
		if _, replaced := edit.items[id]; replaced {
			continue
		}
		if err := check(core.items[id]); err != nil {
			return err
		}
	}
	for _, r := range edit.inserted() {
		if err := check(r); err != nil {
			return err
		}
	}
	return nil
}

// Discard closes the session without applying anything. Discarding a closed
// session is a no-op, so it can be deferred.
func (s *Session) Discard() {
	if s.closed {
		return
	}
	s.close()
	s.core.logger.Debug("edit session discarded", slog.String("dataset", s.core.name), slog.String("session", s.id))
}

func (s *Session) close() {
	s.closed = true
	if s.core.session == s {
		s.core.session = nil
	}
}
