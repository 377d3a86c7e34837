package record

import (
	"iter"
	"maps"
	"slices"
)

type snapshot struct {
	values  map[FieldID]Value
	deleted bool
}

func (s snapshot) clone() snapshot {
	return snapshot{values: maps.Clone(s.values), deleted: s.deleted}
}

func (s snapshot) equal(o snapshot) bool {
	if s.deleted != o.deleted || len(s.values) != len(o.values) {
		return false
	}
	for f, v := range s.values {
		w, ok := o.values[f]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

// ValueStore holds the current field values of one record plus a stack of
// prior snapshots. An empty stack means no pending edit.
//
// Interactive setters follow PushHistory; mutate; CheckForHistory.
type ValueStore struct {
	history []snapshot
	current snapshot
}

// NewValueStore creates an empty store.
func NewValueStore() *ValueStore {
	return &ValueStore{current: snapshot{values: make(map[FieldID]Value)}}
}

// Get returns the current value of f (None when unset).
func (s *ValueStore) Get(f FieldID) Value {
	return s.current.values[f]
}

// Set overwrites f without capturing history. Used by load and resolution only.
func (s *ValueStore) Set(f FieldID, v Value) {
	if v.IsNone() {
		delete(s.current.values, f)
		return
	}
	s.current.values[f] = v
}

// Deleted reports the soft-delete flag of the current snapshot.
func (s *ValueStore) Deleted() bool { return s.current.deleted }

// SetDeleted overwrites the soft-delete flag without capturing history.
func (s *ValueStore) SetDeleted(deleted bool) { s.current.deleted = deleted }

// PushHistory copies the current snapshot onto the history stack.
func (s *ValueStore) PushHistory() {
	s.history = append(s.history, s.current.clone())
}

// CheckForHistory compares the most recent snapshot with the current state.
// When they are identical the snapshot is popped and false is returned.
func (s *ValueStore) CheckForHistory() bool {
	n := len(s.history)
	if n == 0 {
		return false
	}
	if s.history[n-1].equal(s.current) {
		s.history = s.history[:n-1]
		return false
	}
	return true
}

// Commit permanently discards the oldest snapshot.
func (s *ValueStore) Commit() {
	if len(s.history) == 0 {
		return
	}
	s.history = slices.Delete(s.history, 0, 1)
}

// CommitAll discards every snapshot, making the current state the baseline.
func (s *ValueStore) CommitAll() {
	s.history = nil
}

// Undo restores the most recent snapshot. It returns false when there is
// nothing to undo.
func (s *ValueStore) Undo() bool {
	n := len(s.history)
	if n == 0 {
		return false
	}
	s.current = s.history[n-1]
	s.history = s.history[:n-1]
	return true
}

// Depth returns the number of pending snapshots.
func (s *ValueStore) Depth() int { return len(s.history) }

// Clone returns an independent copy, history included.
func (s *ValueStore) Clone() *ValueStore {
	out := &ValueStore{current: s.current.clone()}
	if len(s.history) > 0 {
		out.history = make([]snapshot, len(s.history))
		for i, h := range s.history {
			out.history[i] = h.clone()
		}
	}
	return out
}

// CloneCurrent returns a copy holding only the current snapshot.
func (s *ValueStore) CloneCurrent() *ValueStore {
	return &ValueStore{current: s.current.clone()}
}

// Equal reports whether the current snapshots are structurally identical.
func (s *ValueStore) Equal(o *ValueStore) bool {
	return s.current.equal(o.current)
}

// Fields iterates the current non-empty values in field order.
func (s *ValueStore) Fields() iter.Seq2[FieldID, Value] {
	return func(yield func(FieldID, Value) bool) {
		for _, f := range slices.Sorted(maps.Keys(s.current.values)) {
			if !yield(f, s.current.values[f]) {
				return
			}
		}
	}
}

// Pairs iterates every encrypted pair in the current snapshot and in history.
// A pair shared between snapshots is yielded once per occurrence.
func (s *ValueStore) Pairs() iter.Seq[*EncryptedPair] {
	return func(yield func(*EncryptedPair) bool) {
		for _, snap := range append([]snapshot{s.current}, s.history...) {
			for _, v := range snap.values {
				if v.kind == ValueEncrypted && !yield(v.pair) {
					return
				}
			}
		}
	}
}

// ReplacePairs swaps pairs according to m in the current snapshot and in
// history. Pairs missing from m are left untouched.
func (s *ValueStore) ReplacePairs(m map[*EncryptedPair]*EncryptedPair) {
	replace := func(snap snapshot) {
		for f, v := range snap.values {
			if v.kind != ValueEncrypted {
				continue
			}
			if np, ok := m[v.pair]; ok {
				snap.values[f] = EncryptedValue(np)
			}
		}
	}
	replace(s.current)
	for _, h := range s.history {
		replace(h)
	}
}
