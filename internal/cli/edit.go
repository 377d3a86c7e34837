package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/record"
	"github.com/iudanet/moneykeeper/internal/storage"
)

// load opens the stored data set with the password
func (c *Cli) load(ctx context.Context) (*dataset.DataSet, error) {
	password, err := c.getPassword()
	if err != nil {
		return nil, err
	}
	ds, err := c.store.Load(ctx, password)
	if err != nil {
		if errors.Is(err, storage.ErrNotInitialized) {
			return nil, fmt.Errorf("%w: run 'moneykeeper init' first", err)
		}
		return nil, fmt.Errorf("failed to load data set: %w", err)
	}
	return ds, nil
}

// editFunc changes records inside a session and returns the ones to validate
type editFunc func(s *dataset.Session) ([]*record.Record, error)

// commitEdit runs fn inside an edit session of ds and commits it. Nothing
// reaches ds unless every returned record is valid and the commit succeeds.
func commitEdit(ds *dataset.DataSet, fn editFunc) (int, error) {
	s, err := ds.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin edit: %w", err)
	}
	defer s.Discard()

	touched, err := fn(s)
	if err != nil {
		return 0, err
	}
	for _, r := range touched {
		r.ValidateWith(s.DataSet().Lookup)
		if !r.IsValid() {
			return 0, fmt.Errorf("%w: %s", ErrInvalidRecords, describeErrors(r))
		}
	}

	n, err := s.Commit()
	if err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return n, nil
}

// edit commits fn against ds and saves the result
func (c *Cli) edit(ctx context.Context, ds *dataset.DataSet, fn editFunc) (int, error) {
	n, err := commitEdit(ds, fn)
	if err != nil {
		return 0, err
	}
	if err := c.store.Save(ctx, ds); err != nil {
		return 0, fmt.Errorf("failed to save data set: %w", err)
	}
	return n, nil
}

// listOf returns the list of a type named on the command line
func listOf(ds *dataset.DataSet, name string) (*dataset.List, error) {
	l, ok := ds.List(record.Type(strings.ToLower(name)))
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrUnknownType, name)
	}
	return l, nil
}

// findRecord looks a live record up by name or by "#id"
func findRecord(l *dataset.List, key string) (*record.Record, error) {
	var (
		r  *record.Record
		ok bool
	)
	if id, isID := strings.CutPrefix(key, "#"); isID {
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad id %q", ErrUsage, key)
		}
		r, ok = l.FindByID(uint32(n))
	} else {
		r, ok = l.FindByName(key)
	}
	if !ok || r.IsDeleted() {
		return nil, fmt.Errorf("%w: %s %q", ErrRecordNotFound, l.Type(), key)
	}
	return r, nil
}
