package dataset

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/iudanet/moneykeeper/internal/record"
)

type assignment struct {
	rec   *record.Record
	field record.FieldID
	ref   record.Ref
}

// ResolveLinks turns every raw link into a resolved handle. Types are visited
// in dependency order. On the first unknown target the owning record gets a
// Missing error and an *ResolutionError is returned; no link is rewritten in
// that case. Already resolved links are left alone, so the pass can be re-run.
func (ds *DataSet) ResolveLinks() error {
	if err := ds.checkMutable(); err != nil {
		return err
	}

	var pending []assignment
	for _, typ := range ds.resolutionOrder() {
		for _, r := range ds.lists[typ].inserted() {
			found, err := ds.resolveRecord(r)
			if err != nil {
				return err
			}
			pending = append(pending, found...)
		}
	}

	for _, a := range pending {
		a.rec.SetResolved(a.field, a.ref)
	}
	if len(pending) > 0 {
		ds.logger.Debug("links resolved", slog.String("dataset", ds.name), slog.Int("count", len(pending)))
	}
	return nil
}

func (ds *DataSet) resolveRecord(r *record.Record) ([]assignment, error) {
	var out []assignment
	for _, d := range r.Catalog().Fields() {
		if d.Kind != record.Link {
			continue
		}
		v := r.Value(d.ID)
		if !v.IsUnresolvedLink() {
			continue
		}
		ref, ok := ds.resolveRaw(r, d, v.Raw())
		if !ok {
			r.AddError(record.FieldError{
				Field:   d.ID,
				Kind:    record.Missing,
				Message: fmt.Sprintf("unknown reference %v", v.Raw()),
			})
			return nil, &ResolutionError{Type: r.Type(), ID: r.ID(), Field: d.Name, Raw: v.Raw()}
		}
		out = append(out, assignment{rec: r, field: d.ID, ref: ref})
	}
	return out, nil
}

func (ds *DataSet) resolveRaw(r *record.Record, d record.Descriptor, raw any) (record.Ref, bool) {
	target, ok := ds.linkTarget(r, d)
	if !ok {
		return record.Ref{}, false
	}
	l, ok := ds.lists[target]
	if !ok {
		return record.Ref{}, false
	}

	switch t := raw.(type) {
	case uint32:
		if tr, ok := l.FindByID(t); ok {
			return tr.Ref(), true
		}
	case string:
		if tr, ok := l.FindByName(t); ok {
			return tr.Ref(), true
		}
	case record.Ref:
		if t.Type != target {
			return record.Ref{}, false
		}
		if _, ok := ds.Lookup(t); ok {
			return t, true
		}
	}
	return record.Ref{}, false
}

// linkTarget picks the list a link points into. Polymorphic links read the
// kind field and map it through the dispatch table.
func (ds *DataSet) linkTarget(r *record.Record, d record.Descriptor) (record.Type, bool) {
	if d.Dispatch == nil {
		return d.Target, true
	}
	kind, err := record.As[string](r, d.Dispatch.KindField)
	if err != nil {
		return "", false
	}
	target, ok := d.Dispatch.Targets[kind]
	return target, ok
}

// resolutionOrder sorts the registered types so that link targets come before
// the types that reference them. Ties and cycles fall back to registration order.
func (ds *DataSet) resolutionOrder() []record.Type {
	deps := make(map[record.Type][]record.Type, len(ds.types))
	for _, typ := range ds.types {
		for _, target := range ds.lists[typ].schema.Catalog().LinkTargets() {
			if _, ok := ds.lists[target]; ok {
				deps[typ] = append(deps[typ], target)
			}
		}
	}

	done := make(map[record.Type]bool, len(ds.types))
	order := make([]record.Type, 0, len(ds.types))
	for len(order) < len(ds.types) {
		next := -1
		for i, typ := range ds.types {
			if done[typ] {
				continue
			}
			if next < 0 {
				next = i
			}
			ready := !slices.ContainsFunc(deps[typ], func(t record.Type) bool { return !done[t] })
			if ready {
				next = i
				break
			}
		}
		typ := ds.types[next]
		done[typ] = true
		order = append(order, typ)
	}
	return order
}
