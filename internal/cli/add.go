package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/finance"
	"github.com/iudanet/moneykeeper/internal/record"
)

// assignment is one Field=Value argument
type assignment struct {
	field string
	value string
}

func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("%w: expected Field=Value, got %q", ErrUsage, arg)
		}
		out = append(out, assignment{field: field, value: value})
	}
	return out, nil
}

func (c *Cli) runAdd(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: moneykeeper add <type> Field=Value...", ErrUsage)
	}
	as, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	return c.addRecord(ctx, args[0], as)
}

func (c *Cli) runAddPayee(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: moneykeeper add-payee <name>", ErrUsage)
	}
	return c.addRecord(ctx, string(finance.PayeeType), []assignment{{field: "Name", value: args[0]}})
}

func (c *Cli) runAddCategory(ctx context.Context, args []string) error {
	if len(args) != 1 && len(args) != 2 {
		return fmt.Errorf("%w: usage: moneykeeper add-category <name> [parent]", ErrUsage)
	}
	as := []assignment{{field: "Name", value: args[0]}}
	if len(args) == 2 {
		as = append(as, assignment{field: "Parent", value: args[1]})
	}
	return c.addRecord(ctx, string(finance.CategoryType), as)
}

func (c *Cli) addRecord(ctx context.Context, typ string, as []assignment) error {
	ds, err := c.load(ctx)
	if err != nil {
		return err
	}

	var added *record.Record
	_, err = c.edit(ctx, ds, func(s *dataset.Session) ([]*record.Record, error) {
		edit := s.DataSet()
		l, err := listOf(edit, typ)
		if err != nil {
			return nil, err
		}
		r, err := edit.NewRecord(l.Type())
		if err != nil {
			return nil, err
		}
		if err := assign(edit, r, as); err != nil {
			return nil, err
		}
		if err := edit.Add(r); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", l.Type(), err)
		}
		added = r
		return []*record.Record{r}, nil
	})
	if err != nil {
		return err
	}

	c.io.Printf("Added %s #%d %s\n", added.Type(), added.ID(), displayName(added))
	return nil
}

// assign sets every assignment on r. Plain and encrypted fields go first so
// a polymorphic link can read its kind field.
func assign(ds *dataset.DataSet, r *record.Record, as []assignment) error {
	for _, links := range []bool{false, true} {
		for _, a := range as {
			d, ok := fieldByName(r.Catalog(), a.field)
			if !ok {
				return fmt.Errorf("%w: %s has no field %q", ErrUsage, r.Type(), a.field)
			}
			if (d.Kind == record.Link) != links {
				continue
			}
			v, err := parseValue(ds, r, d, a.value)
			if err != nil {
				return fmt.Errorf("field %s: %w", d.Name, err)
			}
			if _, err := r.Set(d.ID, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func fieldByName(c *record.Catalog, name string) (record.Descriptor, bool) {
	for _, d := range c.Fields() {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return record.Descriptor{}, false
}

// parseValue converts command line text to a setter value. Text is handed
// to the setter as is for strings, decimals and dates.
func parseValue(ds *dataset.DataSet, r *record.Record, d record.Descriptor, text string) (any, error) {
	if d.Kind == record.Link {
		return linkValue(ds, r, d, text)
	}
	if text == "" {
		return nil, nil
	}
	switch d.DataType {
	case record.Bool:
		return strconv.ParseBool(text)
	case record.Integer:
		return strconv.ParseInt(text, 10, 64)
	case record.Bytes:
		return []byte(text), nil
	default:
		return text, nil
	}
}

func linkValue(ds *dataset.DataSet, r *record.Record, d record.Descriptor, text string) (any, error) {
	target := d.Target
	if d.Dispatch != nil {
		kind, _ := record.As[string](r, d.Dispatch.KindField)
		t, ok := d.Dispatch.Targets[kind]
		if !ok {
			kd, _ := r.Catalog().Field(d.Dispatch.KindField)
			return nil, fmt.Errorf("%w: set %s first", ErrUsage, kd.Name)
		}
		target = t
	}
	l, ok := ds.List(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrUnknownType, target)
	}
	return findRecord(l, text)
}
