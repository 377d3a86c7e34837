package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/moneykeeper/internal/dataset"
)

func (c *Cli) runList(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: usage: moneykeeper list [type]", ErrUsage)
	}
	ds, err := c.load(ctx)
	if err != nil {
		return err
	}

	lists := make([]*dataset.List, 0, len(ds.Types()))
	if len(args) == 1 {
		l, err := listOf(ds, args[0])
		if err != nil {
			return err
		}
		lists = append(lists, l)
	} else {
		for _, typ := range ds.Types() {
			l, _ := ds.List(typ)
			lists = append(lists, l)
		}
	}

	ds.Validate()
	for _, l := range lists {
		c.io.Printf("=== %s (%d) ===\n", l.Type(), l.Len())
		for r := range l.Records() {
			marker := ""
			switch {
			case r.IsDeleted():
				marker = " [deleted]"
			case !r.IsValid():
				marker = " [invalid]"
			}
			c.io.Printf("#%d %s%s\n", r.ID(), formatFields(r, ds.Lookup), marker)
		}
		c.io.Println()
	}
	return nil
}

func (c *Cli) runValidate(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: usage: moneykeeper validate", ErrUsage)
	}
	ds, err := c.load(ctx)
	if err != nil {
		return err
	}

	if ds.Validate() {
		c.io.Printf("All %d records are valid.\n", ds.Len())
		return nil
	}

	invalid := ds.Invalid()
	for _, r := range invalid {
		c.io.Printf("%s %s\n", r.Ref(), displayName(r))
		for _, e := range r.Errors() {
			d, _ := r.Catalog().Field(e.Field)
			c.io.Printf("    %s: %s\n", d.Name, e)
		}
	}
	return fmt.Errorf("%w: %d of %d", ErrInvalidRecords, len(invalid), ds.Len())
}
