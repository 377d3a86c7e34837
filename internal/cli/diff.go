package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/record"
)

// runDiff shows what changed in the current database since another one
func (c *Cli) runDiff(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: moneykeeper diff <other.db>", ErrUsage)
	}
	ds, err := c.load(ctx)
	if err != nil {
		return err
	}

	other, err := c.open(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer other.Close()

	password, err := c.getPassword()
	if err != nil {
		return err
	}
	old, err := other.Load(ctx, password)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}

	diff, err := dataset.Diff(ds, old)
	if err != nil {
		return err
	}
	if diff.Len() == 0 {
		c.io.Println("No differences.")
		return nil
	}

	lookup := func(ref record.Ref) (*record.Record, bool) {
		if r, ok := ds.Lookup(ref); ok {
			return r, true
		}
		return old.Lookup(ref)
	}
	for r := range diff.Records() {
		change := r.Change()
		switch change.Kind {
		case record.Inserted:
			c.io.Printf("+ %s %s\n", r.Ref(), formatFields(r, lookup))
		case record.Deleted:
			c.io.Printf("- %s %s\n", r.Ref(), formatFields(r, lookup))
		case record.Changed:
			c.io.Printf("~ %s %s\n", r.Ref(), displayName(r))
			for _, fc := range change.Fields {
				d, _ := r.Catalog().Field(fc.Field)
				c.io.Printf("    %s: %s -> %s\n", d.Name, formatValue(fc.Before, lookup), formatValue(fc.After, lookup))
			}
		}
	}
	c.io.Printf("%d record(s) differ.\n", diff.Len())
	return nil
}
