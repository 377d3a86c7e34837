package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/record"
)

func (c *Cli) runRename(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: usage: moneykeeper rename <type> <old> <new>", ErrUsage)
	}
	ds, err := c.load(ctx)
	if err != nil {
		return err
	}

	n, err := c.edit(ctx, ds, func(s *dataset.Session) ([]*record.Record, error) {
		l, err := listOf(s.DataSet(), args[0])
		if err != nil {
			return nil, err
		}
		named, ok := l.Schema().(record.Named)
		if !ok {
			return nil, fmt.Errorf("%w: %s records have no name", ErrUsage, l.Type())
		}
		r, err := findRecord(l, args[1])
		if err != nil {
			return nil, err
		}
		if _, err := r.Set(named.NameField(), args[2]); err != nil {
			return nil, err
		}
		return []*record.Record{r}, nil
	})
	if err != nil {
		return err
	}

	if n == 0 {
		c.io.Println("Nothing changed.")
		return nil
	}
	c.io.Printf("Renamed %s %q to %q\n", args[0], args[1], args[2])
	return nil
}

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: usage: moneykeeper delete <type> <name|#id>", ErrUsage)
	}
	ds, err := c.load(ctx)
	if err != nil {
		return err
	}

	_, err = c.edit(ctx, ds, func(s *dataset.Session) ([]*record.Record, error) {
		l, err := listOf(s.DataSet(), args[0])
		if err != nil {
			return nil, err
		}
		r, err := findRecord(l, args[1])
		if err != nil {
			return nil, err
		}
		_, err = r.Delete()
		return nil, err
	})
	if err != nil {
		return err
	}

	c.io.Printf("Deleted %s %s\n", args[0], args[1])
	return nil
}
