package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/finance"
	"github.com/iudanet/moneykeeper/internal/record"
	"github.com/iudanet/moneykeeper/internal/storage"
	"github.com/iudanet/moneykeeper/internal/validation"
)

func (c *Cli) runInit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: moneykeeper init <name> [CODE...]", ErrUsage)
	}
	name, codes := args[0], args[1:]
	if err := validation.ValidateName(name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}
	for _, code := range codes {
		if err := validation.ValidateCurrencyCode(code); err != nil {
			return fmt.Errorf("invalid currency %q: %w", code, err)
		}
	}

	ok, err := c.store.Initialized(ctx)
	if err != nil {
		return fmt.Errorf("failed to check database: %w", err)
	}
	if ok {
		return storage.ErrAlreadyInitialized
	}

	password, interactive, err := c.readPassword()
	if err != nil {
		return err
	}
	if interactive {
		confirm, err := c.io.ReadPassword("Repeat password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if confirm != password {
			return ErrPasswordMismatch
		}
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	key, err := crypto.NewControlKey(password, 1, c.kdf)
	if err != nil {
		return fmt.Errorf("failed to derive control key: %w", err)
	}
	ds, err := finance.NewDataSet(name, crypto.NewKeyring(key), dataset.WithLogger(c.logger))
	if err != nil {
		return err
	}

	if len(codes) > 0 {
		_, err := commitEdit(ds, func(s *dataset.Session) ([]*record.Record, error) {
			var added []*record.Record
			for _, code := range codes {
				r, err := s.DataSet().NewRecord(finance.CurrencyType)
				if err != nil {
					return nil, err
				}
				if _, err := r.Set(finance.CurrencyCode, code); err != nil {
					return nil, err
				}
				if err := s.DataSet().Add(r); err != nil {
					return nil, fmt.Errorf("failed to add currency %s: %w", code, err)
				}
				added = append(added, r)
			}
			return added, nil
		})
		if err != nil {
			return err
		}
	}

	if err := c.store.Save(ctx, ds); err != nil {
		return fmt.Errorf("failed to save data set: %w", err)
	}
	c.password = password

	c.io.Printf("Data set %q created with %d currencies.\n", name, len(codes))
	return nil
}
