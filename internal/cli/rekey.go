package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/moneykeeper/internal/crypto"
)

func (c *Cli) runRekey(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: usage: moneykeeper rekey", ErrUsage)
	}
	ds, err := c.load(ctx)
	if err != nil {
		return err
	}

	password, err := c.newPassword("New password: ")
	if err != nil {
		return err
	}
	key, err := crypto.NewControlKey(password, ds.Generation()+1, c.kdf)
	if err != nil {
		return fmt.Errorf("failed to derive control key: %w", err)
	}

	if err := ds.Rekey(ds.Keyring().Current(), key); err != nil {
		return fmt.Errorf("failed to rekey: %w", err)
	}
	if err := c.store.Save(ctx, ds); err != nil {
		return fmt.Errorf("failed to save data set: %w", err)
	}
	c.password = password

	c.io.Printf("Control key rotated to generation %d.\n", key.Generation)
	return nil
}
