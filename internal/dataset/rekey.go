package dataset

import (
	"fmt"
	"log/slog"

	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/record"
)

// Rekey re-encrypts every encrypted value of every record, history
// included, from oldKey to newKey, then makes newKey current and retires
// oldKey. It needs exclusive access: no open session and no lease. If any
// value fails to re-encrypt nothing is replaced.
func (ds *DataSet) Rekey(oldKey, newKey *crypto.ControlKey) error {
	if err := ds.checkMutable(); err != nil {
		return err
	}
	if ds.session != nil {
		return ErrSessionOpen
	}
	if err := ds.checkRekeyKeys(oldKey, newKey); err != nil {
		return err
	}

	replaced := make(map[*record.EncryptedPair]*record.EncryptedPair)
	for r := range ds.Records() {
		for p := range r.Store().Pairs() {
			if _, done := replaced[p]; done {
				continue
			}
			np, err := p.Reseal(oldKey, newKey)
			if err != nil {
				return fmt.Errorf("failed to rekey %s: %w", r.Ref(), err)
			}
			replaced[p] = np
		}
	}

	for r := range ds.Records() {
		r.Store().ReplacePairs(replaced)
	}
	if err := ds.keyring.Install(newKey); err != nil {
		return fmt.Errorf("failed to install key: %w", err)
	}
	ds.keyring.Retire(oldKey.Generation)

	ds.logger.Info("data set re-keyed",
		slog.String("dataset", ds.name),
		slog.Int("values", len(replaced)),
		slog.Uint64("generation", uint64(newKey.Generation)))
	return nil
}

func (ds *DataSet) checkRekeyKeys(oldKey, newKey *crypto.ControlKey) error {
	if ds.keyring == nil {
		return ErrNoKeyring
	}
	if oldKey == nil || newKey == nil {
		return fmt.Errorf("%w: missing control key", crypto.ErrKeyMismatch)
	}
	current := ds.keyring.Current()
	if oldKey.Generation != current.Generation {
		return fmt.Errorf("%w: generation %d is not current (%d)", crypto.ErrKeyMismatch, oldKey.Generation, current.Generation)
	}
	want, err := crypto.Fingerprint(current)
	if err != nil {
		return err
	}
	if err := crypto.VerifyFingerprint(oldKey, want); err != nil {
		return err
	}
	if newKey.Generation <= oldKey.Generation {
		return fmt.Errorf("new generation %d must be greater than %d", newKey.Generation, oldKey.Generation)
	}
	return nil
}
