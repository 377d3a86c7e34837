// Package cli implements the moneykeeper commands on top of a storage backend.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/iocli"
	"github.com/iudanet/moneykeeper/internal/storage"
)

// PasswordEnv is checked first when the password is needed
const PasswordEnv = "MONEYKEEPER_PASSWORD"

var (
	// ErrUnknownCommand indicates a command name Run does not know
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage indicates missing or malformed command arguments
	ErrUsage = errors.New("invalid arguments")

	// ErrInvalidRecords indicates records that failed validation
	ErrInvalidRecords = errors.New("invalid records")

	// ErrPasswordMismatch indicates that the password confirmation differs
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrRecordNotFound indicates that no live record matches the given name or id
	ErrRecordNotFound = errors.New("record not found")
)

// Store is a storage backend the commands can initialize, load and save.
type Store interface {
	storage.Codec
	Initialized(ctx context.Context) (bool, error)
}

// Opener opens another database of the same backend, used by diff.
type Opener func(ctx context.Context, path string) (Store, error)

type Passwords struct {
	FromFile string
	FromArgs string
}

type Option func(*Cli)

// WithKDFParams sets the Argon2id parameters for new control keys.
func WithKDFParams(params crypto.KDFParams) Option {
	return func(c *Cli) { c.kdf = params }
}

// WithLogger sets the logger handed to data sets created by init.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cli) { c.logger = logger }
}

type Cli struct {
	io        iocli.IO
	store     Store
	open      Opener
	logger    *slog.Logger
	passwords Passwords
	// password is cached after the first successful read
	password string
	kdf      crypto.KDFParams
}

func New(io iocli.IO, store Store, open Opener, passwords Passwords, opts ...Option) *Cli {
	c := &Cli{
		io:        io,
		store:     store,
		open:      open,
		passwords: passwords,
		logger:    slog.Default(),
		kdf:       crypto.DefaultKDFParams,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes command with its arguments.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "init":
		return c.runInit(ctx, args)
	case "add":
		return c.runAdd(ctx, args)
	case "add-payee":
		return c.runAddPayee(ctx, args)
	case "add-category":
		return c.runAddCategory(ctx, args)
	case "rename":
		return c.runRename(ctx, args)
	case "delete":
		return c.runDelete(ctx, args)
	case "list":
		return c.runList(ctx, args)
	case "validate":
		return c.runValidate(ctx, args)
	case "diff":
		return c.runDiff(ctx, args)
	case "rekey":
		return c.runRekey(ctx, args)
	case "help":
		PrintUsage(c.io)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

func PrintUsage(out iocli.IO) {
	out.Println("MoneyKeeper")
	out.Println()
	out.Println("Usage:")
	out.Println("  moneykeeper [OPTIONS] COMMAND [ARGS]")
	out.Println()
	out.Println("Options:")
	out.Println("  --version             Show version information")
	out.Println("  --db PATH             Path to the database (default: moneykeeper.db)")
	out.Println("  --backend NAME        Storage backend: bolt or sqlite (default: bolt)")
	out.Println("  --password PASSWORD   Password (not recommended, use env var or file)")
	out.Println("  --password-file PATH  Path to file containing the password")
	out.Println()
	out.Println("Password Priority (highest to lowest):")
	out.Println("  1. " + PasswordEnv + " environment variable")
	out.Println("  2. --password-file (file path)")
	out.Println("  3. --password (command line)")
	out.Println("  4. Interactive prompt (fallback)")
	out.Println()
	out.Println("Commands:")
	out.Println("  init <name> [CODE...]            Create a new data set, optionally with currencies")
	out.Println("  add <type> Field=Value...        Add a record (currency, payee, account, category, transaction)")
	out.Println("  add-payee <name>                 Add a payee")
	out.Println("  add-category <name> [parent]     Add a category")
	out.Println("  rename <type> <old> <new>        Rename a record")
	out.Println("  delete <type> <name|#id>         Delete a record (soft delete)")
	out.Println("  list [type]                      List records")
	out.Println("  validate                         Report invalid records")
	out.Println("  diff <other.db>                  Show what changed since another database")
	out.Println("  rekey                            Re-encrypt everything under a new password")
	out.Println()
	out.Println("Examples:")
	out.Println("  export " + PasswordEnv + "='mySecretPassword123'")
	out.Println("  moneykeeper init household USD EUR")
	out.Println("  moneykeeper add account Name=Checking Currency=USD OpeningBalance=100.00")
	out.Println("  moneykeeper add transaction Date=2024-05-01 Amount=12.50 Account=Checking PartnerKind=payee Partner=Grocer")
	out.Println("  moneykeeper --backend sqlite --db budget.sqlite list account")
}
