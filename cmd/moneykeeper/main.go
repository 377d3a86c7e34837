package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/iudanet/moneykeeper/internal/cli"
	"github.com/iudanet/moneykeeper/internal/crypto"
	"github.com/iudanet/moneykeeper/internal/dataset"
	"github.com/iudanet/moneykeeper/internal/finance"
	"github.com/iudanet/moneykeeper/internal/iocli"
	"github.com/iudanet/moneykeeper/internal/storage"
	"github.com/iudanet/moneykeeper/internal/storage/boltdb"
	"github.com/iudanet/moneykeeper/internal/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	dbPath := flag.String("db", "moneykeeper.db", "Path to database")
	backend := flag.String("backend", "bolt", "Storage backend: bolt or sqlite")
	password := flag.String("password", "", "Password (not recommended, use "+cli.PasswordEnv+" or --password-file)")
	passwordFile := flag.String("password-file", "", "Path to file containing the password")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	stdio := iocli.NewStdio()

	// Получаем команду
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage(stdio)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	open, err := opener(*backend, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := open(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}

	c := cli.New(stdio, store, open, cli.Passwords{FromFile: *passwordFile, FromArgs: *password}, cli.WithLogger(logger))
	runErr := c.Run(ctx, args[0], args[1:])

	if err := store.Close(); err != nil {
		logger.Error("failed to close database", slog.Any("error", err))
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		if errors.Is(runErr, cli.ErrUnknownCommand) {
			cli.PrintUsage(stdio)
		}
		os.Exit(1)
	}
}

// opener returns the constructor of the selected backend
func opener(backend string, logger *slog.Logger) (cli.Opener, error) {
	factory := storage.Factory(func(name string, keyring *crypto.Keyring) (*dataset.DataSet, error) {
		return finance.NewDataSet(name, keyring, dataset.WithLogger(logger))
	})

	switch backend {
	case "bolt", "boltdb":
		return func(ctx context.Context, path string) (cli.Store, error) {
			s, err := boltdb.New(ctx, path, factory, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		}, nil
	case "sqlite":
		return func(ctx context.Context, path string) (cli.Store, error) {
			s, err := sqlite.New(ctx, path, factory, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q, use bolt or sqlite", backend)
	}
}

func printVersion() {
	fmt.Printf("MoneyKeeper\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
