package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/mrlokans/depot/internal/batch"
	"github.com/mrlokans/depot/internal/config"
)

// ImportCommand applies a JSON batch file in one transaction.
type ImportCommand struct {
	FilePath     string
	DatabasePath string
	DryRun       bool
	Verbose      bool

	out io.Writer
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{out: os.Stdout}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)

	fs.StringVarP(&cmd.FilePath, "file", "f", "", "Path to the JSON batch file (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the depot database file")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Validate the batch without writing it")
	fs.BoolVarP(&cmd.Verbose, "verbose", "v", false, "Log SQL statements")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import -f <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Apply a batch of operations to the depot database. The file holds\n")
		fmt.Fprintf(os.Stderr, "a list of {\"store\": ..., \"operations\": [...]} descriptors; either\n")
		fmt.Fprintf(os.Stderr, "every operation is applied or none is.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.FilePath == "" {
		return fmt.Errorf("required flag --file not provided")
	}
	return nil
}

func (cmd *ImportCommand) Run(ctx context.Context) error {
	data, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}
	descriptors, err := batch.DecodeDescriptors(data)
	if err != nil {
		return err
	}
	stores, err := batch.Validate(descriptors)
	if err != nil {
		return err
	}

	ops := 0
	for _, d := range descriptors {
		ops += len(d.Operations)
	}
	if cmd.DryRun {
		fmt.Fprintf(cmd.out, "Batch is valid: %d operation(s) over %v\n", ops, stores)
		return nil
	}

	storage, err := openStorage(ctx, cmd.DatabasePath, 0, cmd.Verbose)
	if err != nil {
		return err
	}
	defer storage.Disconnect()

	if err := storage.AtomicImport(ctx, descriptors); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(cmd.out, "Imported %d operation(s) over %v\n", ops, stores)
	return nil
}
