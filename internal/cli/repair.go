package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/mrlokans/depot/internal/config"
)

// RepairCommand deletes orphaned records.
type RepairCommand struct {
	DatabasePath string
	DryRun       bool
	Verbose      bool

	out io.Writer
}

func NewRepairCommand() *RepairCommand {
	return &RepairCommand{out: os.Stdout}
}

func (cmd *RepairCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the depot database file")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be removed without making changes")
	fs.BoolVarP(&cmd.Verbose, "verbose", "v", false, "Log SQL statements")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s repair [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete bookings, booking types and stocks whose account no longer exists.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *RepairCommand) Run(ctx context.Context) error {
	storage, err := openStorage(ctx, cmd.DatabasePath, 0, cmd.Verbose)
	if err != nil {
		return err
	}
	defer storage.Disconnect()

	if cmd.DryRun {
		fmt.Fprintln(cmd.out, "DRY RUN MODE - No changes will be made")
		fmt.Fprintln(cmd.out)
		result, err := storage.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		printHealth(cmd.out, result)
		return nil
	}

	result, err := storage.RepairDatabase(ctx)
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}

	fmt.Fprintf(cmd.out, "Removed %d orphaned record(s)\n", result.Fixed)
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.out, "  failed %s in %s: %s\n", e.Issue.Type, e.Issue.Store, e.Error)
	}
	if !result.Healthy {
		return fmt.Errorf("database still has issues after repair")
	}
	return nil
}
