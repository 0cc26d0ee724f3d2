package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/mrlokans/depot/internal/config"
	"github.com/mrlokans/depot/internal/health"
)

// HealthCommand checks the depot database for orphaned records.
type HealthCommand struct {
	DatabasePath string
	JSON         bool
	Verbose      bool

	out io.Writer
}

func NewHealthCommand() *HealthCommand {
	return &HealthCommand{out: os.Stdout}
}

func (cmd *HealthCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the depot database file")
	fs.BoolVar(&cmd.JSON, "json", false, "Print the result as JSON")
	fs.BoolVarP(&cmd.Verbose, "verbose", "v", false, "Log SQL statements")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s health [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Report records that reference a non-existent account.\n")
		fmt.Fprintf(os.Stderr, "Exits with status 2 when issues are found.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run performs the check. It reports whether the database is healthy.
func (cmd *HealthCommand) Run(ctx context.Context) (bool, error) {
	storage, err := openStorage(ctx, cmd.DatabasePath, 0, cmd.Verbose)
	if err != nil {
		return false, err
	}
	defer storage.Disconnect()

	result, err := storage.HealthCheck(ctx)
	if err != nil {
		return false, fmt.Errorf("health check failed: %w", err)
	}

	if cmd.JSON {
		enc := json.NewEncoder(cmd.out)
		enc.SetIndent("", "  ")
		return result.Healthy, enc.Encode(result)
	}
	printHealth(cmd.out, result)
	return result.Healthy, nil
}

func printHealth(w io.Writer, result *health.Result) {
	fmt.Fprintln(w, "Database Health")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Accounts:      %d\n", result.Stats.Accounts)
	fmt.Fprintf(w, "Bookings:      %d\n", result.Stats.Bookings)
	fmt.Fprintf(w, "Booking types: %d\n", result.Stats.BookingTypes)
	fmt.Fprintf(w, "Stocks:        %d\n", result.Stats.Stocks)
	fmt.Fprintln(w)

	if result.Healthy {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	fmt.Fprintf(w, "%d issue(s):\n", len(result.Issues))
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Severity, issue.Store, issue.Details)
	}
}
