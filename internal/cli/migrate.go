package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/mrlokans/depot/internal/config"
	"github.com/mrlokans/depot/internal/database"
)

// MigrateCommand upgrades the schema of a depot database and prints the
// resulting index layout.
type MigrateCommand struct {
	DatabasePath string
	Version      int
	Verbose      bool

	out io.Writer
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{out: os.Stdout}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the depot database file")
	fs.IntVar(&cmd.Version, "to", database.SchemaVersion, "Target schema version")
	fs.BoolVarP(&cmd.Verbose, "verbose", "v", false, "Log SQL statements")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create or upgrade the depot schema. Downgrades are refused.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Version <= 0 || cmd.Version > database.SchemaVersion {
		return fmt.Errorf("--to must be between 1 and %d", database.SchemaVersion)
	}
	return nil
}

func (cmd *MigrateCommand) Run(ctx context.Context) error {
	storage, err := openStorage(ctx, cmd.DatabasePath, cmd.Version, cmd.Verbose)
	if err != nil {
		return err
	}
	defer storage.Disconnect()

	db, err := storage.Connection().Database()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "%s is at schema v%d\n\n", cmd.DatabasePath, storage.Connection().Version())
	for _, schema := range database.Schema {
		indexes, err := database.Indexes(db.WithContext(ctx), schema.Name)
		if err != nil {
			return fmt.Errorf("list indexes of %s: %w", schema.Name, err)
		}
		fmt.Fprintf(cmd.out, "%s\n", schema.Name)
		for _, idx := range indexes {
			unique := ""
			if idx.Unique {
				unique = " unique"
			}
			fmt.Fprintf(cmd.out, "  %s %v%s\n", idx.Name, idx.Columns, unique)
		}
	}
	return nil
}
