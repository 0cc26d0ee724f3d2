package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/mrlokans/depot/internal/cli"
	"github.com/mrlokans/depot/internal/config"
	"github.com/mrlokans/depot/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "health":
		cmd := cli.NewHealthCommand()
		checkFlags(cmd.ParseFlags(args))
		healthy, err := cmd.Run(ctx)
		if err != nil {
			exitWithError(err)
		}
		if !healthy {
			stop()
			os.Exit(2)
		}

	case "repair":
		cmd := cli.NewRepairCommand()
		checkFlags(cmd.ParseFlags(args))
		if err := cmd.Run(ctx); err != nil {
			exitWithError(err)
		}

	case "migrate":
		cmd := cli.NewMigrateCommand()
		checkFlags(cmd.ParseFlags(args))
		if err := cmd.Run(ctx); err != nil {
			exitWithError(err)
		}

	case "import":
		cmd := cli.NewImportCommand()
		checkFlags(cmd.ParseFlags(args))
		if err := cmd.Run(ctx); err != nil {
			exitWithError(err)
		}

	case "-h", "--help", "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// checkFlags exits on a flag error; a help request is not one.
func checkFlags(err error) {
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		exitWithError(err)
	}
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  health    Check the database for orphaned records\n")
	fmt.Fprintf(os.Stderr, "  repair    Delete orphaned records\n")
	fmt.Fprintf(os.Stderr, "  migrate   Create or upgrade the database schema\n")
	fmt.Fprintf(os.Stderr, "  import    Apply a JSON batch file atomically\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
