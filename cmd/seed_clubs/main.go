// Command seed_clubs resets a bookclub database and imports users, clubs,
// memberships and reading lists from a YAML fixture.
package main

import (
	"fmt"
	"io"
	"os"

	"bookclub/club"
	"bookclub/config"
	"bookclub/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type seedOptions struct {
	Fixture string
	DBPath  string
	Keep    bool
}

func newSeedCommand() *cobra.Command {
	opts := &seedOptions{}
	cmd := &cobra.Command{
		Use:           "seed_clubs",
		Short:         "Reset the database and import a club fixture",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Fixture, "fixture", "f", "fixtures/clubs.yaml", "YAML fixture to import")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides BOOKCLUB_DB)")
	cmd.Flags().BoolVar(&opts.Keep, "keep", false, "import into the existing database instead of resetting it")
	return cmd
}

func runSeed(cmd *cobra.Command, opts *seedOptions) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log := logger.WithField("op_id", uuid.NewString())

	fixture, err := LoadFixture(opts.Fixture)
	if err != nil {
		return err
	}

	if !opts.Keep {
		fmt.Fprintln(out, "Cleaning up existing database files...")
		resetDatabase(cfg.DBPath, out)
		fmt.Fprintln(out, "Database cleanup complete.")
	}

	mgr, err := club.NewManager(cfg.DBPath, cfg.BusyTimeout, log)
	if err != nil {
		return fmt.Errorf("error creating database: %w", err)
	}
	defer mgr.Close()

	fmt.Fprintf(out, "Importing %s...\n", opts.Fixture)
	sum, err := Seed(cmd.Context(), mgr, fixture, out)
	if err != nil {
		return err
	}
	printSummary(out, sum)
	if sum.Errors > 0 {
		return fmt.Errorf("%d clubs failed to import", sum.Errors)
	}
	return nil
}

func printSummary(out io.Writer, sum Summary) {
	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Users: %d\n", sum.Users)
	fmt.Fprintf(out, "Clubs: %d\n", sum.Clubs)
	fmt.Fprintf(out, "Memberships: %d\n", sum.Members)
	fmt.Fprintf(out, "Reading items: %d\n", sum.Items)
	fmt.Fprintf(out, "Errors: %d\n", sum.Errors)
}

func main() {
	if err := newSeedCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
