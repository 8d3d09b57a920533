package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"condo/internal/backend"
	"condo/internal/cli"
	"condo/internal/config"
	"condo/internal/log"
)

var version = "1.0.0"

// app carries what PersistentPreRunE builds for every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
	logger *log.Logger
	store  backend.Store
	svc    cli.Services
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, errOut: os.Stderr}

	root := &cobra.Command{
		Use:   "condoctl",
		Short: "Condominium finance and payroll reports",
		Long: `condoctl reads the condominium store configured in the environment
(DATA_BACKEND, SQLITE_DB_PATH, SEED_FILE, ADMIN_IDENTITY) and prints
financial summaries and attendance reports, registers clock actions
and exports reports to Google Sheets.`,
		Version:            version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	root.SetOut(out)
	root.PersistentFlags().Bool("json", false, "Print results as JSON")

	root.AddCommand(newFinanceCmd(a), newAttendanceCmd(a), newSeedCmd(a), newMigrateCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	// Logs go to stderr so stdout stays clean for reports.
	logger := cli.SetupLogger(cfg, a.errOut)

	store, err := cli.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	a.cfg = cfg
	a.logger = logger.WithComponent(log.ComponentCLI)
	a.store = store
	a.svc = cli.NewServices(store, cfg, logger, nil, nil)
	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
