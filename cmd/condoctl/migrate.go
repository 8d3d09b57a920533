package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"condo/internal/cli"
	"condo/internal/log"
	"condo/internal/storage"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the SQLite schema",
		Long: `Applies every pending migration to SQLITE_DB_PATH and prints the
resulting schema version. With --down the last migration is reverted,
which drops the tables it created. --status only prints the version.`,
		// The store is not opened: opening it would migrate up.
		PersistentPreRunE: a.setupConfigOnly,
		RunE:              a.runMigrate,
	}
	cmd.Flags().Bool("down", false, "Revert the last migration")
	cmd.Flags().Bool("status", false, "Only print the current schema version")
	return cmd
}

func (a *app) setupConfigOnly(_ *cobra.Command, _ []string) error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cli.SetupLogger(cfg, a.errOut).WithComponent(log.ComponentCLI)
	return nil
}

func (a *app) runMigrate(cmd *cobra.Command, _ []string) error {
	if a.cfg.DataBackend != "sqlite" {
		return errors.New("migrate needs DATA_BACKEND=sqlite")
	}
	path := a.cfg.SQLiteDBPath
	down, _ := cmd.Flags().GetBool("down")
	status, _ := cmd.Flags().GetBool("status")

	switch {
	case status:
	case down:
		if err := storage.RollbackMigrations(path); err != nil {
			return err
		}
		a.logger.Info("Rolled back last migration", "db_path", path)
	default:
		if err := storage.RunMigrations(path); err != nil {
			return err
		}
	}

	st, err := storage.Schema(path)
	if err != nil {
		return err
	}
	if wantJSON(cmd) {
		return a.printJSON(st)
	}
	if st.Empty {
		fmt.Fprintln(a.out, "schema: empty")
		return nil
	}
	fmt.Fprintf(a.out, "schema: version %d dirty=%t\n", st.Version, st.Dirty)
	return nil
}
