package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"condo/internal/backend"
	"condo/internal/log"
)

func newSeedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a JSON dataset into the configured store",
		Long: `Replaces the content of the store with the dataset in --file.
With the sqlite backend the data is persisted in SQLITE_DB_PATH; with the
memory backend it only validates the file.`,
		Example: `  DATA_BACKEND=sqlite condoctl seed --file data/seed.json`,
		RunE:    a.runSeed,
	}
	cmd.Flags().String("file", "", "Path of the JSON dataset (required)")
	return cmd
}

func (a *app) runSeed(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return fmt.Errorf("--file is required")
	}

	recs, err := backend.Seed(cmd.Context(), a.store, path)
	if err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	a.logger.Info("Seeded store",
		log.FieldOperation, log.OpSeed,
		"file", path,
		"backend", a.cfg.DataBackend)

	fmt.Fprintf(a.out, "people=%d employees=%d payments=%d relationships=%d salaries=%d debts=%d attendance=%d\n",
		len(recs.People), len(recs.Employees), len(recs.Payments), len(recs.Relationships),
		len(recs.Salaries), len(recs.Debts), len(recs.Attendance))
	return nil
}
