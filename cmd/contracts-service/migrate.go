package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Applies the schema for clients, contracts and interventions to the
database named by DB_DSN, then exits.

Safe to run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.OutOrStdout())
		},
	}
}

func runMigrate(out io.Writer) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintf(out, "Schema up to date (%s).\n", a.database.Dialector.Name())
	return nil
}
