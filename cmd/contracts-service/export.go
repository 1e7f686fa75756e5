package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nurpe/contracts-service/internal/scheduler"
	"github.com/nurpe/contracts-service/internal/service"
)

type exportOptions struct {
	outDir          string
	includeArchived bool
	contractID      string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the contracts workbook or one contract statement to disk",
		Example: `  contracts-service export
  contracts-service export --archived=false --out /tmp/exports
  contracts-service export --contract 0b7f3c52-7c36-4a8e-9a57-3d4f0a1d5e11`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory (defaults to EXPORT_DIR)")
	cmd.Flags().BoolVar(&opts.includeArchived, "archived", true, "include archived contracts in the workbook")
	cmd.Flags().StringVar(&opts.contractID, "contract", "", "write the PDF statement of this contract instead of the workbook")
	return cmd
}

func runExport(ctx context.Context, out io.Writer, opts exportOptions) error {
	var contractID uuid.UUID
	if opts.contractID != "" {
		parsed, err := uuid.Parse(opts.contractID)
		if err != nil {
			return fmt.Errorf("export: invalid contract id %q: %w", opts.contractID, err)
		}
		contractID = parsed
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	dir := opts.outDir
	if dir == "" {
		dir = a.cfg.Export.Dir
	}

	exports := a.exports()
	var result *service.ExportResult
	if contractID != uuid.Nil {
		result, err = exports.Statement(ctx, contractID)
	} else {
		result, err = exports.Workbook(ctx, opts.includeArchived)
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	path, err := scheduler.WriteResult(dir, result)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
