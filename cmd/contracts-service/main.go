package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/nurpe/contracts-service/internal/config"
	"github.com/nurpe/contracts-service/internal/db"
	"github.com/nurpe/contracts-service/internal/excel"
	"github.com/nurpe/contracts-service/internal/logger"
	"github.com/nurpe/contracts-service/internal/pdf"
	"github.com/nurpe/contracts-service/internal/repository"
	"github.com/nurpe/contracts-service/internal/service"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "contracts-service",
		Short:         "Prepaid support-hours contracts ledger",
		Long:          "Tracks prepaid hour contracts, the interventions billed against them, renewals and exports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newExportCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "contracts-service %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// app holds what every command needs once config is loaded.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	database *gorm.DB
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &app{cfg: cfg, log: log, database: database}, nil
}

func (a *app) close() {
	if sqlDB, err := a.database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) ledger() *service.Ledger {
	return service.NewLedger(
		repository.NewLedgerRepository(a.database),
		a.cfg.Ledger,
		service.WithLogger(a.log),
	)
}

func (a *app) exports() *service.ExportService {
	return service.NewExportService(
		repository.NewExportRepository(a.database),
		excel.NewGenerator(),
		pdf.NewGenerator(),
		service.SystemClock{},
	)
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
