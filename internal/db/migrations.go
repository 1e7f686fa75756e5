package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/contracts-service/internal/model"
)

// AllModels lists the tables in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&model.Client{},
		&model.Contract{},
		&model.Intervention{},
	}
}

// Statements that run after AutoMigrate. They must stay valid on both
// sqlite and postgres.
var migrationStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_interventions_contract_date ON interventions (contract_id, date);`,
	`CREATE INDEX IF NOT EXISTS idx_interventions_billable ON interventions (contract_id, is_billable);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_archived_number ON contracts (is_archived, contract_number);`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
