package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/contracts-service/internal/model"
)

const interventionColumns = `
	id,
	contract_id,
	date,
	description,
	hours_used,
	technician,
	is_billable,
	location,
	created_at`

func (r *LedgerRepository) CreateIntervention(ctx context.Context, intervention *model.Intervention) error {
	return conn(ctx, r.db).Create(intervention).Error
}

func (r *LedgerRepository) GetIntervention(ctx context.Context, id uuid.UUID) (*model.Intervention, error) {
	var intervention model.Intervention
	if err := conn(ctx, r.db).Raw(`
		SELECT`+interventionColumns+`
		FROM interventions
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&intervention).Error; err != nil {
		return nil, err
	}
	if intervention.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &intervention, nil
}

// UpdateIntervention replaces the mutable fields. The owning contract never
// changes.
func (r *LedgerRepository) UpdateIntervention(ctx context.Context, intervention *model.Intervention) error {
	return r.exec(ctx, `
		UPDATE interventions
		SET
			date = ?,
			description = ?,
			hours_used = ?,
			technician = ?,
			is_billable = ?,
			location = ?
		WHERE id = ?
	`,
		intervention.Date,
		intervention.Description,
		intervention.HoursUsed,
		intervention.Technician,
		intervention.IsBillable,
		intervention.Location,
		intervention.ID,
	)
}

func (r *LedgerRepository) DeleteIntervention(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM interventions WHERE id = ?`, id)
}

// ListInterventions returns a contract's interventions, oldest first, in
// insertion order for equal dates.
func (r *LedgerRepository) ListInterventions(ctx context.Context, contractID uuid.UUID) ([]model.Intervention, error) {
	var interventions []model.Intervention
	if err := conn(ctx, r.db).Raw(`
		SELECT`+interventionColumns+`
		FROM interventions
		WHERE contract_id = ?
		ORDER BY date ASC, created_at ASC
	`, contractID).Scan(&interventions).Error; err != nil {
		return nil, err
	}
	return interventions, nil
}
