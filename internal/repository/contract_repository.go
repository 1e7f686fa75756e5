package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/contracts-service/internal/model"
)

const contractColumns = `
	id,
	contract_number,
	client_name,
	client_id,
	total_hours,
	used_hours,
	created_date,
	status,
	is_archived,
	archived_at,
	contract_type,
	signed_date,
	internal_notes`

// LedgerRepository persists contracts, their interventions and clients.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTx(ctx, r.db, fn)
}

func (r *LedgerRepository) NextContractNumber(ctx context.Context) (int64, error) {
	var current int64
	if err := conn(ctx, r.db).Raw(`
		SELECT COALESCE(MAX(contract_number), 0) FROM contracts
	`).Scan(&current).Error; err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *LedgerRepository) CreateContract(ctx context.Context, contract *model.Contract) error {
	return conn(ctx, r.db).Omit("Client", "Interventions").Create(contract).Error
}

func (r *LedgerRepository) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := conn(ctx, r.db).Raw(`
		SELECT`+contractColumns+`
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error; err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

// ListContracts returns contracts ordered by number. A nil archived filter
// returns both archived and live contracts.
func (r *LedgerRepository) ListContracts(ctx context.Context, archived *bool) ([]model.Contract, error) {
	query := `SELECT` + contractColumns + ` FROM contracts`
	var args []interface{}
	if archived != nil {
		query += ` WHERE is_archived = ?`
		args = append(args, *archived)
	}
	query += ` ORDER BY contract_number ASC`

	var contracts []model.Contract
	if err := conn(ctx, r.db).Raw(query, args...).Scan(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// SetUsedHours overwrites used_hours. It is the read-modify-write path.
func (r *LedgerRepository) SetUsedHours(ctx context.Context, id uuid.UUID, hours float64) error {
	return r.exec(ctx, `
		UPDATE contracts SET used_hours = ? WHERE id = ?
	`, hours, id)
}

// AddUsedHours applies delta in a single statement so concurrent writers
// cannot overwrite each other.
func (r *LedgerRepository) AddUsedHours(ctx context.Context, id uuid.UUID, delta float64) error {
	return r.exec(ctx, `
		UPDATE contracts SET used_hours = used_hours + ? WHERE id = ?
	`, delta, id)
}

func (r *LedgerRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.ContractStatus) error {
	return r.exec(ctx, `
		UPDATE contracts SET status = ? WHERE id = ?
	`, status, id)
}

// SetArchived writes the archive flag; archivedAt is nil when unarchiving.
func (r *LedgerRepository) SetArchived(ctx context.Context, id uuid.UUID, archived bool, archivedAt *time.Time) error {
	return r.exec(ctx, `
		UPDATE contracts SET is_archived = ?, archived_at = ? WHERE id = ?
	`, archived, archivedAt, id)
}

func (r *LedgerRepository) MarkSigned(ctx context.Context, id uuid.UUID, signedAt time.Time) error {
	return r.exec(ctx, `
		UPDATE contracts SET contract_type = ?, signed_date = ? WHERE id = ?
	`, model.ContractTypeSigned, signedAt, id)
}

func (r *LedgerRepository) UpdateContractDetails(
	ctx context.Context,
	id uuid.UUID,
	clientName string,
	totalHours float64,
	internalNotes string,
) error {
	return r.exec(ctx, `
		UPDATE contracts
		SET
			client_name = ?,
			total_hours = ?,
			internal_notes = ?
		WHERE id = ?
	`, clientName, totalHours, internalNotes, id)
}

// SumBillableHours is the authoritative value of a contract's used_hours.
func (r *LedgerRepository) SumBillableHours(ctx context.Context, contractID uuid.UUID) (float64, error) {
	var total float64
	if err := conn(ctx, r.db).Raw(`
		SELECT COALESCE(SUM(hours_used), 0)
		FROM interventions
		WHERE contract_id = ? AND is_billable = ?
	`, contractID, true).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *LedgerRepository) exec(ctx context.Context, sql string, args ...interface{}) error {
	res := conn(ctx, r.db).Exec(sql, args...)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
