package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/contracts-service/internal/model"
)

func (r *LedgerRepository) CreateClient(ctx context.Context, client *model.Client) error {
	return conn(ctx, r.db).Create(client).Error
}

func (r *LedgerRepository) GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := conn(ctx, r.db).Raw(`
		SELECT id, name, created_at
		FROM clients
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&client).Error; err != nil {
		return nil, err
	}
	if client.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &client, nil
}

// FindClientByName matches names exactly after trimming surrounding spaces.
func (r *LedgerRepository) FindClientByName(ctx context.Context, name string) (*model.Client, error) {
	var client model.Client
	if err := conn(ctx, r.db).Raw(`
		SELECT id, name, created_at
		FROM clients
		WHERE name = ?
		LIMIT 1
	`, strings.TrimSpace(name)).Scan(&client).Error; err != nil {
		return nil, err
	}
	if client.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &client, nil
}

func (r *LedgerRepository) ListClients(ctx context.Context) ([]model.Client, error) {
	var clients []model.Client
	if err := conn(ctx, r.db).Raw(`
		SELECT id, name, created_at
		FROM clients
		ORDER BY name ASC
	`).Scan(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// DeleteClient removes the client; the foreign keys cascade to its contracts
// and their interventions.
func (r *LedgerRepository) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return r.exec(ctx, `DELETE FROM clients WHERE id = ?`, id)
}
