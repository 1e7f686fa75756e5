package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nurpe/contracts-service/internal/model"
)

func (l *Ledger) ListClients(ctx context.Context) ([]model.Client, error) {
	clients, err := l.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	if clients == nil {
		clients = []model.Client{}
	}
	return clients, nil
}

func (l *Ledger) CreateClient(ctx context.Context, name string) (*model.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	var client *model.Client
	err := l.run(ctx, func(ctx context.Context) error {
		_, err := l.store.FindClientByName(ctx, name)
		if err == nil {
			return fmt.Errorf("%w: client %q already exists", ErrConflict, name)
		}
		if !errors.Is(storeErr(err), ErrNotFound) {
			return err
		}
		client = &model.Client{
			ID:        l.ids.NewID(),
			Name:      name,
			CreatedAt: l.clock.Now(),
		}
		return l.store.CreateClient(ctx, client)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return client, nil
}

// DeleteClient removes a client together with its contracts and their
// interventions.
func (l *Ledger) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return storeErr(l.store.DeleteClient(ctx, id))
}
