package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/contracts-service/internal/model"
)

// Store is the persistence the ledger runs against. Calls made with the
// context passed into a Transaction callback share that transaction.
type Store interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	NextContractNumber(ctx context.Context) (int64, error)
	CreateContract(ctx context.Context, contract *model.Contract) error
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	ListContracts(ctx context.Context, archived *bool) ([]model.Contract, error)
	SetUsedHours(ctx context.Context, id uuid.UUID, hours float64) error
	AddUsedHours(ctx context.Context, id uuid.UUID, delta float64) error
	SetStatus(ctx context.Context, id uuid.UUID, status model.ContractStatus) error
	SetArchived(ctx context.Context, id uuid.UUID, archived bool, archivedAt *time.Time) error
	MarkSigned(ctx context.Context, id uuid.UUID, signedAt time.Time) error
	UpdateContractDetails(ctx context.Context, id uuid.UUID, clientName string, totalHours float64, internalNotes string) error
	SumBillableHours(ctx context.Context, contractID uuid.UUID) (float64, error)

	CreateIntervention(ctx context.Context, intervention *model.Intervention) error
	GetIntervention(ctx context.Context, id uuid.UUID) (*model.Intervention, error)
	UpdateIntervention(ctx context.Context, intervention *model.Intervention) error
	DeleteIntervention(ctx context.Context, id uuid.UUID) error
	ListInterventions(ctx context.Context, contractID uuid.UUID) ([]model.Intervention, error)

	CreateClient(ctx context.Context, client *model.Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error)
	FindClientByName(ctx context.Context, name string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() uuid.UUID
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() uuid.UUID { return uuid.New() }
