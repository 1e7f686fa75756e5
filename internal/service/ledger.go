package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/contracts-service/internal/config"
	"github.com/nurpe/contracts-service/internal/model"
)

// Ledger owns every write to a contract's usedHours. It keeps usedHours equal
// to the sum of the contract's billable intervention hours and handles the
// archive, sign and renew transitions.
//
// In serialized mode each operation runs in one store transaction under a
// per-contract lock. In legacy mode operations are plain statement sequences
// and concurrent hour updates can be lost.
type Ledger struct {
	store      Store
	clock      Clock
	ids        IDGenerator
	log        zerolog.Logger
	serialized bool
	ratio      float64

	locks     contractLocks
	numbering sync.Mutex
}

type LedgerOption func(*Ledger)

func WithClock(clock Clock) LedgerOption {
	return func(l *Ledger) { l.clock = clock }
}

func WithIDGenerator(ids IDGenerator) LedgerOption {
	return func(l *Ledger) { l.ids = ids }
}

func WithLogger(log zerolog.Logger) LedgerOption {
	return func(l *Ledger) { l.log = log }
}

func NewLedger(store Store, cfg config.LedgerConfig, opts ...LedgerOption) *Ledger {
	ratio := cfg.NearExpiryRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.8
	}
	l := &Ledger{
		store:      store,
		clock:      SystemClock{},
		ids:        UUIDGenerator{},
		log:        zerolog.Nop(),
		serialized: cfg.Concurrency != config.ConcurrencyLegacy,
		ratio:      ratio,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type CreateContractInput struct {
	ClientName    string
	ClientID      *uuid.UUID
	TotalHours    float64
	ContractType  model.ContractType
	InternalNotes string
}

func (l *Ledger) CreateContract(ctx context.Context, input CreateContractInput) (*model.Contract, error) {
	input.ClientName = strings.TrimSpace(input.ClientName)
	if input.ClientName == "" && input.ClientID == nil {
		return nil, fmt.Errorf("%w: clientName is required", ErrInvalidInput)
	}
	if input.TotalHours < 0 {
		return nil, fmt.Errorf("%w: totalHours must not be negative", ErrInvalidInput)
	}
	if input.ContractType == "" {
		input.ContractType = model.ContractTypeQuote
	}
	if !input.ContractType.Valid() {
		return nil, fmt.Errorf("%w: unknown contractType %q", ErrInvalidInput, input.ContractType)
	}

	if l.serialized {
		l.numbering.Lock()
		defer l.numbering.Unlock()
	}

	var contract *model.Contract
	err := l.run(ctx, func(ctx context.Context) error {
		client, err := l.resolveClient(ctx, input.ClientID, input.ClientName)
		if err != nil {
			return err
		}
		name := input.ClientName
		if name == "" {
			name = client.Name
		}

		number, err := l.store.NextContractNumber(ctx)
		if err != nil {
			return err
		}

		now := l.clock.Now()
		contract = &model.Contract{
			ID:             l.ids.NewID(),
			ContractNumber: number,
			ClientName:     name,
			ClientID:       &client.ID,
			TotalHours:     input.TotalHours,
			UsedHours:      0,
			CreatedDate:    now,
			Status:         model.ContractStatusActive,
			ContractType:   input.ContractType,
			InternalNotes:  input.InternalNotes,
		}
		if input.ContractType == model.ContractTypeSigned {
			contract.SignedDate = &now
		}
		return l.store.CreateContract(ctx, contract)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	l.log.Info().
		Str("contract_id", contract.ID.String()).
		Int64("contract_number", contract.ContractNumber).
		Str("client", contract.ClientName).
		Msg("contract created")
	return contract, nil
}

// resolveClient returns the explicit client, or finds-or-creates one by name.
func (l *Ledger) resolveClient(ctx context.Context, clientID *uuid.UUID, name string) (*model.Client, error) {
	if clientID != nil {
		client, err := l.store.GetClient(ctx, *clientID)
		if err != nil {
			if errors.Is(storeErr(err), ErrNotFound) {
				return nil, fmt.Errorf("%w: client %s", ErrNotFound, clientID)
			}
			return nil, err
		}
		return client, nil
	}

	client, err := l.store.FindClientByName(ctx, name)
	if err == nil {
		return client, nil
	}
	if !errors.Is(storeErr(err), ErrNotFound) {
		return nil, err
	}

	client = &model.Client{
		ID:        l.ids.NewID(),
		Name:      name,
		CreatedAt: l.clock.Now(),
	}
	if err := l.store.CreateClient(ctx, client); err != nil {
		return nil, err
	}
	return client, nil
}

type InterventionInput struct {
	Date        time.Time
	Description string
	HoursUsed   float64
	Technician  string
	IsBillable  *bool
	Location    *string
}

func (in InterventionInput) billable() bool {
	return in.IsBillable == nil || *in.IsBillable
}

func (in *InterventionInput) validate() error {
	in.Description = strings.TrimSpace(in.Description)
	in.Technician = strings.TrimSpace(in.Technician)
	switch {
	case in.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	case in.Description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	case in.Technician == "":
		return fmt.Errorf("%w: technician is required", ErrInvalidInput)
	case in.HoursUsed < 0:
		return fmt.Errorf("%w: hoursUsed must not be negative", ErrInvalidInput)
	}
	if in.Location != nil {
		loc := strings.TrimSpace(*in.Location)
		if loc == "" {
			in.Location = nil
		} else {
			in.Location = &loc
		}
	}
	return nil
}

// AddIntervention records work against a contract. Billable hours are added
// to the contract's usedHours. A missing contract rejects the write.
func (l *Ledger) AddIntervention(ctx context.Context, contractID uuid.UUID, input InterventionInput) (*model.Intervention, error) {
	if contractID == uuid.Nil {
		return nil, fmt.Errorf("%w: contractId is required", ErrInvalidInput)
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	defer l.lock(contractID)()

	var intervention *model.Intervention
	err := l.run(ctx, func(ctx context.Context) error {
		contract, err := l.store.GetContract(ctx, contractID)
		if err != nil {
			return err
		}

		intervention = &model.Intervention{
			ID:          l.ids.NewID(),
			ContractID:  contractID,
			Date:        input.Date,
			Description: input.Description,
			HoursUsed:   input.HoursUsed,
			Technician:  input.Technician,
			IsBillable:  input.billable(),
			Location:    input.Location,
			CreatedAt:   l.clock.Now(),
		}
		if err := l.store.CreateIntervention(ctx, intervention); err != nil {
			return err
		}
		if !intervention.IsBillable {
			return nil
		}
		return l.applyDelta(ctx, contract, intervention.HoursUsed)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return intervention, nil
}

// UpdateIntervention replaces an intervention's mutable fields and moves the
// owning contract's usedHours by the billable difference.
func (l *Ledger) UpdateIntervention(ctx context.Context, id uuid.UUID, input InterventionInput) (*model.Intervention, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	owner, err := l.interventionOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	defer l.lock(owner)()

	var updated *model.Intervention
	err = l.run(ctx, func(ctx context.Context) error {
		prior, err := l.store.GetIntervention(ctx, id)
		if err != nil {
			return err
		}

		next := *prior
		next.Date = input.Date
		next.Description = input.Description
		next.HoursUsed = input.HoursUsed
		next.Technician = input.Technician
		next.IsBillable = input.billable()
		next.Location = input.Location
		if err := l.store.UpdateIntervention(ctx, &next); err != nil {
			return err
		}
		updated = &next

		delta := model.HoursDelta(prior.HoursUsed, prior.IsBillable, next.HoursUsed, next.IsBillable)
		if delta == 0 {
			return nil
		}
		contract, err := l.store.GetContract(ctx, prior.ContractID)
		if err != nil {
			return err
		}
		return l.applyDelta(ctx, contract, delta)
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return updated, nil
}

// DeleteIntervention removes an intervention, first taking its billable
// hours off the contract. A non-nil contractID must match the owner.
func (l *Ledger) DeleteIntervention(ctx context.Context, id uuid.UUID, contractID *uuid.UUID) error {
	owner, err := l.interventionOwner(ctx, id)
	if err != nil {
		return err
	}
	if contractID != nil && *contractID != uuid.Nil && *contractID != owner {
		return fmt.Errorf("%w: intervention %s does not belong to contract %s", ErrNotFound, id, contractID)
	}
	defer l.lock(owner)()

	err = l.run(ctx, func(ctx context.Context) error {
		prior, err := l.store.GetIntervention(ctx, id)
		if err != nil {
			return err
		}
		if prior.IsBillable && prior.HoursUsed != 0 {
			contract, err := l.store.GetContract(ctx, prior.ContractID)
			if err != nil {
				return err
			}
			if err := l.applyDelta(ctx, contract, -prior.HoursUsed); err != nil {
				return err
			}
		}
		return l.store.DeleteIntervention(ctx, id)
	})
	return storeErr(err)
}

func (l *Ledger) interventionOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	intervention, err := l.store.GetIntervention(ctx, id)
	if err != nil {
		return uuid.Nil, storeErr(err)
	}
	return intervention.ContractID, nil
}

// Archive flags a contract as archived. Archiving an archived contract keeps
// its original archivedAt.
func (l *Ledger) Archive(ctx context.Context, id uuid.UUID) error {
	return l.setArchived(ctx, id, true)
}

// Unarchive clears the archive flag and archivedAt.
func (l *Ledger) Unarchive(ctx context.Context, id uuid.UUID) error {
	return l.setArchived(ctx, id, false)
}

func (l *Ledger) setArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	defer l.lock(id)()

	err := l.run(ctx, func(ctx context.Context) error {
		contract, err := l.store.GetContract(ctx, id)
		if err != nil {
			return err
		}
		if contract.IsArchived == archived {
			return nil
		}
		var at *time.Time
		if archived {
			now := l.clock.Now()
			at = &now
		}
		return l.store.SetArchived(ctx, id, archived, at)
	})
	return storeErr(err)
}

// Sign marks the contract signed as of now, whatever its previous type.
func (l *Ledger) Sign(ctx context.Context, id uuid.UUID) (time.Time, error) {
	defer l.lock(id)()

	signedAt := l.clock.Now()
	err := l.run(ctx, func(ctx context.Context) error {
		return l.store.MarkSigned(ctx, id, signedAt)
	})
	if err != nil {
		return time.Time{}, storeErr(err)
	}
	return signedAt, nil
}

type UpdateContractInput struct {
	ClientName    *string
	TotalHours    *float64
	InternalNotes *string
}

// UpdateContract edits the descriptive fields of a contract. clientName is a
// per-contract snapshot; the linked client record is left untouched.
func (l *Ledger) UpdateContract(ctx context.Context, id uuid.UUID, input UpdateContractInput) (*model.Contract, error) {
	if input.ClientName != nil && strings.TrimSpace(*input.ClientName) == "" {
		return nil, fmt.Errorf("%w: clientName must not be empty", ErrInvalidInput)
	}
	if input.TotalHours != nil && *input.TotalHours < 0 {
		return nil, fmt.Errorf("%w: totalHours must not be negative", ErrInvalidInput)
	}

	defer l.lock(id)()

	var contract *model.Contract
	err := l.run(ctx, func(ctx context.Context) error {
		current, err := l.store.GetContract(ctx, id)
		if err != nil {
			return err
		}
		if input.ClientName != nil {
			current.ClientName = strings.TrimSpace(*input.ClientName)
		}
		if input.TotalHours != nil {
			current.TotalHours = *input.TotalHours
		}
		if input.InternalNotes != nil {
			current.InternalNotes = *input.InternalNotes
		}
		if err := l.store.UpdateContractDetails(ctx, id, current.ClientName, current.TotalHours, current.InternalNotes); err != nil {
			return err
		}
		if err := l.refreshStatus(ctx, current); err != nil {
			return err
		}
		contract = current
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return contract, nil
}

// Renew archives a contract and opens its successor for the same client.
// Hours consumed beyond the old budget are carried into the successor as a
// single billable intervention. An archived contract cannot be renewed again.
func (l *Ledger) Renew(ctx context.Context, id uuid.UUID, newTotalHours float64) (*model.Contract, error) {
	if newTotalHours < 0 {
		return nil, fmt.Errorf("%w: totalHours must not be negative", ErrInvalidInput)
	}

	defer l.lock(id)()
	if l.serialized {
		l.numbering.Lock()
		defer l.numbering.Unlock()
	}

	var (
		successor *model.Contract
		overage   float64
	)
	err := l.run(ctx, func(ctx context.Context) error {
		old, err := l.store.GetContract(ctx, id)
		if err != nil {
			return err
		}
		if old.IsArchived {
			return fmt.Errorf("%w: contract %d is archived", ErrConflict, old.ContractNumber)
		}
		interventions, err := l.store.ListInterventions(ctx, id)
		if err != nil {
			return err
		}

		now := l.clock.Now()
		if err := l.store.SetArchived(ctx, id, true, &now); err != nil {
			return err
		}

		number, err := l.store.NextContractNumber(ctx)
		if err != nil {
			return err
		}
		successor = &model.Contract{
			ID:             l.ids.NewID(),
			ContractNumber: number,
			ClientName:     old.ClientName,
			ClientID:       old.ClientID,
			TotalHours:     newTotalHours,
			UsedHours:      0,
			CreatedDate:    now,
			Status:         model.ContractStatusActive,
			ContractType:   old.ContractType,
		}
		if successor.ContractType == model.ContractTypeSigned {
			successor.SignedDate = &now
		}
		if err := l.store.CreateContract(ctx, successor); err != nil {
			return err
		}

		overage = old.Overage()
		if overage <= 0 {
			return nil
		}
		carry := &model.Intervention{
			ID:          l.ids.NewID(),
			ContractID:  successor.ID,
			Date:        successor.CreatedDate,
			Description: model.RolloverLabel(lastBillableDescription(interventions)),
			HoursUsed:   overage,
			Technician:  model.RolloverTechnician,
			IsBillable:  true,
			CreatedAt:   now,
		}
		if err := l.store.CreateIntervention(ctx, carry); err != nil {
			return err
		}
		// successor starts at zero, so the carried hours are set, not added
		if err := l.store.SetUsedHours(ctx, successor.ID, overage); err != nil {
			return err
		}
		successor.UsedHours = overage
		return l.refreshStatus(ctx, successor)
	})
	if err != nil {
		return nil, storeErr(err)
	}

	l.log.Info().
		Str("contract_id", id.String()).
		Str("successor_id", successor.ID.String()).
		Float64("carried_hours", overage).
		Msg("contract renewed")
	return successor, nil
}

// lastBillableDescription picks the description of the most recent billable
// intervention. The first one listed wins on equal dates.
func lastBillableDescription(interventions []model.Intervention) string {
	var (
		found  bool
		latest model.Intervention
	)
	for _, iv := range interventions {
		if !iv.IsBillable {
			continue
		}
		if !found || iv.Date.After(latest.Date) {
			latest = iv
			found = true
		}
	}
	if !found {
		return model.RolloverDescription
	}
	return latest.Description
}

// RecalculateUsedHours resets usedHours to the stored sum of billable hours.
func (l *Ledger) RecalculateUsedHours(ctx context.Context, id uuid.UUID) (float64, error) {
	defer l.lock(id)()

	var total float64
	err := l.run(ctx, func(ctx context.Context) error {
		contract, err := l.store.GetContract(ctx, id)
		if err != nil {
			return err
		}
		total, err = l.store.SumBillableHours(ctx, id)
		if err != nil {
			return err
		}
		if total == contract.UsedHours {
			return nil
		}
		l.log.Warn().
			Str("contract_id", id.String()).
			Float64("stored", contract.UsedHours).
			Float64("actual", total).
			Msg("used hours drift corrected")
		if err := l.store.SetUsedHours(ctx, id, total); err != nil {
			return err
		}
		contract.UsedHours = total
		return l.refreshStatus(ctx, contract)
	})
	if err != nil {
		return 0, storeErr(err)
	}
	return total, nil
}

func (l *Ledger) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := l.store.GetContract(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	contract.Interventions, err = l.store.ListInterventions(ctx, id)
	if err != nil {
		return nil, err
	}
	return contract, nil
}

func (l *Ledger) ListContracts(ctx context.Context, archived *bool) ([]model.Contract, error) {
	contracts, err := l.store.ListContracts(ctx, archived)
	if err != nil {
		return nil, err
	}
	if contracts == nil {
		contracts = []model.Contract{}
	}
	return contracts, nil
}

func (l *Ledger) ListInterventions(ctx context.Context, contractID uuid.UUID) ([]model.Intervention, error) {
	if _, err := l.store.GetContract(ctx, contractID); err != nil {
		return nil, storeErr(err)
	}
	interventions, err := l.store.ListInterventions(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if interventions == nil {
		interventions = []model.Intervention{}
	}
	return interventions, nil
}

func (l *Ledger) GetIntervention(ctx context.Context, id uuid.UUID) (*model.Intervention, error) {
	intervention, err := l.store.GetIntervention(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return intervention, nil
}

// applyDelta moves contract.UsedHours by delta and keeps status in step.
// contract must have been read inside the current operation.
func (l *Ledger) applyDelta(ctx context.Context, contract *model.Contract, delta float64) error {
	if delta == 0 {
		return nil
	}
	used := contract.UsedHours + delta
	if l.serialized {
		if err := l.store.AddUsedHours(ctx, contract.ID, delta); err != nil {
			return err
		}
	} else {
		if err := l.store.SetUsedHours(ctx, contract.ID, used); err != nil {
			return err
		}
	}
	contract.UsedHours = used
	return l.refreshStatus(ctx, contract)
}

func (l *Ledger) refreshStatus(ctx context.Context, contract *model.Contract) error {
	status := model.DeriveStatus(contract.TotalHours, contract.UsedHours, l.ratio)
	if status == contract.Status {
		return nil
	}
	if err := l.store.SetStatus(ctx, contract.ID, status); err != nil {
		return err
	}
	contract.Status = status
	return nil
}

// run executes fn atomically in serialized mode and as a bare statement
// sequence in legacy mode.
func (l *Ledger) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if !l.serialized {
		return fn(ctx)
	}
	return l.store.Transaction(ctx, fn)
}

func (l *Ledger) lock(id uuid.UUID) func() {
	if !l.serialized {
		return func() {}
	}
	return l.locks.lock(id)
}
