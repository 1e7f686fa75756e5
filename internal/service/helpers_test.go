package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/contracts-service/internal/config"
	"github.com/nurpe/contracts-service/internal/dbtest"
	"github.com/nurpe/contracts-service/internal/model"
	"github.com/nurpe/contracts-service/internal/repository"
	"github.com/nurpe/contracts-service/internal/service"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db     *gorm.DB
	ledger *service.Ledger
	repo   *repository.LedgerRepository
	clock  *fakeClock
}

func newFixture(t *testing.T, mode string) *fixture {
	t.Helper()
	database := dbtest.NewTestDB(t)
	repo := repository.NewLedgerRepository(database)
	f := newFixtureWithStore(t, mode, repo, repo)
	f.db = database
	return f
}

func newFixtureWithStore(t *testing.T, mode string, repo *repository.LedgerRepository, store service.Store) *fixture {
	t.Helper()
	clock := newFakeClock()
	ledger := service.NewLedger(store, config.LedgerConfig{
		Concurrency:     mode,
		NearExpiryRatio: 0.8,
	}, service.WithClock(clock))
	return &fixture{ledger: ledger, repo: repo, clock: clock}
}

func (f *fixture) contract(t *testing.T, total float64) *model.Contract {
	t.Helper()
	c, err := f.ledger.CreateContract(context.Background(), service.CreateContractInput{
		ClientName: "Acme",
		TotalHours: total,
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	return c
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *model.Contract {
	t.Helper()
	c, err := f.ledger.GetContract(context.Background(), id)
	if err != nil {
		t.Fatalf("reload contract %s: %v", id, err)
	}
	return c
}

func work(date time.Time, description string, hours float64, billable bool) service.InterventionInput {
	return service.InterventionInput{
		Date:        date,
		Description: description,
		HoursUsed:   hours,
		Technician:  "Julie",
		IsBillable:  &billable,
	}
}

func billableSum(interventions []model.Intervention) float64 {
	total := 0.0
	for _, iv := range interventions {
		total += iv.BillableHours()
	}
	return total
}

// failingStore injects errBoom into selected store calls.
type failingStore struct {
	service.Store
	failCreateIntervention atomic.Bool
	failCreateContract     atomic.Bool
}

func (s *failingStore) CreateIntervention(ctx context.Context, iv *model.Intervention) error {
	if s.failCreateIntervention.Load() {
		return errBoom
	}
	return s.Store.CreateIntervention(ctx, iv)
}

func (s *failingStore) CreateContract(ctx context.Context, c *model.Contract) error {
	if s.failCreateContract.Load() {
		return errBoom
	}
	return s.Store.CreateContract(ctx, c)
}

// barrierStore holds the first `parties` GetContract callers until all of
// them have read, forcing concurrent read-modify-write sequences to overlap.
type barrierStore struct {
	service.Store
	parties int32
	calls   atomic.Int32
	wg      sync.WaitGroup
}

func newBarrierStore(inner service.Store, parties int) *barrierStore {
	s := &barrierStore{Store: inner, parties: int32(parties)}
	s.wg.Add(parties)
	return s
}

func (s *barrierStore) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	c, err := s.Store.GetContract(ctx, id)
	if s.calls.Add(1) <= s.parties {
		s.wg.Done()
		s.wg.Wait()
	}
	return c, err
}
