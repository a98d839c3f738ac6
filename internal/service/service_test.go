package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/punchamoorthee/orionledger/internal/auth"
	"github.com/punchamoorthee/orionledger/internal/domain"
	"github.com/punchamoorthee/orionledger/internal/repository"
	"github.com/punchamoorthee/orionledger/internal/security"
	"github.com/punchamoorthee/orionledger/internal/store"
)

type fixture struct {
	store  store.Store
	repo   *repository.Repository
	engine *TransferEngine
	stats  *StatsAggregator
	ledger *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"), nil)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	repo := repository.New(s, repository.Options{InitialBalance: domain.NewMoney(100000), PasswordCost: security.MinCost}, nil)
	engine := NewTransferEngine(repo, nil)
	stats := NewStatsAggregator()
	return &fixture{
		store:  s,
		repo:   repo,
		engine: engine,
		stats:  stats,
		ledger: NewLedger(repo, auth.NewGate(repo, nil), engine, stats),
	}
}

// account registers an ordinary account and forces its balance.
func (f *fixture) account(t *testing.T, name, taxID string, cents int64) *domain.Account {
	t.Helper()
	ctx := context.Background()
	id, err := f.repo.Create(ctx, repository.NewAccount{DisplayName: name, TaxID: taxID, Email: name + "@example.com", Secret: "pw-" + name})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	err = f.repo.Update(ctx, func(l *domain.Ledger) error {
		a, _ := l.Get(id)
		a.Balance = domain.NewMoney(cents)
		return nil
	})
	if err != nil {
		t.Fatalf("set balance: %v", err)
	}
	return f.get(t, id)
}

func (f *fixture) admin(t *testing.T) *domain.Account {
	t.Helper()
	h, err := security.HashPassword("root", security.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	err = f.repo.Update(context.Background(), func(l *domain.Ledger) error {
		l.Put(&domain.Account{
			ID: "super_admin", DisplayName: "Admin", TaxID: "000", Email: "admin@orion.com",
			PasswordHash: h, Role: domain.RoleAdministrator, Balance: domain.NewMoney(100000000),
		})
		return nil
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return f.get(t, "super_admin")
}

func (f *fixture) get(t *testing.T, id string) *domain.Account {
	t.Helper()
	a, err := f.repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find %s: %v", id, err)
	}
	return a
}

func fixedClock(ts time.Time) func() time.Time { return func() time.Time { return ts } }
