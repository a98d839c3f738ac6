package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/punchamoorthee/orionledger/internal/domain"
	"github.com/punchamoorthee/orionledger/internal/security"
	"github.com/punchamoorthee/orionledger/internal/store"
)

func newRepo(t *testing.T) (*Repository, store.Store) {
	t.Helper()
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "users.json"), nil)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	return New(s, Options{InitialBalance: domain.NewMoney(100000), PasswordCost: security.MinCost}, nil), s
}

func register(t *testing.T, r *Repository, name, taxID, email string) string {
	t.Helper()
	id, err := r.Create(context.Background(), NewAccount{DisplayName: name, TaxID: taxID, Email: email, Secret: "pw-" + name})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return id
}

func TestCreate(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	id := register(t, r, "Ana", "111", "ana@example.com")
	if len(id) != 32 {
		t.Fatalf("id = %q, want 32 hex chars", id)
	}

	a, err := r.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if a.Role != domain.RoleOrdinary || a.Balance.String() != "1000.00" || len(a.Transactions) != 0 {
		t.Fatalf("unexpected new account: %+v", a)
	}
	if a.PasswordHash == "pw-Ana" || !security.VerifyPassword(a.PasswordHash, "pw-Ana") {
		t.Fatalf("password must be stored hashed")
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	r, _ := newRepo(t)
	_, err := r.Create(context.Background(), NewAccount{DisplayName: "Ana", TaxID: " ", Email: "a@x", Secret: "pw"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestCreateConflict(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	id := register(t, r, "Ana", "111", "ana@example.com")

	for _, n := range []NewAccount{
		{DisplayName: "Other", TaxID: "111", Email: "other@example.com", Secret: "x"},
		{DisplayName: "Other", TaxID: "999", Email: "ana@example.com", Secret: "x"},
	} {
		if _, err := r.Create(ctx, n); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("%+v: err = %v, want ErrConflict", n, err)
		}
	}

	a, err := r.FindByID(ctx, id)
	if err != nil || a.DisplayName != "Ana" || a.Balance.String() != "1000.00" {
		t.Fatalf("existing account must be untouched: %+v %v", a, err)
	}
	l, _ := r.Snapshot(ctx)
	if len(l.Accounts) != 1 {
		t.Fatalf("accounts = %d, want 1", len(l.Accounts))
	}
}

func TestCreateIgnoresAdministratorIdentity(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	err := r.Update(ctx, func(l *domain.Ledger) error {
		l.Put(&domain.Account{ID: "admin", TaxID: "000", Email: "admin@orion.com", Role: domain.RoleAdministrator})
		return nil
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	if _, err := r.Create(ctx, NewAccount{DisplayName: "A", TaxID: "000", Email: "admin@orion.com", Secret: "x"}); err != nil {
		t.Fatalf("uniqueness is only among ordinary accounts: %v", err)
	}
}

func TestFindByTaxIDOrEmail(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	id := register(t, r, "Ana", "111", "ana@example.com")

	for _, ident := range []string{"111", "ana@example.com"} {
		a, err := r.FindByTaxIDOrEmail(ctx, ident, true)
		if err != nil || a.ID != id {
			t.Fatalf("%s: got %+v, %v", ident, a, err)
		}
	}
	if _, err := r.FindByTaxIDOrEmail(ctx, "nobody", false); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestDeleteGating(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	id := register(t, r, "Ana", "111", "ana@example.com")

	if err := r.Delete(ctx, id, "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	a, err := r.FindByID(ctx, id)
	if err != nil || a.Balance.String() != "1000.00" {
		t.Fatalf("account must survive a wrong secret: %+v %v", a, err)
	}

	if err := r.Delete(ctx, "missing", "pw-Ana"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}

	if err := r.Delete(ctx, id, "pw-Ana"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.FindByID(ctx, id); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("deleted account still found: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	id := register(t, r, "Ana", "111", "ana@example.com")

	if err := r.ChangePassword(ctx, id, "wrong", "new"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if err := r.ChangePassword(ctx, id, "pw-Ana", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if err := r.ChangePassword(ctx, id, "pw-Ana", "new"); err != nil {
		t.Fatalf("change: %v", err)
	}
	a, _ := r.FindByID(ctx, id)
	if !security.VerifyPassword(a.PasswordHash, "new") {
		t.Fatalf("new password not stored")
	}
}

func TestUpgradeHash(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	const legacy = "pbkdf2:sha256:1000$NaCl$353fe12344ce4b0dfa279a5b353f95b485073b2f06ba4384cb1b1b349da8bdb0"
	err := r.Update(ctx, func(l *domain.Ledger) error {
		l.Put(&domain.Account{ID: "old", TaxID: "1", Email: "o@x", PasswordHash: legacy, Role: domain.RoleOrdinary})
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := r.UpgradeHash(ctx, "old", "admin123"); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	a, _ := r.FindByID(ctx, "old")
	if security.NeedsRehash(a.PasswordHash) || !security.VerifyPassword(a.PasswordHash, "admin123") {
		t.Fatalf("hash not upgraded: %s", a.PasswordHash)
	}
	if err := r.UpgradeHash(ctx, "old", "admin123"); err != nil {
		t.Fatalf("second upgrade should be a no-op: %v", err)
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) Save(context.Context, *domain.Ledger) error {
	return errors.New("disk full")
}

func TestUpdateReportsPersistenceFailure(t *testing.T) {
	_, s := newRepo(t)
	r := New(failingStore{Store: s}, Options{InitialBalance: domain.NewMoney(100), PasswordCost: security.MinCost}, nil)
	_, err := r.Create(context.Background(), NewAccount{DisplayName: "A", TaxID: "1", Email: "a@x", Secret: "x"})
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	l, _ := s.Load(context.Background())
	if len(l.Accounts) != 0 {
		t.Fatalf("nothing should be durable after a failed save")
	}
}

func TestConcurrentCreatesAreAllKept(t *testing.T) {
	r, _ := newRepo(t)
	ctx := context.Background()
	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			tax := domain.NewID()
			if _, err := r.Create(ctx, NewAccount{DisplayName: "U", TaxID: tax, Email: tax + "@x", Secret: "x"}); err != nil {
				t.Errorf("create: %v", err)
			}
		}()
	}
	wg.Wait()
	l, err := r.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(l.Accounts) != n {
		t.Fatalf("accounts = %d, want %d (lost update)", len(l.Accounts), n)
	}
}
