package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/punchamoorthee/orionledger/internal/domain"
)

// exerciseStore runs the behaviour every backend must share. stored returns
// the raw persisted document.
func exerciseStore(t *testing.T, s Store, stored func() []byte) {
	t.Helper()
	ctx := context.Background()

	l, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(l.Accounts) != 0 || l.Revision != 0 {
		t.Fatalf("expected empty ledger, got %d accounts rev %d", len(l.Accounts), l.Revision)
	}

	l.Put(&domain.Account{
		ID:           "acc1",
		DisplayName:  "Ana",
		TaxID:        "111",
		Email:        "ana@example.com",
		PasswordHash: "h",
		Role:         domain.RoleOrdinary,
		Balance:      domain.NewMoney(100000),
	})
	if err := s.Save(ctx, l); err != nil {
		t.Fatalf("save: %v", err)
	}
	if l.Revision != 1 {
		t.Fatalf("revision after save = %d, want 1", l.Revision)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	a, ok := got.Get("acc1")
	if !ok || a.Balance.String() != "1000.00" || a.Email != "ana@example.com" {
		t.Fatalf("reloaded account mismatch: %+v", a)
	}

	// Save(Load()) leaves the stored document untouched.
	before := stored()
	if err := s.Save(ctx, got); err != nil {
		t.Fatalf("resave: %v", err)
	}
	if got.Revision != 1 {
		t.Fatalf("no-op save moved revision to %d", got.Revision)
	}
	if after := stored(); !bytes.Equal(before, after) {
		t.Fatalf("save(load()) changed the document:\n%s\n---\n%s", before, after)
	}

	// A real change still advances the revision.
	got.Accounts["acc1"].DisplayName = "Ana Maria"
	if err := s.Save(ctx, got); err != nil {
		t.Fatalf("save change: %v", err)
	}
	if got.Revision != 2 {
		t.Fatalf("revision after change = %d, want 2", got.Revision)
	}

	// A writer holding an older revision is rejected.
	stale := *l
	stale.Accounts = map[string]*domain.Account{}
	if err := s.Save(ctx, &stale); !errors.Is(err, ErrStale) {
		t.Fatalf("stale save err = %v, want ErrStale", err)
	}
	final, _ := s.Load(ctx)
	if _, ok := final.Get("acc1"); !ok {
		t.Fatalf("stale save must not clobber the document")
	}
}

func TestMigrateRewritesLegacyOnce(t *testing.T) {
	dir := t.TempDir()
	s := newFileStoreWithContent(t, dir, legacyDoc)
	ctx := context.Background()

	migrated, err := Migrate(ctx, s)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !migrated {
		t.Fatalf("expected legacy document to be migrated")
	}
	l, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if l.SchemaVersion != domain.SchemaVersion || len(l.Accounts) != 3 {
		t.Fatalf("unexpected migrated ledger: version %d, %d accounts", l.SchemaVersion, len(l.Accounts))
	}

	migrated, err = Migrate(ctx, s)
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if migrated {
		t.Fatalf("canonical document must not be migrated again")
	}
}
