// Package repository resolves and mutates accounts on top of a Store.
//
// Every mutation runs as load -> mutate -> save under one process-wide lock,
// so concurrent callers in the same process never lose each other's writes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/punchamoorthee/orionledger/internal/domain"
	"github.com/punchamoorthee/orionledger/internal/security"
	"github.com/punchamoorthee/orionledger/internal/store"
)

// Options carries the account policy.
type Options struct {
	InitialBalance domain.Money
	PasswordCost   int
}

type Repository struct {
	store  store.Store
	opts   Options
	logger *slog.Logger

	mu sync.Mutex
}

func New(s store.Store, opts Options, logger *slog.Logger) *Repository {
	if opts.PasswordCost == 0 {
		opts.PasswordCost = security.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: s, opts: opts, logger: logger}
}

// NewAccount is the registration input.
type NewAccount struct {
	DisplayName string
	TaxID       string
	Email       string
	Secret      string
}

func (n NewAccount) validate() error {
	var missing []string
	if strings.TrimSpace(n.DisplayName) == "" {
		missing = append(missing, "display name")
	}
	if strings.TrimSpace(n.TaxID) == "" {
		missing = append(missing, "tax id")
	}
	if strings.TrimSpace(n.Email) == "" {
		missing = append(missing, "email")
	}
	if n.Secret == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Snapshot loads the whole ledger for read-only use.
func (r *Repository) Snapshot(ctx context.Context) (*domain.Ledger, error) {
	l, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Error("ledger load failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return l, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	l, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := l.Get(id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a, nil
}

// FindByTaxIDOrEmail scans accounts in id order; the first match wins.
func (r *Repository) FindByTaxIDOrEmail(ctx context.Context, identifier string, excludeAdministrators bool) (*domain.Account, error) {
	l, err := r.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	a, ok := l.FindByTaxIDOrEmail(identifier, excludeAdministrators)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a, nil
}

// Update runs fn against a freshly loaded ledger and saves the result. If fn
// fails nothing is saved. Calls are serialized.
func (r *Repository) Update(ctx context.Context, fn func(*domain.Ledger) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.store.Load(ctx)
	if err != nil {
		r.logger.Error("ledger load failed", "error", err)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if err := fn(l); err != nil {
		return err
	}
	if err := r.store.Save(ctx, l); err != nil {
		r.logger.Error("ledger save failed", "revision", l.Revision, "stale", errors.Is(err, store.ErrStale), "error", err)
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Create registers an ordinary account and returns its id.
func (r *Repository) Create(ctx context.Context, n NewAccount) (string, error) {
	if err := n.validate(); err != nil {
		return "", err
	}
	hash, err := security.HashPassword(n.Secret, r.opts.PasswordCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var id string
	err = r.Update(ctx, func(l *domain.Ledger) error {
		for _, existingID := range l.IDs() {
			a := l.Accounts[existingID]
			if a.IsAdministrator() {
				continue
			}
			if a.TaxID == n.TaxID || a.Email == n.Email {
				return domain.ErrConflict
			}
		}
		id = domain.NewID()
		for _, taken := l.Get(id); taken; _, taken = l.Get(id) {
			id = domain.NewID()
		}
		l.Put(&domain.Account{
			ID:           id,
			DisplayName:  n.DisplayName,
			TaxID:        n.TaxID,
			Email:        n.Email,
			PasswordHash: hash,
			Role:         domain.RoleOrdinary,
			Balance:      r.opts.InitialBalance,
			Transactions: []domain.Transaction{},
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	r.logger.Info("account created", "account_id", id)
	return id, nil
}

// Delete removes the account after verifying its secret.
func (r *Repository) Delete(ctx context.Context, id, secret string) error {
	err := r.Update(ctx, func(l *domain.Ledger) error {
		a, ok := l.Get(id)
		if !ok {
			return domain.ErrAccountNotFound
		}
		if !security.VerifyPassword(a.PasswordHash, secret) {
			return domain.ErrInvalidCredentials
		}
		l.Remove(id)
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Info("account deleted", "account_id", id)
	return nil
}

// ChangePassword replaces the stored hash after verifying the current secret.
func (r *Repository) ChangePassword(ctx context.Context, id, current, next string) error {
	if next == "" {
		return fmt.Errorf("%w: missing new password", domain.ErrValidation)
	}
	hash, err := security.HashPassword(next, r.opts.PasswordCost)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return r.Update(ctx, func(l *domain.Ledger) error {
		a, ok := l.Get(id)
		if !ok {
			return domain.ErrAccountNotFound
		}
		if !security.VerifyPassword(a.PasswordHash, current) {
			return domain.ErrInvalidCredentials
		}
		a.PasswordHash = hash
		return nil
	})
}

// UpgradeHash rehashes a legacy-format password with bcrypt. It is a no-op if
// the stored hash is already current or no longer matches secret.
func (r *Repository) UpgradeHash(ctx context.Context, id, secret string) error {
	hash, err := security.HashPassword(secret, r.opts.PasswordCost)
	if err != nil {
		return err
	}
	errUnchanged := errors.New("unchanged")
	err = r.Update(ctx, func(l *domain.Ledger) error {
		a, ok := l.Get(id)
		if !ok || !security.NeedsRehash(a.PasswordHash) || !security.VerifyPassword(a.PasswordHash, secret) {
			return errUnchanged
		}
		a.PasswordHash = hash
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}
