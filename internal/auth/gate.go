// Package auth resolves who is acting: it verifies credentials against the
// ledger and carries the resulting identity between requests as a signed
// bearer token.
package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/punchamoorthee/orionledger/internal/domain"
	"github.com/punchamoorthee/orionledger/internal/security"
)

// Principal is an authenticated caller.
type Principal struct {
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
}

func (p Principal) IsAdministrator() bool { return p.Role == domain.RoleAdministrator }

// AccountSource is the slice of the repository the gate needs.
type AccountSource interface {
	Snapshot(ctx context.Context) (*domain.Ledger, error)
	UpgradeHash(ctx context.Context, id, secret string) error
}

type Gate struct {
	accounts AccountSource
	logger   *slog.Logger
}

func NewGate(accounts AccountSource, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{accounts: accounts, logger: logger}
}

// Authenticate resolves identifier (tax id or email) and verifies secret.
// Administrators are tried first; when an administrator matches the
// identifier, ordinary accounts are not consulted. Every failure is reported
// as ErrInvalidCredentials.
func (g *Gate) Authenticate(ctx context.Context, identifier, secret string) (Principal, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return Principal{}, domain.ErrInvalidCredentials
	}
	l, err := g.accounts.Snapshot(ctx)
	if err != nil {
		return Principal{}, err
	}

	a, ok := l.FindAdministrator(identifier)
	if !ok {
		a, ok = l.FindByTaxIDOrEmail(identifier, true)
	}
	if !ok || !security.VerifyPassword(a.PasswordHash, secret) {
		return Principal{}, domain.ErrInvalidCredentials
	}

	if security.NeedsRehash(a.PasswordHash) {
		if err := g.accounts.UpgradeHash(ctx, a.ID, secret); err != nil {
			g.logger.Warn("password hash upgrade failed", "account_id", a.ID, "error", err)
		}
	}
	return Principal{AccountID: a.ID, Role: a.Role}, nil
}
