// Package service exposes the ledger operations external callers use:
// authentication, registration, transfers, account views, the administrator
// report, credential change and deletion.
package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/punchamoorthee/orionledger/internal/auth"
	"github.com/punchamoorthee/orionledger/internal/domain"
	"github.com/punchamoorthee/orionledger/internal/repository"
)

const recentTransactionsLimit = 5

type Ledger struct {
	repo     *repository.Repository
	gate     *auth.Gate
	transfer *TransferEngine
	stats    *StatsAggregator
}

func NewLedger(repo *repository.Repository, gate *auth.Gate, transfer *TransferEngine, stats *StatsAggregator) *Ledger {
	return &Ledger{repo: repo, gate: gate, transfer: transfer, stats: stats}
}

func (s *Ledger) Authenticate(ctx context.Context, identifier, secret string) (auth.Principal, error) {
	return s.gate.Authenticate(ctx, identifier, secret)
}

func (s *Ledger) Register(ctx context.Context, n repository.NewAccount) (string, error) {
	return s.repo.Create(ctx, n)
}

func (s *Ledger) Transfer(ctx context.Context, senderID, recipientIdentifier, amount string) (domain.Money, error) {
	return s.transfer.Transfer(ctx, senderID, recipientIdentifier, amount)
}

func (s *Ledger) DeleteAccount(ctx context.Context, accountID, secret string) error {
	return s.repo.Delete(ctx, accountID, secret)
}

func (s *Ledger) ChangePassword(ctx context.Context, accountID, current, next string) error {
	return s.repo.ChangePassword(ctx, accountID, current, next)
}

// AccountView returns the dashboard data for an ordinary account with its
// five most recent transactions, newest first.
func (s *Ledger) AccountView(ctx context.Context, accountID string) (domain.AccountView, error) {
	a, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return domain.AccountView{}, err
	}
	if a.IsAdministrator() {
		return domain.AccountView{}, fmt.Errorf("%w: administrators have no account dashboard", domain.ErrForbidden)
	}
	return domain.AccountView{
		ID:                 a.ID,
		Name:               a.DisplayName,
		Email:              a.Email,
		Balance:            a.Balance,
		RecentTransactions: recentTransactions(a.Transactions, recentTransactionsLimit),
	}, nil
}

// SystemStats is restricted to callers that are administrators in the
// current ledger, not merely in their token.
func (s *Ledger) SystemStats(ctx context.Context, caller auth.Principal) (domain.SystemStats, error) {
	l, err := s.repo.Snapshot(ctx)
	if err != nil {
		return domain.SystemStats{}, err
	}
	a, ok := l.Get(caller.AccountID)
	if !ok || !a.IsAdministrator() {
		return domain.SystemStats{}, domain.ErrForbidden
	}
	return s.stats.Compute(l), nil
}

func recentTransactions(txs []domain.Transaction, limit int) []domain.TransactionView {
	idx := make([]int, len(txs))
	for i := range idx {
		idx[i] = i
	}
	// Newest first; among equal timestamps the later append wins.
	sort.SliceStable(idx, func(i, j int) bool {
		ti, tj := txs[idx[i]].Timestamp, txs[idx[j]].Timestamp
		if ti.Equal(tj) {
			return idx[i] > idx[j]
		}
		return ti.After(tj)
	})
	if len(idx) > limit {
		idx = idx[:limit]
	}

	out := make([]domain.TransactionView, 0, len(idx))
	for _, i := range idx {
		tx := txs[i]
		name := tx.CounterpartyName
		if name == "" {
			name = "Unknown"
		}
		desc := "Transfer sent to " + name
		if tx.Kind == domain.TxCredit {
			desc = "Transfer received from " + name
		}
		out = append(out, domain.TransactionView{
			ID:               tx.ID,
			Kind:             tx.Kind,
			Amount:           tx.Amount,
			Timestamp:        tx.Timestamp,
			CounterpartyName: name,
			IsCredit:         tx.Kind == domain.TxCredit,
			Description:      desc,
		})
	}
	return out
}
