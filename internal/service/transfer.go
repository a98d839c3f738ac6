package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/orionledger/internal/domain"
)

var (
	transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transfers_total",
		Help: "Transfer attempts, labeled by outcome",
	}, []string{"outcome"})

	transferDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_transfer_duration_seconds",
		Help:    "Latency of transfer validation and commit",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
)

// LedgerUpdater applies a mutation to the ledger as one load-mutate-save unit.
type LedgerUpdater interface {
	Update(ctx context.Context, fn func(*domain.Ledger) error) error
}

// TransferEngine moves funds between two ordinary accounts.
type TransferEngine struct {
	ledger LedgerUpdater
	now    func() time.Time
	logger *slog.Logger
}

func NewTransferEngine(ledger LedgerUpdater, logger *slog.Logger) *TransferEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransferEngine{ledger: ledger, now: time.Now, logger: logger}
}

// Transfer debits senderID and credits the ordinary account whose tax id or
// email is recipientIdentifier. Checks run in order and the first failure
// wins: amount, sender, recipient, self-transfer, funds. On success both
// balances and both transaction legs land in a single save, and the sender's
// new balance is returned. Nothing is saved when a check fails.
func (e *TransferEngine) Transfer(ctx context.Context, senderID, recipientIdentifier, amountRaw string) (newBalance domain.Money, err error) {
	timer := prometheus.NewTimer(transferDuration)
	defer timer.ObserveDuration()
	defer func() { transfersTotal.WithLabelValues(outcomeLabel(err)).Inc() }()

	amount, err := domain.ParseAmount(amountRaw)
	if err != nil {
		return domain.Money{}, err
	}
	recipientIdentifier = strings.TrimSpace(recipientIdentifier)

	err = e.ledger.Update(ctx, func(l *domain.Ledger) error {
		sender, ok := l.Get(senderID)
		if !ok || sender.IsAdministrator() {
			return domain.ErrUnauthorized
		}
		recipient, ok := l.FindByTaxIDOrEmail(recipientIdentifier, true)
		if !ok {
			return domain.ErrRecipientNotFound
		}
		if sender.TaxID == recipient.TaxID {
			return domain.ErrSelfTransfer
		}
		if sender.Balance.LessThan(amount) {
			return fmt.Errorf("%w: balance %s, requested %s", domain.ErrInsufficientFunds, sender.Balance, amount)
		}

		ts := e.now().Truncate(time.Second)
		sender.Balance = sender.Balance.Sub(amount)
		recipient.Balance = recipient.Balance.Add(amount)
		sender.Transactions = append(sender.Transactions, domain.Transaction{
			ID:               domain.NewID(),
			Kind:             domain.TxDebit,
			Amount:           amount,
			Timestamp:        ts,
			CounterpartyID:   recipient.ID,
			CounterpartyName: recipient.DisplayName,
		})
		recipient.Transactions = append(recipient.Transactions, domain.Transaction{
			ID:               domain.NewID(),
			Kind:             domain.TxCredit,
			Amount:           amount,
			Timestamp:        ts,
			CounterpartyID:   sender.ID,
			CounterpartyName: sender.DisplayName,
		})
		newBalance = sender.Balance
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			e.logger.Error("transfer not persisted", "sender_id", senderID, "amount", amount.String(), "error", err)
		}
		return domain.Money{}, err
	}

	e.logger.Info("transfer committed", "sender_id", senderID, "amount", amount.String())
	return newBalance, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "committed"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrRecipientNotFound):
		return "recipient_not_found"
	case errors.Is(err, domain.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence_failed"
	default:
		return "error"
	}
}
