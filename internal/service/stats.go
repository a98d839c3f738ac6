package service

import (
	"math/big"
	"strings"
	"time"

	"github.com/punchamoorthee/orionledger/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const statsWindow = 24 * time.Hour

// StatsAggregator rolls up ordinary accounts for the administrator report.
// It never mutates the ledger.
type StatsAggregator struct {
	printer *message.Printer
	now     func() time.Time
}

func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{
		printer: message.NewPrinter(language.BrazilianPortuguese),
		now:     time.Now,
	}
}

// Compute walks every non-administrator account once, in id order.
func (s *StatsAggregator) Compute(l *domain.Ledger) domain.SystemStats {
	cutoff := s.now().Add(-statsWindow)
	stats := domain.SystemStats{Users: []domain.StatsRow{}}

	for _, id := range l.IDs() {
		a := l.Accounts[id]
		if a.IsAdministrator() {
			continue
		}
		stats.TotalUsers++
		stats.TotalBalance = stats.TotalBalance.Add(a.Balance)
		stats.TotalTransactions += len(a.Transactions)
		if len(a.Transactions) > 0 {
			stats.ActiveAccounts++
		}
		for _, tx := range a.Transactions {
			if tx.Timestamp.After(cutoff) {
				stats.TransactionsLast24h++
			}
		}
		stats.Users = append(stats.Users, domain.StatsRow{
			MaskedID:          maskID(id),
			Name:              orNA(a.DisplayName),
			Email:             orNA(a.Email),
			TaxID:             orNA(a.TaxID),
			Balance:           s.FormatBRL(a.Balance),
			TransactionsCount: len(a.Transactions),
		})
	}
	return stats
}

// FormatBRL renders m as "R$ 1.234,56". Only the integer part goes through
// the printer; cents come straight from the decimal text.
func (s *StatsAggregator) FormatBRL(m domain.Money) string {
	text := m.String()
	sign := ""
	if strings.HasPrefix(text, "-") {
		sign, text = "-", text[1:]
	}
	whole, cents, _ := strings.Cut(text, ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok || !n.IsInt64() {
		return "R$ " + sign + whole + "," + cents
	}
	return s.printer.Sprintf("R$ %s%d,%s", sign, n.Int64(), cents)
}

func maskID(id string) string {
	r := []rune(id)
	if len(r) > 4 {
		r = r[:4]
	}
	return string(r) + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
