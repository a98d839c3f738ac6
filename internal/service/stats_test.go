package service

import (
	"strings"
	"testing"
	"time"

	"github.com/punchamoorthee/orionledger/internal/domain"
)

func TestStatsCompute(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewStatsAggregator()
	s.now = fixedClock(now)

	l := domain.NewLedger()
	l.Put(&domain.Account{ID: "super_admin", DisplayName: "Admin", Role: domain.RoleAdministrator, Balance: domain.NewMoney(100000000),
		Transactions: []domain.Transaction{{Kind: domain.TxDebit, Timestamp: now}}})
	l.Put(&domain.Account{ID: "aaaa1111", DisplayName: "Ana", Email: "ana@example.com", TaxID: "111", Role: domain.RoleOrdinary,
		Balance: domain.NewMoney(123456),
		Transactions: []domain.Transaction{
			{Kind: domain.TxDebit, Timestamp: now.Add(-time.Hour)},
			{Kind: domain.TxDebit, Timestamp: now.Add(-48 * time.Hour)},
		}})
	l.Put(&domain.Account{ID: "bbbb2222", DisplayName: "", Email: "b@example.com", TaxID: "222", Role: domain.RoleOrdinary,
		Balance: domain.NewMoney(50)})

	got := s.Compute(l)
	if got.TotalUsers != 2 {
		t.Fatalf("total users = %d, want 2", got.TotalUsers)
	}
	if got.TotalBalance.String() != "1235.06" {
		t.Fatalf("total balance = %s, want 1235.06", got.TotalBalance)
	}
	if got.TotalTransactions != 2 || got.TransactionsLast24h != 1 || got.ActiveAccounts != 1 {
		t.Fatalf("counts = %+v", got)
	}
	if len(got.Users) != 2 {
		t.Fatalf("rows = %d, want 2", len(got.Users))
	}
	row := got.Users[0]
	if row.MaskedID != "aaaa..." || row.Name != "Ana" || row.TaxID != "111" || row.TransactionsCount != 2 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if !strings.HasPrefix(row.Balance, "R$ ") || !strings.Contains(row.Balance, "1.234,56") {
		t.Fatalf("balance = %q, want R$ 1.234,56", row.Balance)
	}
	if got.Users[1].Name != "N/A" {
		t.Fatalf("blank name should render N/A, got %q", got.Users[1].Name)
	}
}

func TestStatsEmptyLedger(t *testing.T) {
	got := NewStatsAggregator().Compute(domain.NewLedger())
	if got.TotalUsers != 0 || !got.TotalBalance.IsZero() || got.Users == nil {
		t.Fatalf("unexpected stats for empty ledger: %+v", got)
	}
}

func TestFormatBRL(t *testing.T) {
	s := NewStatsAggregator()
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{123456, "R$ 1.234,56"},
		{-50, "R$ -0,50"},
		{9999999999999999, "R$ 99.999.999.999.999,99"},
	}
	for _, tt := range tests {
		if got := s.FormatBRL(domain.NewMoney(tt.cents)); got != tt.want {
			t.Errorf("FormatBRL(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMaskID(t *testing.T) {
	if got := maskID("ab"); got != "ab..." {
		t.Fatalf("maskID(ab) = %q", got)
	}
	if got := maskID("0123456789"); got != "0123..." {
		t.Fatalf("maskID = %q", got)
	}
}
