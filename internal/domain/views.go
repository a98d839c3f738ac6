package domain

import "time"

// AccountView is what an account holder sees on their dashboard.
type AccountView struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Email              string            `json:"email"`
	Balance            Money             `json:"balance"`
	RecentTransactions []TransactionView `json:"recent_transactions"`
}

type TransactionView struct {
	ID               string    `json:"id"`
	Kind             TxKind    `json:"kind"`
	Amount           Money     `json:"amount"`
	Timestamp        time.Time `json:"timestamp"`
	CounterpartyName string    `json:"counterparty_name"`
	IsCredit         bool      `json:"is_credit"`
	Description      string    `json:"description"`
}

// SystemStats is the administrator report over ordinary accounts.
type SystemStats struct {
	TotalUsers          int        `json:"total_users"`
	ActiveAccounts      int        `json:"active_accounts"`
	TotalBalance        Money      `json:"total_balance"`
	TotalTransactions   int        `json:"total_transactions"`
	TransactionsLast24h int        `json:"transactions_last_24h"`
	Users               []StatsRow `json:"user_list"`
}

type StatsRow struct {
	MaskedID          string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	TaxID             string `json:"tax_id"`
	Balance           string `json:"balance"`
	TransactionsCount int    `json:"transactions_count"`
}
