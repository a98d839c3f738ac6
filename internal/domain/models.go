package domain

import "time"

// Role decides which operations an account may perform.
type Role string

const (
	RoleOrdinary      Role = "ordinary"
	RoleAdministrator Role = "administrator"
)

// TxKind is the direction of a transaction from the owning account's view.
type TxKind string

const (
	TxDebit  TxKind = "debit"
	TxCredit TxKind = "credit"
)

// Account is one ledger participant. ID is the document key and is not
// repeated inside the serialized account.
type Account struct {
	ID           string        `json:"-"`
	DisplayName  string        `json:"display_name"`
	TaxID        string        `json:"tax_id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"password_hash"`
	Role         Role          `json:"role"`
	Balance      Money         `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}

func (a *Account) IsAdministrator() bool { return a.Role == RoleAdministrator }

// Matches reports whether identifier equals the account's tax id or email.
func (a *Account) Matches(identifier string) bool {
	return identifier != "" && (a.TaxID == identifier || a.Email == identifier)
}

// Transaction is one leg of a transfer. Both legs of a transfer share
// Amount and Timestamp.
type Transaction struct {
	ID               string    `json:"id"`
	Kind             TxKind    `json:"kind"`
	Amount           Money     `json:"amount"`
	Timestamp        time.Time `json:"timestamp"`
	CounterpartyID   string    `json:"counterparty_id"`
	CounterpartyName string    `json:"counterparty_name"`
}
