package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/punchamoorthee/orionledger/internal/domain"
)

// legacySchemaVersion marks a document in the flat id -> account shape.
const legacySchemaVersion = 1

// legacyAdminKey is the reserved key the previous implementation used for
// its single administrator.
const legacyAdminKey = "super_admin"

const legacyTimeLayout = "2006-01-02 15:04:05"

type document struct {
	SchemaVersion int                        `json:"schema_version"`
	Revision      int64                      `json:"revision"`
	Accounts      map[string]*domain.Account `json:"accounts"`
}

// Encode renders l in the canonical shape. The output is deterministic, so
// Encode(Decode(Encode(l))) == Encode(l).
func Encode(l *domain.Ledger) ([]byte, error) {
	doc := document{
		SchemaVersion: domain.SchemaVersion,
		Revision:      l.Revision,
		Accounts:      make(map[string]*domain.Account, len(l.Accounts)),
	}
	for id, a := range l.Accounts {
		cp := *a
		if cp.Transactions == nil {
			cp.Transactions = []domain.Transaction{}
		}
		doc.Accounts[id] = &cp
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return append(data, '\n'), nil
}

// unchanged reports whether writing l over stored would change nothing but
// the revision. stored must be the current document at l's revision.
func unchanged(stored, l *domain.Ledger) bool {
	if stored.SchemaVersion != domain.SchemaVersion || stored.Revision != l.Revision {
		return false
	}
	a, err := Encode(stored)
	if err != nil {
		return false
	}
	b, err := Encode(l)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// Decode parses either the canonical document or the legacy flat map.
// Blank input decodes to an empty ledger.
func Decode(data []byte) (*domain.Ledger, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.NewLedger(), nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	if _, ok := top["schema_version"]; ok {
		return decodeCanonical(data)
	}
	return decodeLegacy(top)
}

func decodeCanonical(data []byte) (*domain.Ledger, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	if doc.SchemaVersion > domain.SchemaVersion {
		return nil, fmt.Errorf("decode ledger: schema version %d is newer than supported %d", doc.SchemaVersion, domain.SchemaVersion)
	}

	l := domain.NewLedger()
	l.SchemaVersion = doc.SchemaVersion
	l.Revision = doc.Revision
	for id, a := range doc.Accounts {
		if a == nil {
			return nil, fmt.Errorf("decode ledger: account %q is null", id)
		}
		a.ID = id
		if a.Role == "" {
			a.Role = domain.RoleOrdinary
		}
		if a.Transactions == nil {
			a.Transactions = []domain.Transaction{}
		}
		l.Put(a)
	}
	return l, nil
}

type legacyAccount struct {
	Email        string               `json:"email"`
	Nome         string               `json:"nome"`
	CPF          string               `json:"cpf"`
	PasswordHash string               `json:"password_hash"`
	Senha        string               `json:"senha"`
	IsAdmin      bool                 `json:"is_admin"`
	Role         string               `json:"role"`
	Balance      *domain.Money        `json:"balance"`
	Saldo        *domain.Money        `json:"saldo"`
	Transactions *[]legacyTransaction `json:"transactions"`
	Historico    *[]legacyTransaction `json:"historico"`
}

type legacyTransaction struct {
	ID            string       `json:"id"`
	Type          string       `json:"type"`
	Amount        domain.Money `json:"amount"`
	Timestamp     string       `json:"timestamp"`
	RecipientName string       `json:"recipient_name"`
	RecipientID   string       `json:"recipient_id"`
	SenderName    string       `json:"sender_name"`
	SenderID      string       `json:"sender_id"`
}

func decodeLegacy(top map[string]json.RawMessage) (*domain.Ledger, error) {
	l := domain.NewLedger()
	l.SchemaVersion = legacySchemaVersion
	for id, raw := range top {
		var la legacyAccount
		if err := json.Unmarshal(raw, &la); err != nil {
			return nil, fmt.Errorf("decode legacy account %q: %w", id, err)
		}
		l.Put(la.normalize(id))
	}
	return l, nil
}

func (la legacyAccount) normalize(id string) *domain.Account {
	a := &domain.Account{
		ID:          id,
		DisplayName: la.Nome,
		TaxID:       la.CPF,
		Email:       la.Email,
		Role:        domain.RoleOrdinary,
	}
	admin := id == legacyAdminKey || la.IsAdmin || la.Role == "super_admin" || la.Role == string(domain.RoleAdministrator)
	if admin {
		a.Role = domain.RoleAdministrator
		a.PasswordHash = firstNonEmpty(la.Senha, la.PasswordHash)
	} else {
		a.PasswordHash = firstNonEmpty(la.PasswordHash, la.Senha)
	}

	switch {
	case la.Balance != nil:
		a.Balance = *la.Balance
	case la.Saldo != nil:
		a.Balance = *la.Saldo
	}

	var txs []legacyTransaction
	switch {
	case la.Transactions != nil:
		txs = *la.Transactions
	case la.Historico != nil:
		txs = *la.Historico
	}
	a.Transactions = make([]domain.Transaction, 0, len(txs))
	for i, lt := range txs {
		a.Transactions = append(a.Transactions, lt.normalize(id, i))
	}
	return a
}

func (lt legacyTransaction) normalize(accountID string, index int) domain.Transaction {
	tx := domain.Transaction{
		ID:        lt.ID,
		Amount:    lt.Amount,
		Timestamp: parseLegacyTime(lt.Timestamp),
	}
	if tx.ID == "" {
		tx.ID = domain.LegacyTransactionID(accountID, index)
	}
	switch lt.Type {
	case "received", string(domain.TxCredit):
		tx.Kind = domain.TxCredit
		tx.CounterpartyID = lt.SenderID
		tx.CounterpartyName = lt.SenderName
	default:
		tx.Kind = domain.TxDebit
		tx.CounterpartyID = lt.RecipientID
		tx.CounterpartyName = lt.RecipientName
	}
	return tx
}

// parseLegacyTime accepts the old naive local layout or RFC 3339. Unparseable
// values become the zero time rather than failing the whole document.
func parseLegacyTime(s string) time.Time {
	if t, err := time.ParseInLocation(legacyTimeLayout, s, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
