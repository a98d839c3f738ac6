package domain

import "sort"

// SchemaVersion is the canonical persisted document version.
const SchemaVersion = 2

// Ledger is the whole account collection as loaded from the store.
// Revision increments on every successful save.
type Ledger struct {
	SchemaVersion int
	Revision      int64
	Accounts      map[string]*Account
}

func NewLedger() *Ledger {
	return &Ledger{SchemaVersion: SchemaVersion, Accounts: make(map[string]*Account)}
}

func (l *Ledger) Get(id string) (*Account, bool) {
	a, ok := l.Accounts[id]
	return a, ok
}

func (l *Ledger) Put(a *Account) {
	if l.Accounts == nil {
		l.Accounts = make(map[string]*Account)
	}
	l.Accounts[a.ID] = a
}

func (l *Ledger) Remove(id string) { delete(l.Accounts, id) }

// IDs returns account ids in sorted order so scans are deterministic.
func (l *Ledger) IDs() []string {
	ids := make([]string, 0, len(l.Accounts))
	for id := range l.Accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FindByTaxIDOrEmail returns the first account whose tax id or email equals
// identifier.
func (l *Ledger) FindByTaxIDOrEmail(identifier string, excludeAdministrators bool) (*Account, bool) {
	for _, id := range l.IDs() {
		a := l.Accounts[id]
		if excludeAdministrators && a.IsAdministrator() {
			continue
		}
		if a.Matches(identifier) {
			return a, true
		}
	}
	return nil, false
}

// FindAdministrator returns the first administrator matching identifier.
func (l *Ledger) FindAdministrator(identifier string) (*Account, bool) {
	for _, id := range l.IDs() {
		a := l.Accounts[id]
		if a.IsAdministrator() && a.Matches(identifier) {
			return a, true
		}
	}
	return nil, false
}

// TotalBalance sums every account, administrators included.
func (l *Ledger) TotalBalance() Money {
	var total Money
	for _, a := range l.Accounts {
		total = total.Add(a.Balance)
	}
	return total
}
