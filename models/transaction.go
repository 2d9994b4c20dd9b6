package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeCredit  TransactionType = "credit"
	TypeExpense TransactionType = "expense"

	// TypeAll disables the type filter when listing.
	TypeAll = "all"
)

func (t TransactionType) Valid() bool {
	return t == TypeCredit || t == TypeExpense
}

type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number" example:"42.50"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"transactionType" enums:"credit,expense"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// TransactionFilter is the predicate the query engine hands to the store.
// A nil bound is open.
type TransactionFilter struct {
	UserID uuid.UUID
	Type   TransactionType
	From   *time.Time
	To     *time.Time
	// After is an exclusive lower bound, used by the "last N days" window.
	After *time.Time
}

// Match reports whether t satisfies every constraint of f.
func (f TransactionFilter) Match(t Transaction) bool {
	if t.UserID != f.UserID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	if f.After != nil && !t.Date.After(*f.After) {
		return false
	}
	return true
}
