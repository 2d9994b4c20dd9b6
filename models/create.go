package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type CreateTransaction struct {
	Title           string           `json:"title" example:"Groceries"`
	Amount          *decimal.Decimal `json:"amount" swaggertype:"number" example:"42.50"`
	Description     string           `json:"description" example:"weekly shopping"`
	Date            string           `json:"date" example:"2024-01-15"`
	Category        string           `json:"category" example:"food"`
	UserID          string           `json:"userId" example:"5b1f7f0e-7c4f-4a53-9d0c-0c6f3b2f1e11"`
	TransactionType string           `json:"transactionType" example:"expense"`
}

// UpdateTransaction carries a partial update. A nil field was not sent and
// leaves the stored value untouched.
type UpdateTransaction struct {
	Title           *string          `json:"title"`
	Amount          *decimal.Decimal `json:"amount" swaggertype:"number"`
	Description     *string          `json:"description"`
	Date            *string          `json:"date"`
	Category        *string          `json:"category"`
	TransactionType *string          `json:"transactionType"`
	UserID          string           `json:"userId"`
}

// Empty reports whether no field is set.
func (u UpdateTransaction) Empty() bool {
	return u.Title == nil && u.Amount == nil && u.Description == nil &&
		u.Date == nil && u.Category == nil && u.TransactionType == nil
}

type ListTransactions struct {
	UserID    string    `json:"userId" example:"5b1f7f0e-7c4f-4a53-9d0c-0c6f3b2f1e11"`
	Type      string    `json:"type" example:"all"`
	Frequency Frequency `json:"frequency" swaggertype:"string" example:"7"`
	StartDate string    `json:"startDate" example:"2024-01-01"`
	EndDate   string    `json:"endDate" example:"2024-01-31"`
}

type OwnerRequest struct {
	UserID string `json:"userId" example:"5b1f7f0e-7c4f-4a53-9d0c-0c6f3b2f1e11"`
}

type DeleteTransactions struct {
	TransactionIDs []string `json:"transactionIds"`
	UserID         string   `json:"userId"`
}

type CreateUser struct {
	Login    string `json:"username" example:"john_doe"`
	Password string `json:"password" example:"secret123"`
}

// Frequency is either the literal "custom" or a day count. Clients send it as
// a JSON string or a JSON number.
type Frequency string

const FrequencyCustom Frequency = "custom"

func (f *Frequency) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Frequency(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("frequency must be a string or a number: %w", err)
	}
	*f = Frequency(n.String())
	return nil
}
