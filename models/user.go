package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Password     string      `json:"-"`
	Transactions []uuid.UUID `json:"transactions"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Owns reports whether id is in the user's transaction references.
func (u *User) Owns(id uuid.UUID) bool {
	return slices.Contains(u.Transactions, id)
}
