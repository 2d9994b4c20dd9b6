package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nemopss/fin-track/models"
)

// ErrDuplicateUsername is returned by UserRepository.CreateUser when the
// username is taken.
var ErrDuplicateUsername = errors.New("username already exists")

// UserRepository reads and creates users. Lookups return (nil, nil) when the
// user does not exist.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// TransactionRepository stores transactions. Every write that adds or
// removes a row also updates the owner's reference list in the same unit of
// work. Lookups return (nil, nil) when nothing matches.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, t *models.Transaction) (bool, error)
	DeleteTransaction(ctx context.Context, id, userID uuid.UUID) (bool, error)
	DeleteTransactions(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error)
}

// Store is what both backends in package db implement.
type Store interface {
	UserRepository
	TransactionRepository
}
