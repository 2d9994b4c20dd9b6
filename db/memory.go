package db

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nemopss/fin-track/models"
	"github.com/nemopss/fin-track/service"
)

// MemoryStorage keeps everything in process. Used for local runs and tests.
type MemoryStorage struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*models.User
	transactions map[uuid.UUID]models.Transaction
	now          func() time.Time
}

var _ service.Store = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:        make(map[uuid.UUID]*models.User),
		transactions: make(map[uuid.UUID]models.Transaction),
		now:          time.Now,
	}
}

func (s *MemoryStorage) Close() error { return nil }

func (s *MemoryStorage) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return service.ErrDuplicateUsername
		}
	}
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	u.CreatedAt = s.now()
	if u.Transactions == nil {
		u.Transactions = []uuid.UUID{}
	}
	stored := *u
	stored.Transactions = slices.Clone(u.Transactions)
	s.users[u.ID] = &stored
	return nil
}

func (s *MemoryStorage) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *MemoryStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *MemoryStorage) CreateTransaction(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.users[t.UserID]
	if !ok {
		return fmt.Errorf("link transaction: user %s not found", t.UserID)
	}
	if _, exists := s.transactions[t.ID]; exists {
		return fmt.Errorf("transaction %s already exists", t.ID)
	}
	t.CreatedAt = s.now()
	s.transactions[t.ID] = *t
	owner.Transactions = append(owner.Transactions, t.ID)
	return nil
}

func (s *MemoryStorage) GetTransaction(_ context.Context, id, userID uuid.UUID) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	return &t, nil
}

func (s *MemoryStorage) GetTransactionByID(_ context.Context, id uuid.UUID) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *MemoryStorage) ListTransactions(_ context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Transaction{}
	for _, t := range s.transactions {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b models.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})
	return out, nil
}

func (s *MemoryStorage) UpdateTransaction(_ context.Context, t *models.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.transactions[t.ID]
	if !ok || existing.UserID != t.UserID {
		return false, nil
	}
	t.CreatedAt = existing.CreatedAt
	s.transactions[t.ID] = *t
	return true, nil
}

func (s *MemoryStorage) DeleteTransaction(_ context.Context, id, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(s.transactions, id)
	if owner, ok := s.users[userID]; ok {
		owner.Transactions = slices.DeleteFunc(owner.Transactions, func(ref uuid.UUID) bool { return ref == id })
	}
	return true, nil
}

func (s *MemoryStorage) DeleteTransactions(_ context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		t, ok := s.transactions[id]
		if !ok || t.UserID != userID {
			continue
		}
		delete(s.transactions, id)
		deleted[id] = struct{}{}
	}
	if owner, ok := s.users[userID]; ok && len(deleted) > 0 {
		owner.Transactions = slices.DeleteFunc(owner.Transactions, func(ref uuid.UUID) bool {
			_, gone := deleted[ref]
			return gone
		})
	}
	return int64(len(deleted)), nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Transactions = slices.Clone(u.Transactions)
	return &c
}
