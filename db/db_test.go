package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/nemopss/fin-track/models"
	"github.com/nemopss/fin-track/service"
	"github.com/shopspring/decimal"
)

// setupTestDB подключается к тестовой базе из POSTGRES_TEST_URL и очищает таблицы.
// Без переменной окружения тесты пропускаются.
func setupTestDB(t *testing.T) *Storage {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL is not set")
	}

	store, err := NewStorage(connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Очищаем таблицы перед тестом
	_, err = store.DB.Exec("TRUNCATE TABLE transactions, users CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	return store
}

func createTestUser(t *testing.T, store *Storage, username string) *models.User {
	t.Helper()
	user := &models.User{ID: uuid.New(), Username: username, Password: "hash"}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func createTestTransaction(t *testing.T, store *Storage, userID uuid.UUID, amount int64, typ models.TransactionType, date time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		ID:       uuid.New(),
		UserID:   userID,
		Title:    "test",
		Amount:   decimal.NewFromInt(amount),
		Category: "food",
		Date:     date,
		Type:     typ,
	}
	if err := store.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}
	return tx
}

// TestCreateAndGetUser тестирует создание пользователя и получение его по имени.
func TestCreateAndGetUser(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "testuser")
	if user.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}

	fetched, err := store.GetUserByUsername(ctx, "testuser")
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if fetched == nil || fetched.ID != user.ID {
		t.Fatalf("Expected user %s, got %+v", user.ID, fetched)
	}
	if len(fetched.Transactions) != 0 {
		t.Errorf("Expected no transaction references, got %v", fetched.Transactions)
	}

	// Повторное имя пользователя
	err = store.CreateUser(ctx, &models.User{ID: uuid.New(), Username: "testuser", Password: "hash"})
	if err != service.ErrDuplicateUsername {
		t.Errorf("Expected ErrDuplicateUsername, got %v", err)
	}

	// Несуществующий пользователь
	fetched, err = store.GetUser(ctx, uuid.New())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetched != nil {
		t.Errorf("Expected nil user, got %+v", fetched)
	}
}

// TestCreateTransactionLinksUser проверяет, что ссылка на транзакцию появляется у владельца.
func TestCreateTransactionLinksUser(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "testuser")
	tx := createTestTransaction(t, store, user.ID, 200, models.TypeExpense, time.Now())

	fetched, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if len(fetched.Transactions) != 1 || fetched.Transactions[0] != tx.ID {
		t.Errorf("Expected references [%s], got %v", tx.ID, fetched.Transactions)
	}

	got, err := store.GetTransaction(ctx, tx.ID, user.ID)
	if err != nil {
		t.Fatalf("Failed to get transaction: %v", err)
	}
	if got == nil || !got.Amount.Equal(decimal.NewFromInt(200)) || got.Type != models.TypeExpense {
		t.Errorf("Expected transaction {Amount: 200, Type: expense}, got %+v", got)
	}

	// Чужой владелец не видит транзакцию
	got, err = store.GetTransaction(ctx, tx.ID, uuid.New())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil transaction, got %+v", got)
	}

	// Транзакция без владельца откатывается целиком
	orphan := &models.Transaction{ID: uuid.New(), UserID: uuid.New(), Title: "x", Amount: decimal.NewFromInt(1), Category: "x", Date: time.Now(), Type: models.TypeCredit}
	if err := store.CreateTransaction(ctx, orphan); err == nil {
		t.Error("Expected error for unknown owner, got nil")
	}
	got, err = store.GetTransactionByID(ctx, orphan.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != nil {
		t.Errorf("Expected orphan insert to be rolled back, got %+v", got)
	}
}

// TestListTransactions тестирует фильтрацию по типу и датам и порядок по убыванию даты.
func TestListTransactions(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "testuser")
	other := createTestUser(t, store, "other")

	jan := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	createTestTransaction(t, store, user.ID, 100, models.TypeCredit, jan)
	createTestTransaction(t, store, user.ID, 200, models.TypeExpense, jan.AddDate(0, 0, 1))
	createTestTransaction(t, store, user.ID, 300, models.TypeCredit, jan.AddDate(0, 1, 0))
	createTestTransaction(t, store, other.ID, 400, models.TypeCredit, jan)

	all, err := store.ListTransactions(ctx, models.TransactionFilter{UserID: user.ID})
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(all))
	}
	if !all[0].Amount.Equal(decimal.NewFromInt(300)) || !all[2].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected newest first, got %+v", all)
	}

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := models.EndOfDay(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	window, err := store.ListTransactions(ctx, models.TransactionFilter{UserID: user.ID, From: &from, To: &to})
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	if len(window) != 2 {
		t.Errorf("Expected 2 transactions in January, got %d", len(window))
	}

	credits, err := store.ListTransactions(ctx, models.TransactionFilter{UserID: user.ID, Type: models.TypeCredit, After: &from})
	if err != nil {
		t.Fatalf("Failed to list transactions: %v", err)
	}
	for _, tx := range credits {
		if tx.Type != models.TypeCredit || tx.UserID != user.ID {
			t.Errorf("Unexpected transaction %+v", tx)
		}
	}
	if len(credits) != 2 {
		t.Errorf("Expected 2 credits, got %d", len(credits))
	}
}

// TestUpdateTransaction тестирует обновление транзакции.
func TestUpdateTransaction(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "testuser")
	tx := createTestTransaction(t, store, user.ID, 500, models.TypeCredit, time.Now())

	tx.Amount = decimal.RequireFromString("600.25")
	tx.Type = models.TypeExpense
	updated, err := store.UpdateTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("Failed to update transaction: %v", err)
	}
	if !updated {
		t.Error("Expected transaction to be updated, got false")
	}

	fetched, err := store.GetTransactionByID(ctx, tx.ID)
	if err != nil {
		t.Fatalf("Failed to get transaction: %v", err)
	}
	if !fetched.Amount.Equal(tx.Amount) || fetched.Type != models.TypeExpense {
		t.Errorf("Expected {Amount: 600.25, Type: expense}, got %+v", fetched)
	}

	// Несуществующая транзакция
	missing := *tx
	missing.ID = uuid.New()
	updated, err = store.UpdateTransaction(ctx, &missing)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated {
		t.Error("Expected no update for non-existent transaction, got true")
	}
}

// TestDeleteTransactions тестирует одиночное и массовое удаление вместе с очисткой ссылок.
func TestDeleteTransactions(t *testing.T) {
	store := setupTestDB(t)
	defer store.Close()
	ctx := context.Background()

	user := createTestUser(t, store, "testuser")
	other := createTestUser(t, store, "other")
	a := createTestTransaction(t, store, user.ID, 1, models.TypeCredit, time.Now())
	b := createTestTransaction(t, store, user.ID, 2, models.TypeCredit, time.Now())
	c := createTestTransaction(t, store, user.ID, 3, models.TypeCredit, time.Now())
	foreign := createTestTransaction(t, store, other.ID, 4, models.TypeCredit, time.Now())

	// Чужая транзакция не удаляется
	deleted, err := store.DeleteTransaction(ctx, foreign.ID, user.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if deleted {
		t.Error("Expected foreign transaction to survive")
	}

	deleted, err = store.DeleteTransaction(ctx, a.ID, user.ID)
	if err != nil {
		t.Fatalf("Failed to delete transaction: %v", err)
	}
	if !deleted {
		t.Error("Expected transaction to be deleted, got false")
	}

	n, err := store.DeleteTransactions(ctx, []uuid.UUID{c.ID, foreign.ID}, user.ID)
	if err != nil {
		t.Fatalf("Failed to delete transactions: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 deleted, got %d", n)
	}

	fetched, err := store.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("Failed to get user: %v", err)
	}
	if len(fetched.Transactions) != 1 || fetched.Transactions[0] != b.ID {
		t.Errorf("Expected references [%s], got %v", b.ID, fetched.Transactions)
	}

	n, err = store.DeleteTransactions(ctx, []uuid.UUID{uuid.New()}, user.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 deleted, got %d", n)
	}
}
