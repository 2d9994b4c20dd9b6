package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nemopss/fin-track/models"
	"github.com/nemopss/fin-track/service"
)

// Storage is the Postgres backend.
type Storage struct {
	DB *sql.DB
}

var _ service.Store = (*Storage)(nil)

// NewStorage connects to Postgres and applies pending migrations.
func NewStorage(connStr string) (*Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(connStr); err != nil {
		db.Close()
		return nil, err
	}

	return &Storage{DB: db}, nil
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (id, username, password, transaction_ids)
		 VALUES ($1, $2, $3, '{}')
		 RETURNING created_at`,
		u.ID, u.Username, u.Password,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return service.ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.DB.QueryRowContext(ctx,
		`SELECT id, username, password, transaction_ids, created_at FROM users WHERE id = $1`, id))
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.scanUser(s.DB.QueryRowContext(ctx,
		`SELECT id, username, password, transaction_ids, created_at FROM users WHERE username = $1`, username))
}

func (s *Storage) scanUser(row *sql.Row) (*models.User, error) {
	var (
		u   models.User
		ids pq.StringArray
	)
	err := row.Scan(&u.ID, &u.Username, &u.Password, &ids, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.Transactions, err = parseIDs(ids); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateTransaction inserts t and appends its id to the owner's references
// in one database transaction.
func (s *Storage) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO transactions (id, user_id, title, amount, category, description, date, type)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING created_at`,
			t.ID, t.UserID, t.Title, t.Amount, t.Category, t.Description, t.Date, t.Type,
		).Scan(&t.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE users SET transaction_ids = array_append(transaction_ids, $1) WHERE id = $2`,
			t.ID, t.UserID)
		if err != nil {
			return fmt.Errorf("link transaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("link transaction: user %s not found", t.UserID)
		}
		return nil
	})
}

const transactionColumns = `id, user_id, title, amount, category, description, date, type, created_at`

func (s *Storage) GetTransaction(ctx context.Context, id, userID uuid.UUID) (*models.Transaction, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	return scanTransactionRow(row)
}

func (s *Storage) GetTransactionByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransactionRow(row)
}

// ListTransactions returns the rows matching f, newest first.
func (s *Storage) ListTransactions(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	query, args := buildListQuery(f)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func buildListQuery(f models.TransactionFilter) (string, []any) {
	conditions := []string{"user_id = $1"}
	args := []any{f.UserID}

	add := func(cond string, v any) {
		args = append(args, v)
		conditions = append(conditions, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.Type != "" {
		add("type = ?", f.Type)
	}
	if f.From != nil {
		add("date >= ?", *f.From)
	}
	if f.To != nil {
		add("date <= ?", *f.To)
	}
	if f.After != nil {
		add("date > ?", *f.After)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY date DESC, id DESC`
	return query, args
}

func (s *Storage) UpdateTransaction(ctx context.Context, t *models.Transaction) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE transactions
		 SET title = $1, amount = $2, category = $3, description = $4, date = $5, type = $6
		 WHERE id = $7 AND user_id = $8`,
		t.Title, t.Amount, t.Category, t.Description, t.Date, t.Type, t.ID, t.UserID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteTransaction deletes the row only when userID owns it, and drops the
// reference in the same database transaction.
func (s *Storage) DeleteTransaction(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		deleted = true

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET transaction_ids = array_remove(transaction_ids, $1) WHERE id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("unlink transaction: %w", err)
		}
		return nil
	})
	return deleted, err
}

// DeleteTransactions deletes the listed rows owned by userID and removes the
// deleted ids from the owner's references, keeping the order of the rest.
func (s *Storage) DeleteTransactions(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`DELETE FROM transactions WHERE user_id = $1 AND id = ANY($2::uuid[]) RETURNING id`,
			userID, pq.StringArray(formatIDs(ids)))
		if err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		var deleted pq.StringArray
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			deleted = append(deleted, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		count = int64(len(deleted))
		if count == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE users SET transaction_ids = (
				SELECT COALESCE(array_agg(ref ORDER BY ord), '{}')
				FROM unnest(transaction_ids) WITH ORDINALITY AS u(ref, ord)
				WHERE ref <> ALL($1::uuid[])
			) WHERE id = $2`,
			deleted, userID)
		if err != nil {
			return fmt.Errorf("unlink transactions: %w", err)
		}
		return nil
	})
	return count, err
}

func (s *Storage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner, t *models.Transaction) error {
	var typ string
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Amount, &t.Category, &t.Description, &t.Date, &typ, &t.CreatedAt); err != nil {
		return err
	}
	t.Type = models.TransactionType(typ)
	return nil
}

func scanTransactionRow(row *sql.Row) (*models.Transaction, error) {
	var t models.Transaction
	err := scanTransaction(row, &t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatIDs(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse transaction reference %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}
