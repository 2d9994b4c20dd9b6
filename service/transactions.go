package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nemopss/fin-track/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultLookbackDays is used when the frequency is neither "custom" nor a
// valid day count.
const DefaultLookbackDays = 7

// MaxLookbackDays caps the window. Anything longer lists the whole history.
const MaxLookbackDays = 100 * 366

// Transactions is the query engine and mutation service for transactions.
type Transactions struct {
	users UserRepository
	txs   TransactionRepository
	log   zerolog.Logger
	loc   *time.Location
	now   func() time.Time
}

type Option func(*Transactions)

// WithLocation sets the location used for day boundaries and zone-less dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Transactions) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Transactions) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Transactions) { s.log = l }
}

func NewTransactions(users UserRepository, txs TransactionRepository, opts ...Option) *Transactions {
	s := &Transactions{
		users: users,
		txs:   txs,
		log:   zerolog.Nop(),
		loc:   time.UTC,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Transactions) Create(ctx context.Context, req models.CreateTransaction) (*models.Transaction, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if req.Amount == nil {
		return nil, invalid("amount is required")
	}
	if !req.Amount.IsPositive() {
		return nil, invalid("amount must be greater than zero")
	}
	if strings.TrimSpace(req.Date) == "" {
		return nil, invalid("date is required")
	}
	date, err := models.ParseDate(req.Date, s.loc)
	if err != nil {
		return nil, invalid("date is invalid")
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		return nil, invalid("category is required")
	}
	typ, err := parseType(req.TransactionType)
	if err != nil {
		return nil, err
	}
	owner, err := s.resolveOwner(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	t := &models.Transaction{
		ID:          uuid.New(),
		UserID:      owner.ID,
		Title:       title,
		Amount:      *req.Amount,
		Category:    category,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		Type:        typ,
	}
	if err := s.txs.CreateTransaction(ctx, t); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.log.Debug().
		Str("transaction_id", t.ID.String()).
		Str("user_id", owner.ID.String()).
		Str("type", string(t.Type)).
		Str("amount", t.Amount.String()).
		Msg("transaction created")
	return t, nil
}

// List returns the owner's transactions matching the type and date window,
// newest first.
func (s *Transactions) List(ctx context.Context, req models.ListTransactions) ([]models.Transaction, error) {
	owner, err := s.resolveOwner(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	filter := models.TransactionFilter{UserID: owner.ID}

	if typ := strings.TrimSpace(req.Type); typ != "" && typ != models.TypeAll {
		t := models.TransactionType(typ)
		if !t.Valid() {
			return nil, invalid("type must be all, credit or expense")
		}
		filter.Type = t
	}

	if req.Frequency == models.FrequencyCustom {
		if strings.TrimSpace(req.StartDate) == "" || strings.TrimSpace(req.EndDate) == "" {
			return nil, invalid("startDate and endDate are required for a custom range")
		}
		start, err := models.ParseDate(req.StartDate, s.loc)
		if err != nil {
			return nil, invalid("startDate is invalid")
		}
		end, err := models.ParseDate(req.EndDate, s.loc)
		if err != nil {
			return nil, invalid("endDate is invalid")
		}
		from, to := models.StartOfDay(start), models.EndOfDay(end)
		if from.After(to) {
			return nil, invalid("startDate must not be after endDate")
		}
		filter.From, filter.To = &from, &to
	} else {
		if days, bounded := lookbackDays(req.Frequency); bounded {
			after := models.StartOfDay(s.now().In(s.loc).AddDate(0, 0, -days))
			filter.After = &after
		}
	}

	transactions, err := s.txs.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

// Get returns a transaction only if it belongs to userID. A foreign
// transaction is reported exactly like a missing one.
func (s *Transactions) Get(ctx context.Context, id, userID string) (*models.Transaction, error) {
	txID, err := parseTransactionID(id)
	if err != nil {
		return nil, err
	}
	ownerID, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	t, err := s.txs.GetTransaction(ctx, txID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if t == nil {
		return nil, notFound("transaction not found")
	}
	return t, nil
}

// Update applies the fields present in req. When req.UserID is set the
// lookup is scoped to that owner.
func (s *Transactions) Update(ctx context.Context, id string, req models.UpdateTransaction) (*models.Transaction, error) {
	txID, err := parseTransactionID(id)
	if err != nil {
		return nil, err
	}

	var t *models.Transaction
	if strings.TrimSpace(req.UserID) != "" {
		ownerID, err := parseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		t, err = s.txs.GetTransaction(ctx, txID, ownerID)
		if err != nil {
			return nil, fmt.Errorf("get transaction: %w", err)
		}
	} else {
		t, err = s.txs.GetTransactionByID(ctx, txID)
		if err != nil {
			return nil, fmt.Errorf("get transaction: %w", err)
		}
	}
	if t == nil {
		return nil, notFound("transaction not found")
	}
	if req.Empty() {
		return t, nil
	}

	if err := s.applyPatch(t, req); err != nil {
		return nil, err
	}

	ok, err := s.txs.UpdateTransaction(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if !ok {
		return nil, notFound("transaction not found")
	}

	s.log.Debug().Str("transaction_id", t.ID.String()).Msg("transaction updated")
	return t, nil
}

func (s *Transactions) applyPatch(t *models.Transaction, req models.UpdateTransaction) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return invalid("title must not be empty")
		}
		t.Title = title
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return invalid("amount must be greater than zero")
		}
		t.Amount = *req.Amount
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return invalid("category must not be empty")
		}
		t.Category = category
	}
	if req.TransactionType != nil {
		typ, err := parseType(*req.TransactionType)
		if err != nil {
			return err
		}
		t.Type = typ
	}
	if req.Date != nil {
		date, err := models.ParseDate(*req.Date, s.loc)
		if err != nil {
			return invalid("date is invalid")
		}
		t.Date = date
	}
	return nil
}

// Delete removes one of the owner's transactions and its reference.
func (s *Transactions) Delete(ctx context.Context, id, userID string) error {
	txID, err := parseTransactionID(id)
	if err != nil {
		return err
	}
	owner, err := s.resolveOwner(ctx, userID)
	if err != nil {
		return err
	}

	deleted, err := s.txs.DeleteTransaction(ctx, txID, owner.ID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if !deleted {
		return notFound("transaction not found")
	}

	s.log.Debug().Str("transaction_id", txID.String()).Str("user_id", owner.ID.String()).Msg("transaction deleted")
	return nil
}

// DeleteMany removes every listed transaction that belongs to the owner and
// reports how many were removed. Ids owned by someone else are skipped.
func (s *Transactions) DeleteMany(ctx context.Context, req models.DeleteTransactions) (int64, error) {
	if len(req.TransactionIDs) == 0 {
		return 0, invalid("transaction ids are required")
	}
	ids := make([]uuid.UUID, 0, len(req.TransactionIDs))
	for _, raw := range req.TransactionIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return 0, invalid(fmt.Sprintf("transaction id %q is invalid", raw))
		}
		ids = append(ids, id)
	}
	owner, err := s.resolveOwner(ctx, req.UserID)
	if err != nil {
		return 0, err
	}

	n, err := s.txs.DeleteTransactions(ctx, ids, owner.ID)
	if err != nil {
		return 0, fmt.Errorf("delete transactions: %w", err)
	}
	if n == 0 {
		return 0, notFound("no transactions found to delete")
	}

	s.log.Debug().Int64("deleted", n).Str("user_id", owner.ID.String()).Msg("transactions deleted")
	return n, nil
}

func (s *Transactions) resolveOwner(ctx context.Context, raw string) (*models.User, error) {
	id, err := parseUserID(raw)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, notFound("user not found")
	}
	return u, nil
}

func parseUserID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, invalid("user id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalid("user id is invalid")
	}
	return id, nil
}

func parseTransactionID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, invalid("transaction id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalid("transaction id is invalid")
	}
	return id, nil
}

func parseType(raw string) (models.TransactionType, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("transaction type is required")
	}
	t := models.TransactionType(raw)
	if !t.Valid() {
		return "", invalid("transaction type must be credit or expense")
	}
	return t, nil
}

// lookbackDays reads the frequency as a whole number of days. The second
// result is false when the window is past MaxLookbackDays.
func lookbackDays(f models.Frequency) (int, bool) {
	n, err := decimal.NewFromString(strings.TrimSpace(string(f)))
	if err != nil || n.IsNegative() || !n.Equal(n.Truncate(0)) {
		return DefaultLookbackDays, true
	}
	if n.GreaterThan(decimal.NewFromInt(MaxLookbackDays)) {
		return 0, false
	}
	return int(n.IntPart()), true
}

// Total sums amounts per type. Used by the list endpoint summary.
func Total(transactions []models.Transaction, typ models.TransactionType) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range transactions {
		if t.Type == typ {
			sum = sum.Add(t.Amount)
		}
	}
	return sum
}
