package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nemopss/fin-track/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	minUsernameLen = 3
	maxUsernameLen = 50
)

// Accounts registers users and issues tokens for them.
type Accounts struct {
	users  UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAccounts(users UserRepository, secret string, ttl time.Duration) *Accounts {
	return &Accounts{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (a *Accounts) Register(ctx context.Context, req models.CreateUser) (*models.User, error) {
	username := strings.TrimSpace(req.Login)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, invalid(fmt.Sprintf("username must be between %d and %d characters", minUsernameLen, maxUsernameLen))
	}
	if len(req.Password) < minPasswordLen {
		return nil, invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Password:     string(hash),
		Transactions: []uuid.UUID{},
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, conflict("username already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and returns a signed token whose subject is
// the user id.
func (a *Accounts) Login(ctx context.Context, req models.CreateUser) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("token signing is not configured")
	}
	u, err := a.users.GetUserByUsername(ctx, strings.TrimSpace(req.Login))
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		return "", unauthorized("invalid username or password")
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a bearer token and returns its subject.
func (a *Accounts) ParseToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return uuid.Nil, unauthorized("invalid token")
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, unauthorized("invalid token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, unauthorized("invalid token")
	}
	return id, nil
}

// User returns the user with its transaction references.
func (a *Accounts) User(ctx context.Context, userID string) (*models.User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	u, err := a.users.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, notFound("user not found")
	}
	return u, nil
}
