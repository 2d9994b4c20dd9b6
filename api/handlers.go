package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/fin-track/models"
	"github.com/nemopss/fin-track/service"
	"github.com/rs/zerolog"
)

type Handler struct {
	transactions *service.Transactions
	accounts     *service.Accounts
	authEnabled  bool
	log          zerolog.Logger
}

func NewHandler(transactions *service.Transactions, accounts *service.Accounts, authEnabled bool, log zerolog.Logger) *Handler {
	return &Handler{
		transactions: transactions,
		accounts:     accounts,
		authEnabled:  authEnabled,
		log:          log,
	}
}

// Register creates a new user.
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body models.CreateUser true "credentials"
// @Success 201 {object} models.RegisterResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /register [post]
func (h *Handler) Register(c *gin.Context) {
	var req models.CreateUser
	if !h.bind(c, &req) {
		return
	}
	user, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.RegisterResponse{Success: true, Message: "User registered successfully", User: *user})
}

// Login issues a bearer token.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.CreateUser true "credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (h *Handler) Login(c *gin.Context) {
	var req models.CreateUser
	if !h.bind(c, &req) {
		return
	}
	token, err := h.accounts.Login(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LoginResponse{Success: true, Token: token})
}

// GetUser returns a user and its transaction references.
// @Summary Get a user
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.OwnerRequest false "owner"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /getUser [post]
func (h *Handler) GetUser(c *gin.Context) {
	var req models.OwnerRequest
	if !h.bind(c, &req) {
		return
	}
	owner, ok := h.owner(c, req.UserID)
	if !ok {
		return
	}
	user, err := h.accounts.User(c.Request.Context(), owner)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.UserResponse{Success: true, User: *user})
}

// AddTransaction creates a transaction for the user.
// @Summary Add a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param transaction body models.CreateTransaction true "transaction"
// @Success 200 {object} models.TransactionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /addTransaction [post]
func (h *Handler) AddTransaction(c *gin.Context) {
	var req models.CreateTransaction
	if !h.bind(c, &req) {
		return
	}
	owner, ok := h.owner(c, req.UserID)
	if !ok {
		return
	}
	req.UserID = owner

	t, err := h.transactions.Create(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TransactionResponse{Success: true, Message: "Transaction added successfully", Transaction: *t})
}

// GetTransactions lists the user's transactions for a type and period.
// @Summary List transactions
// @Description frequency is "custom" (with startDate and endDate) or a number of days
// @Tags transactions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param filter body models.ListTransactions true "filter"
// @Success 200 {object} models.GetTransactionsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /getTransaction [post]
func (h *Handler) GetTransactions(c *gin.Context) {
	var req models.ListTransactions
	if !h.bind(c, &req) {
		return
	}
	owner, ok := h.owner(c, req.UserID)
	if !ok {
		return
	}
	req.UserID = owner

	transactions, err := h.transactions.List(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.GetTransactionsResponse{
		Success:      true,
		Transactions: transactions,
		TotalCredit:  service.Total(transactions, models.TypeCredit),
		TotalExpense: service.Total(transactions, models.TypeExpense),
	})
}

// GetTransaction returns one of the user's transactions.
// @Summary Get a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "transaction id"
// @Param request body models.OwnerRequest false "owner"
// @Success 200 {object} models.TransactionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /getTransaction/{id} [post]
func (h *Handler) GetTransaction(c *gin.Context) {
	var req models.OwnerRequest
	if !h.bind(c, &req) {
		return
	}
	owner, ok := h.owner(c, req.UserID)
	if !ok {
		return
	}

	t, err := h.transactions.Get(c.Request.Context(), c.Param("id"), owner)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TransactionResponse{Success: true, Transaction: *t})
}

// UpdateTransaction applies a partial update. Only fields present in the body
// change.
// @Summary Update a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "transaction id"
// @Param fields body models.UpdateTransaction true "fields to change"
// @Success 200 {object} models.TransactionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /updateTransaction/{id} [put]
func (h *Handler) UpdateTransaction(c *gin.Context) {
	var req models.UpdateTransaction
	if !h.bind(c, &req) {
		return
	}
	owner, ok := h.owner(c, req.UserID)
	if !ok {
		return
	}
	req.UserID = owner

	t, err := h.transactions.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TransactionResponse{Success: true, Message: "Transaction updated successfully", Transaction: *t})
}

// DeleteTransaction deletes one of the user's transactions.
// @Summary Delete a transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "transaction id"
// @Param request body models.OwnerRequest false "owner"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /deleteTransaction/{id} [post]
func (h *Handler) DeleteTransaction(c *gin.Context) {
	var req models.OwnerRequest
	if !h.bind(c, &req) {
		return
	}
	owner, ok := h.owner(c, req.UserID)
	if !ok {
		return
	}

	if err := h.transactions.Delete(c.Request.Context(), c.Param("id"), owner); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Transaction deleted successfully"})
}

// DeleteMultipleTransactions deletes the listed transactions the user owns.
// @Summary Delete several transactions
// @Tags transactions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.DeleteTransactions true "ids and owner"
// @Success 200 {object} models.DeleteTransactionsResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /deleteMultipleTransactions [post]
func (h *Handler) DeleteMultipleTransactions(c *gin.Context) {
	var req models.DeleteTransactions
	if !h.bind(c, &req) {
		return
	}
	owner, ok := h.owner(c, req.UserID)
	if !ok {
		return
	}
	req.UserID = owner

	n, err := h.transactions.DeleteMany(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteTransactionsResponse{
		Success:      true,
		Message:      fmt.Sprintf("%d transactions deleted successfully", n),
		DeletedCount: n,
	})
}

// Health reports that the process is serving.
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Router /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "ok"})
}

// bind decodes the JSON body into dst. An empty body leaves dst zeroed.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		c.JSON(statusFor(svcErr.Kind), models.ErrorResponse{Message: svcErr.Message})
		return
	}
	c.Error(err)
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "internal server error"})
}

func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
