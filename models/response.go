package models

import "github.com/shopspring/decimal"

type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Transaction added successfully"`
}

type RegisterResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"User registered successfully"`
	User    User   `json:"user"`
}

type LoginResponse struct {
	Success bool   `json:"success" example:"true"`
	Token   string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

type UserResponse struct {
	Success bool `json:"success" example:"true"`
	User    User `json:"user"`
}

type TransactionResponse struct {
	Success     bool        `json:"success" example:"true"`
	Message     string      `json:"message,omitempty" example:"Transaction updated successfully"`
	Transaction Transaction `json:"transaction"`
}

type GetTransactionsResponse struct {
	Success      bool            `json:"success" example:"true"`
	Transactions []Transaction   `json:"transactions"`
	TotalCredit  decimal.Decimal `json:"totalCredit" swaggertype:"number" example:"1200.00"`
	TotalExpense decimal.Decimal `json:"totalExpense" swaggertype:"number" example:"830.15"`
}

type DeleteTransactionsResponse struct {
	Success      bool   `json:"success" example:"true"`
	Message      string `json:"message" example:"2 transactions deleted successfully"`
	DeletedCount int64  `json:"deletedCount" example:"2"`
}

type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"error"`
}
