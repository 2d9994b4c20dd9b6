package main

import (
	"os"

	"github.com/nemopss/fin-track/commands"
	"github.com/shopspring/decimal"
)

// @title fin-track API
// @version 1.0
// @description Personal finance tracking: users and their credit/expense transactions.
// @BasePath /
// @SecurityDefinitions.apikey ApiKeyAuth
// @In header
// @Name Authorization
func main() {
	// Amounts go out as JSON numbers, matching the API docs.
	decimal.MarshalJSONWithoutQuotes = true

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
