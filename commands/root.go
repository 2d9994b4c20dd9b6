package commands

import (
	"fmt"

	"github.com/nemopss/fin-track/config"
	"github.com/spf13/cobra"
)

var envFile string

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fintrack",
		Short: "Personal finance tracking API",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func requirePostgres(cfg *config.Config) error {
	if cfg.StorageBackend != config.BackendPostgres {
		return fmt.Errorf("migrations need the postgres backend, got %q", cfg.StorageBackend)
	}
	return nil
}
