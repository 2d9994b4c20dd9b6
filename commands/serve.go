package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/fin-track/api"
	"github.com/nemopss/fin-track/config"
	"github.com/nemopss/fin-track/db"
	"github.com/nemopss/fin-track/logging"
	"github.com/nemopss/fin-track/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

type closableStore interface {
	service.Store
	io.Closer
}

func openStore(cfg *config.Config) (closableStore, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return db.NewMemoryStorage(), nil
	case config.BackendPostgres:
		return db.NewStorage(cfg.PostgresURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// newHandler assembles the services and the router for cfg on top of store.
func newHandler(cfg *config.Config, store service.Store, logger zerolog.Logger) http.Handler {
	gin.SetMode(cfg.GinMode)

	transactions := service.NewTransactions(store, store,
		service.WithLocation(cfg.Location()),
		service.WithLogger(logging.Component(logger, "transactions")),
	)
	accounts := service.NewAccounts(store, cfg.JWTSecret, cfg.JWTTTL)
	handler := api.NewHandler(transactions, accounts, cfg.AuthEnabled(), logging.Component(logger, "api"))

	return api.NewRouter(handler, logging.Component(logger, "http"))
}

func serve(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if !cfg.AuthEnabled() {
		logger.Warn().Msg("JWT_SECRET is empty, transaction routes are not authenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Str("backend", cfg.StorageBackend).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
