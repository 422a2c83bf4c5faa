package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/voltz-checkout/cycle-ladder/internal/config"
	"github.com/voltz-checkout/cycle-ladder/internal/console"
	"github.com/voltz-checkout/cycle-ladder/internal/db"
	"github.com/voltz-checkout/cycle-ladder/internal/handler"
	"github.com/voltz-checkout/cycle-ladder/internal/health"
	"github.com/voltz-checkout/cycle-ladder/internal/logging"
	"github.com/voltz-checkout/cycle-ladder/internal/persister"
	"github.com/voltz-checkout/cycle-ladder/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", os.Getenv("VOLTZ_CONFIG"), "path to the YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	slog.SetDefault(logging.New(os.Stdout, cfg.Logging))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, closeStorage, err := newPersister(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStorage()

	c := console.New(p, health.NewMonitor())
	h := handler.New(c)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr: cfg.Server.Port,
		Handler: handler.Chain(mux,
			handler.RequestLogger,
			handler.Cors(cfg.CORS.AllowedOrigins),
			handler.SecurityHeaders,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting",
			"port", cfg.Server.Port,
			"env", cfg.Env,
			"persister", p.Name(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// newPersister builds the configured persistence backend and a func that
// releases it.
func newPersister(ctx context.Context, cfg config.StorageConfig) (persister.Persister, func(), error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		database, err := db.OpenDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		repo := repository.NewSQLiteLadderRepo(database)
		return persister.NewRepo(config.BackendSQLite, repo), func() { database.Close() }, nil

	case config.BackendMongo:
		client, err := repository.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoLadderRepo(client, cfg.MongoDatabase)
		return persister.NewRepo(config.BackendMongo, repo), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Warn("mongodb_disconnect_failed", "error", err)
			}
		}, nil

	default:
		return persister.NewSimulated(cfg.SaveDelay), func() {}, nil
	}
}
