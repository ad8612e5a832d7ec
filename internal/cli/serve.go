package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/formulagraph/internal/auth"
	"github.com/matzehuels/formulagraph/internal/config"
	"github.com/matzehuels/formulagraph/internal/server"
	"github.com/matzehuels/formulagraph/internal/store"
	"github.com/matzehuels/formulagraph/pkg/cache"
)

// newServeCmd creates the serve command for running the HTTP API.
func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the formula graph API server",
		Long: `Run the formula graph API server.

Configuration is loaded from an optional TOML file, FORMULAGRAPH_*
environment variables, and flags, in increasing order of precedence.
Without configured admin emails the write API stays locked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}

// runServe wires the store, caches, and auth, then serves until interrupted.
func runServe(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Debug("store ready", "backend", cfg.Store.Backend)

	scenes := openSceneCache(cfg.Cache)
	defer scenes.Close()

	opts := []server.Option{
		server.WithSceneCache(scenes),
		server.WithRecordTTL(cfg.Cache.RecordTTL),
		server.WithBaseURL(cfg.Server.BaseURL),
	}
	if cfg.AuthEnabled() {
		tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.AdminEmails)
		opts = append(opts,
			server.WithAuth(tokens, auth.NewMemorySessionStore(), auth.NewLogMailer(logger)),
			server.WithSessionTTL(cfg.Auth.SessionTTL))
		logger.Debug("auth enabled", "admins", len(cfg.Auth.AdminEmails))
	} else {
		logger.Warn("no admin emails configured, write API is disabled")
	}

	srv := server.New(st, logger, opts...)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		printInfo("listening on %s", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// openStore constructs the configured store backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return store.OpenSQLite(cfg.SQLitePath)
	case "mongo":
		return store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return store.NewMemoryStore(), nil
	}
}

// openSceneCache constructs the configured scene cache backend.
func openSceneCache(cfg config.CacheConfig) cache.Cache {
	switch cfg.Backend {
	case "redis":
		return cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	case "none":
		return cache.NewNullCache()
	default:
		return cache.NewMemoryCache()
	}
}
