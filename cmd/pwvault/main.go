package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericfisherdev/pwvault/internal/adapter/driven/keyfile"
	"github.com/ericfisherdev/pwvault/internal/adapter/driven/oskeyring"
	sqliteadapter "github.com/ericfisherdev/pwvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/pwvault/internal/adapter/driving/cli"
	httphandler "github.com/ericfisherdev/pwvault/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/pwvault/internal/adapter/driving/web"
	"github.com/ericfisherdev/pwvault/internal/application"
	"github.com/ericfisherdev/pwvault/internal/config"
	"github.com/ericfisherdev/pwvault/internal/cryptobox"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
	"github.com/ericfisherdev/pwvault/internal/passgen"
)

// errCommandFailed is returned after the CLI has already reported a failure.
var errCommandFailed = errors.New("command failed")

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errCommandFailed) {
			slog.Error("fatal error", "error", err)
		}
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Install the logger; --log-level can still raise or lower it.
	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	slog.Debug("config loaded",
		"db_path", cfg.DBPath,
		"key_backend", cfg.KeyBackend,
		"key_file", cfg.KeyFile,
		"listen_addr", cfg.ListenAddr,
	)

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Build the command tree.
	settings := cli.Settings{
		DBPath:         cfg.DBPath,
		KeyFile:        cfg.KeyFile,
		KeyBackend:     cfg.KeyBackend,
		PasswordLength: cfg.PasswordLength,
		ListenAddr:     cfg.ListenAddr,
	}
	app := cli.NewApp(settings, openVault(logger), logger,
		cli.WithLogLevel(level),
		cli.WithServe(func(ctx context.Context, svc *application.VaultService, addr string) error {
			return serve(ctx, svc, addr, logger)
		}),
	)

	if code := app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr); code != 0 {
		return errCommandFailed
	}
	return nil
}

// openVault returns the per-invocation composition root: database,
// migrations, entry store, key store and service.
func openVault(logger *slog.Logger) cli.OpenFunc {
	return func(ctx context.Context, s cli.Settings) (*application.VaultService, func() error, error) {
		keys, err := keyStore(s, logger)
		if err != nil {
			return nil, nil, err
		}

		db, err := sqliteadapter.NewDB(ctx, s.DBPath)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("database opened", "path", db.Path())

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		svc := application.NewVaultService(
			sqliteadapter.NewEntryRepo(db),
			keys,
			passgen.Default(),
			s.PasswordLength,
			logger,
		)
		return svc, db.Close, nil
	}
}

// keyStore picks the master key source: an explicit --key wins, then the
// configured backend.
func keyStore(s cli.Settings, logger *slog.Logger) (driven.KeyStore, error) {
	if s.Key != "" {
		key, err := cryptobox.DecodeKey(s.Key)
		if err != nil {
			return nil, fmt.Errorf("--key: %w", err)
		}
		return driven.KeyStoreFunc(func(context.Context) ([]byte, error) { return key, nil }), nil
	}

	switch s.KeyBackend {
	case config.KeyBackendKeyring:
		store, err := oskeyring.Open(oskeyring.DefaultServiceName, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.KeyBackendFile, "":
		return keyfile.New(s.KeyFile, logger), nil
	default:
		return nil, fmt.Errorf("unknown key backend %q: want %q or %q", s.KeyBackend, config.KeyBackendFile, config.KeyBackendKeyring)
	}
}

// serve runs the JSON API and the web form on addr until ctx is cancelled.
func serve(ctx context.Context, svc *application.VaultService, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(svc, logger))
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(svc, logger))

	srv := &http.Server{
		Handler:           httphandler.ApplyMiddleware(mux, logger, addr),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	// Graceful shutdown with 10s timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	slog.Info("shutdown complete")
	return nil
}
