// Package app wires the auth service: store, migrations, authenticator and
// HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	auth "github.com/goliatone/go-leave-auth"
	"github.com/goliatone/go-leave-auth/config"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg    *config.Config
	logger auth.Logger
	db     *bun.DB
	repo   auth.RepositoryManager
	auther *auth.Auther
	srv    router.Server[*fiber.App]
}

type Option func(*App)

// WithDB makes New use db instead of opening the configured store.
func WithDB(db *bun.DB) Option {
	return func(a *App) {
		a.db = db
	}
}

// New validates cfg, opens the store, migrates when configured and checks
// the role catalog before anything can accept traffic.
func New(ctx context.Context, cfg *config.Config, logger auth.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, auth.ErrInvalidConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if a.db == nil {
		db, err := OpenDB(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
	}

	if cfg.Database.AutoMigrate {
		if err := Migrate(ctx, a.db, cfg.Database.Dialect); err != nil {
			_ = a.db.Close()
			return nil, err
		}
	}

	a.repo = auth.NewRepositoryManager(a.db)
	if err := a.repo.Validate(); err != nil {
		_ = a.db.Close()
		return nil, err
	}

	if err := CheckDefaultRole(ctx, a.repo, cfg.GetDefaultRole()); err != nil {
		_ = a.db.Close()
		return nil, err
	}

	register := auth.NewRegisterUserHandler(a.repo,
		auth.WithRegisterDefaultRole(cfg.GetDefaultRole()),
		auth.WithRegisterLogger(logger),
	)
	provider := auth.NewUserProvider(a.repo.Users()).WithLogger(logger)

	a.auther = auth.NewAuthenticator(provider, cfg).
		WithLogger(logger).
		WithRegistrar(register).
		WithActivitySink(NewLogActivitySink(logger))

	a.srv = NewHTTPServer(cfg, a.auther, logger)

	return a, nil
}

// CheckDefaultRole fails with auth.ErrMissingDefaultRole when the catalog
// has no role called name.
func CheckDefaultRole(ctx context.Context, repo auth.RepositoryManager, name string) error {
	if _, err := repo.Roles().GetByName(ctx, name); err != nil {
		if auth.IsRecordNotFound(err) {
			return auth.ErrMissingDefaultRole.Clone().WithMetadata(map[string]any{"role": name})
		}
		return fmt.Errorf("lookup default role: %w", err)
	}
	return nil
}

// HTTP returns the fiber app behind the router server.
func (a *App) HTTP() *fiber.App {
	return a.srv.WrappedRouter()
}

func (a *App) Authenticator() *auth.Auther {
	return a.auther
}

// Run serves until ctx is cancelled or the listener fails, then shuts the
// server down and closes the store.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("authd listening on %s", a.cfg.Server.Addr)
		if err := a.HTTP().Listen(a.cfg.Server.Addr); err != nil {
			return fmt.Errorf("http listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("authd shutting down")
		return a.HTTP().ShutdownWithTimeout(a.shutdownTimeout())
	})

	err := g.Wait()
	if closeErr := a.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the store.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
