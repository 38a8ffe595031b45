// @title        CRM API
// @version      1.0
// @description  Customers, orders and user accounts behind role-based access control.
// @BasePath     /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/api"
	"github.com/yadev/crm-system/internal/core/policy"
	"github.com/yadev/crm-system/internal/core/ports"
	"github.com/yadev/crm-system/internal/core/service"
	"github.com/yadev/crm-system/internal/infrastructure/config"
	mongostore "github.com/yadev/crm-system/internal/infrastructure/db/mongo"
	redisstore "github.com/yadev/crm-system/internal/infrastructure/db/redis"
	"github.com/yadev/crm-system/internal/infrastructure/db/sqlstore"
	"github.com/yadev/crm-system/internal/infrastructure/http/handlers"
	"github.com/yadev/crm-system/internal/infrastructure/queue"
	"github.com/yadev/crm-system/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crm: %v\n", err)
		os.Exit(1)
	}
}

// storage is the persistence backend selected by STORE_DRIVER.
type storage struct {
	tx        ports.Transactor
	customers ports.CustomerRepository
	orders    ports.OrderRepository
	users     ports.UserRepository
	audit     ports.AuditRepository
	ping      handlers.Pinger
	close     func(ctx context.Context) error
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "crm",
	})

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := store.close(closeCtx); err != nil {
			log.Error().Err(err).Msg("closing store")
		}
	}()

	health := map[string]handlers.Pinger{cfg.Store.Driver: store.ping}

	var idem ports.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		is := redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
		idem = is
		health["redis"] = is
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency store enabled")
	}

	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, store.audit, log)
	// Workers outlive the signal context so Close can drain the queue.
	dispatcher.Start(context.WithoutCancel(ctx))

	customers := service.NewCustomerService(store.customers, store.orders, store.tx, dispatcher, log)
	orders := service.NewOrderService(store.orders, store.customers, store.tx, dispatcher, log)
	users := service.NewUserService(store.users, store.tx, service.NewBcryptHasher(cfg.BcryptCost), dispatcher, log)
	auth := service.NewAuthService(users, cfg.JWTSecret, cfg.TokenTTL)

	if cfg.Bootstrap.AdminUsername != "" {
		created, err := users.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		if created {
			log.Info().Str("username", cfg.Bootstrap.AdminUsername).Msg("bootstrap admin created")
		}
	}

	e := api.NewRouter(api.Dependencies{
		Customers:   customers,
		Orders:      orders,
		Users:       users,
		Auth:        auth,
		Policy:      policy.Default(),
		Idempotency: idem,
		Health:      health,
		Logger:      log,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("audit queue not drained")
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		s := mongostore.NewStore(client, db, log)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return &storage{
			tx:        s,
			customers: s.Customers(),
			orders:    s.Orders(),
			users:     s.Users(),
			audit:     s.Audit(),
			ping:      s,
			close:     s.Close,
		}, nil

	case config.DriverPostgres, config.DriverSQLite:
		var (
			s   *sqlstore.Store
			err error
		)
		if cfg.Store.Driver == config.DriverPostgres {
			s, err = sqlstore.OpenPostgres(ctx, cfg.Store.DatabaseURL, log)
		} else {
			s, err = sqlstore.OpenSQLite(ctx, cfg.Store.SQLitePath, log)
		}
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return &storage{
			tx:        s,
			customers: s.Customers(),
			orders:    s.Orders(),
			users:     s.Users(),
			audit:     s.Audit(),
			ping:      s,
			close:     func(context.Context) error { return s.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
