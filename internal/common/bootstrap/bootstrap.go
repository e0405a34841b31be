package bootstrap

import (
	"context"
	"fmt"

	"github.com/devnla/backend-express/internal/common/config"
	"github.com/devnla/backend-express/internal/common/constants"
	commoncrypto "github.com/devnla/backend-express/internal/common/crypto"
	"github.com/devnla/backend-express/internal/common/db"
	"github.com/devnla/backend-express/internal/common/logger"
	"github.com/devnla/backend-express/internal/common/mongodb"
	srv "github.com/devnla/backend-express/internal/common/server"
	"github.com/devnla/backend-express/internal/observability/metrics"
	userrepo "github.com/devnla/backend-express/internal/user/repository"
)

type UserStore interface {
	userrepo.Repository
	userrepo.Pinger
}

type AuthApp struct {
	Log    *logger.Logger
	Config config.AuthConfig
	Store  UserStore
	// CloseStore releases the store's connections; it is meant to run as a
	// server shutdown hook.
	CloseStore srv.ShutdownHook
}

// NewAuthApp loads configuration, builds the logger and opens the user store
// named by the configured driver.
func NewAuthApp(ctx context.Context, envFiles ...string) (*AuthApp, error) {
	cfg, err := config.LoadAuthConfig(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogDir, "auth", cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.SetFormat(cfg.LogFormat)

	store, closeStore, err := OpenUserStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &AuthApp{
		Log:        log,
		Config:     cfg,
		Store:      store,
		CloseStore: closeStore,
	}, nil
}

func OpenUserStore(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) (UserStore, srv.ShutdownHook, error) {
	driver := cfg.StorageDriver()
	metrics.StoreInfo.WithLabelValues(string(driver)).Set(1)
	log.WithFields(ctx, logger.Fields{
		"driver": string(driver),
		"action": "store_open",
	}).Info("opening user store")

	switch driver {
	case config.DriverRelational:
		pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres pool: %w", err)
		}
		if cfg.AutoMigrate {
			if err := db.RunMigrations(ctx, pool, log); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)

		closeFn := func(context.Context) error {
			log.Info("auth service: closing postgres pool")
			pool.Close()
			return nil
		}
		return userrepo.NewPgRepository(pool, commoncrypto.NewUUIDGenerator(), log), closeFn, nil

	case config.DriverDocument:
		client, err := mongodb.Connect(ctx, log, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func(context.Context) error {
			log.Info("auth service: disconnecting mongo client")
			return client.Disconnect(constants.DrainTimeout)
		}
		return userrepo.NewMongoRepository(client.Users(), client, nil), closeFn, nil

	case config.DriverMemory:
		log.Warn("memory user store selected: data is lost on restart")
		return userrepo.NewMemoryRepository(nil, nil), func(context.Context) error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, driver)
	}
}
