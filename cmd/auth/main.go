package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/devnla/backend-express/internal/auth/http"
	"github.com/devnla/backend-express/internal/auth/service"
	"github.com/devnla/backend-express/internal/common/bootstrap"
	"github.com/devnla/backend-express/internal/common/constants"
	commoncrypto "github.com/devnla/backend-express/internal/common/crypto"
	commonhttp "github.com/devnla/backend-express/internal/common/http"
	srv "github.com/devnla/backend-express/internal/common/server"
	"github.com/devnla/backend-express/internal/common/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewAuthApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start auth service: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, app); err != nil {
		app.Log.Fatalf("auth service failed: %v", err)
	}
}

func run(ctx context.Context, app *bootstrap.AuthApp) error {
	cfg, log := app.Config, app.Log

	shutdownTracing, err := tracing.Setup(ctx, "auth", cfg.OTLPEndpoint)
	if err != nil {
		log.Warnf("tracing disabled: %v", err)
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set: register and login will fail until it is configured")
	}

	authService := service.NewAuthService(service.AuthServiceDeps{
		Repo:   app.Store,
		Hasher: commoncrypto.NewBcryptHasher(constants.BcryptCost),
		Issuer: service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL.Duration(), nil),
		Breaker: service.NewStoreCircuitBreaker(
			cfg.CircuitBreaker.Threshold,
			cfg.CircuitBreaker.Timeout,
			cfg.CircuitBreaker.ResetAfter,
			log,
		),
		Log: log,
	})

	handler := authhttp.NewHandler(authService, cfg, app.Store, log)

	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle("/metrics", promhttp.Handler())

	server := srv.NewServer(srv.AuthServerConfig(cfg), commonhttp.BuildBaseHandler(log, mux), log)

	return srv.Run(ctx, server, log, "auth",
		app.CloseStore,
		func(ctx context.Context) error {
			log.Info("auth service: flushing traces")
			return shutdownTracing(ctx)
		},
	)
}
