package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/todos/internal/config"
	"github.com/adanyl0v/todos/internal/delivery/http/v1"
	"github.com/adanyl0v/todos/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	err := router.SetTrustedProxies(nil)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to set trusted proxies")
		panic(err)
	}

	authLimiter := v1.NewRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	defer authLimiter.Stop()

	v1.RegisterRoutes(router, newV1Handler(), authLimiter)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// kill -9 is syscall.SIGKILL but can't be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	// Closing the broker ends open event streams.
	server.RegisterOnShutdown(func() { CloseEventBroker() })

	err = server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func newV1Handler() v1.Handler {
	cfg := config.Global()
	jwtCfg := cfg.JWT

	authService := services.NewAuthService(
		globalLogger.With().Str("service", "auth").Logger(),
		globalPostgresPool,
		globalBroker,
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
		jwtCfg.RefreshTokenTTL,
	)
	sessionService := services.NewSessionService(
		globalLogger.With().Str("service", "sessions").Logger(),
		globalPostgresPool,
	)
	todoService := services.NewTodoService(
		globalLogger.With().Str("service", "todos").Logger(),
		globalPostgresPool,
	)

	return v1.New(
		globalLogger,
		globalPostgresPool,
		globalBroker,
		authService,
		sessionService,
		todoService,
		cfg.HTTP.SecureCookies,
	)
}
