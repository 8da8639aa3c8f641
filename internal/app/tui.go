package app

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/todos/internal/client"
	"github.com/adanyl0v/todos/internal/config"
	"github.com/adanyl0v/todos/internal/tui"
)

const tuiLogFileName = "tui.log"

var globalClientConfig *config.ClientConfig

func MustReadClientEnv() {
	cfg, err := config.ReadClient()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to read client env")
		panic(err)
	}
	globalClientConfig = cfg
}

// MustInitTUILogger sends logs to a file since the terminal belongs to the UI.
func MustInitTUILogger() {
	path := globalClientConfig.LogFile
	if path == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to resolve cache dir")
			panic(err)
		}
		path = filepath.Join(dir, "todos", tuiLogFileName)
	}

	err := os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to create log dir")
		panic(err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("path", path).
			Msg("failed to open log file")
		panic(err)
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	globalLogger = globalLogger.Output(f)
	globalLogger.Info().
		Str("path", path).
		Msg("initialized tui logger")
}

func MustRunTUI() {
	cfg := globalClientConfig

	store, err := client.NewStore(cfg.Token, cfg.CredentialsPath)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to open credentials store")
		panic(err)
	}

	c := client.New(
		cfg.APIURL,
		client.WithStore(store),
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(globalLogger.With().Str("component", "client").Logger()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	globalLogger.Info().
		Str("api_url", cfg.APIURL).
		Msg("starting tui")
	err = tui.Run(ctx, c, globalLogger.With().Str("component", "tui").Logger())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("tui exited with error")
		panic(err)
	}
	globalLogger.Info().Msg("tui exited")
}
