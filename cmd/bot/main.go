package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"partyfinder/internal/bot"
	"partyfinder/internal/config"
	"partyfinder/internal/constants"
	fxmodules "partyfinder/internal/fx"
	"partyfinder/internal/server"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runBot),
		fx.Invoke(runWebServer),
	).Run()
}

func runBot(
	lc fx.Lifecycle,
	dispatcher *bot.Dispatcher,
	db *sql.DB,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Dur("poll_timeout", cfg.PollTimeout).
		Msg("configuration loaded")

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)
				if err := dispatcher.Run(loopCtx); err != nil {
					logger.Fatal().Err(err).Msg("update loop failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down bot")
			cancel()

			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("bot stopped gracefully")
			return nil
		},
	})
}

func runWebServer(
	lc fx.Lifecycle,
	web *server.WebServer,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: web.Handler(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("ops server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("ops server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("ops server shutdown failed")
				return err
			}
			logger.Info().Msg("ops server stopped gracefully")
			return nil
		},
	})
}
