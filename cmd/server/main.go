package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/Clark-Hu/cinemateca/internal/auth"
	"github.com/Clark-Hu/cinemateca/internal/config"
	httpserver "github.com/Clark-Hu/cinemateca/internal/http"
	"github.com/Clark-Hu/cinemateca/internal/logging"
	"github.com/Clark-Hu/cinemateca/internal/media"
	"github.com/Clark-Hu/cinemateca/internal/metrics"
	"github.com/Clark-Hu/cinemateca/internal/repository"
	"github.com/Clark-Hu/cinemateca/internal/service"
	"github.com/Clark-Hu/cinemateca/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout).
		With().Str("service", "cinemateca").Logger()

	if cfg.MigrateOnStart {
		if err := store.MigrateURL(cfg.DBURL, logger); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	poolStats := func() metrics.PoolStat {
		if stat := st.Stats(); stat != nil {
			return stat
		}
		return nil
	}
	if err := metrics.RegisterPool(prometheus.DefaultRegisterer, poolStats); err != nil {
		logger.Warn().Err(err).Msg("register pool metrics")
	}

	repo := repository.New(st)
	if cfg.AdminUsername != "" {
		staff, err := service.BootstrapStaff(dbCtx, repo.Users, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("bootstrap staff account")
		}
		logger.Info().Str("username", staff.Username).Msg("staff account ready")
	}

	reviews := service.NewReviews(repo.Reviews, repo.Movies, logger)
	movies := service.NewMovies(repo, reviews, logger)

	server := httpserver.New(cfg, httpserver.Deps{
		Health:  st,
		Repo:    repo,
		Movies:  movies,
		Reviews: reviews,
		Media:   media.NewResolver(cfg.MediaRoot, cfg.MediaExtensionList()),
		Tokens:  auth.NewTokens(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute),
		Logger:  logger,
	})

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}
