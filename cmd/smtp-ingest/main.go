package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edvin/mailhost/internal/config"
	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/db"
	"github.com/edvin/mailhost/internal/logging"
	"github.com/edvin/mailhost/internal/metrics"
	"github.com/edvin/mailhost/internal/objstore"
	"github.com/edvin/mailhost/internal/smtpingest"
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations/core", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("smtp-ingest"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	objects := objstore.New(logger, cfg)

	setupCtx, setupCancel := context.WithTimeout(ctx, 30*time.Second)
	defer setupCancel()
	if err := objects.EnsureBucket(setupCtx, cfg.EmailBodyBucket); err != nil {
		logger.Fatal().Err(err).Str("bucket", cfg.EmailBodyBucket).Msg("failed to ensure body bucket")
	}
	if cfg.AttachmentsBucket != "" {
		if err := objects.EnsureBucket(setupCtx, cfg.AttachmentsBucket); err != nil {
			logger.Fatal().Err(err).Str("bucket", cfg.AttachmentsBucket).Msg("failed to ensure attachments bucket")
		}
	} else {
		logger.Warn().Msg("ATTACHMENTS_BUCKET not set, inbound attachments will be skipped")
	}

	services := core.NewServices(pool, nil)
	backend := smtpingest.NewBackend(
		logger, services.Directory, services.Admission, objects, services.Message,
		cfg.EmailBodyBucket, cfg.AttachmentsBucket, cfg.MaxEmailSize,
	)
	smtpServer := smtpingest.NewServer(backend, cfg)

	metricsSrv := metrics.NewServer(cfg.MetricsListenAddr)
	go func() {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	go func() {
		logger.Info().
			Str("addr", cfg.SMTPListenAddr).
			Str("hostname", cfg.SMTPHostname).
			Int64("max_message_bytes", cfg.MaxEmailSize).
			Msg("starting SMTP ingestion server")
		if err := smtpServer.ListenAndServe(); err != nil {
			logger.Fatal().Err(err).Msg("smtp server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	smtpServer.Shutdown(shutdownCtx)
	metricsSrv.Shutdown(shutdownCtx)
}
