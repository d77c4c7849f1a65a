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

	"github.com/edvin/mailhost/internal/api"
	"github.com/edvin/mailhost/internal/api/handler"
	"github.com/edvin/mailhost/internal/config"
	"github.com/edvin/mailhost/internal/core"
	"github.com/edvin/mailhost/internal/db"
	"github.com/edvin/mailhost/internal/logging"
	"github.com/edvin/mailhost/internal/metrics"
	"github.com/edvin/mailhost/internal/objstore"
	"github.com/edvin/mailhost/internal/relay"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-account" {
		createAccount(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations/core", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("mail-api"); err != nil {
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

	var rly handler.Relay
	if cfg.RelayAPIKey != "" {
		rly = relay.NewClient(cfg.RelayAPIURL, cfg.RelayAPIKey)
	} else {
		logger.Warn().Msg("RELAY_API_KEY not set, outbound relay disabled")
	}

	srv := api.NewServer(logger, pool, objects, rly, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting mail API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

// createAccount registers an account from the command line and prints
// its first API key. Useful for bootstrapping without the HTTP surface.
func createAccount(args []string) {
	fs := flag.NewFlagSet("create-account", flag.ExitOnError)
	name := fs.String("name", "", "Account name (required)")
	email := fs.String("email", "", "Account email (required)")
	fs.Parse(args)

	if *name == "" || *email == "" {
		fmt.Fprintln(os.Stderr, "usage: mail-api create-account --name <name> --email <email>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate("mail-api"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	account, rawKey, err := core.NewAccountService(pool).Create(ctx, *name, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: create account: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("account id: %s\n", account.ID)
	fmt.Printf("api key:    %s\n", rawKey)
	fmt.Println("store the key now; only its hash is kept")
}
