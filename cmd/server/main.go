package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/wakuwork/internal/api"
	"github.com/npezzotti/wakuwork/internal/circle"
	"github.com/npezzotti/wakuwork/internal/config"
	"github.com/npezzotti/wakuwork/internal/database"
	"github.com/npezzotti/wakuwork/internal/stats"
	"github.com/npezzotti/wakuwork/internal/sweeper"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*s = append(*s, v)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
	streamerIds    stringSliceFlag
	skipMigrations bool
)

func main() {
	flag.StringVar(&addr, "addr", envOr("WAKUWORK_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&dsn, "dsn", envOr("WAKUWORK_DSN", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"), "database connection string")
	flag.StringVar(&signingKey, "signing-key", envOr("WAKUWORK_SIGNING_KEY", defaultSigningKey), "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Var(&streamerIds, "streamers", "comma-separated list of identity-provider subjects allowed to host rooms")
	flag.BoolVar(&skipMigrations, "skip-migrations", false, "do not apply database migrations on startup")
	flag.Parse()

	if len(allowedOrigins) == 0 {
		allowedOrigins.Set(os.Getenv("WAKUWORK_ALLOWED_ORIGINS"))
	}
	if len(streamerIds) == 0 {
		streamerIds.Set(os.Getenv("WAKUWORK_STREAMERS"))
	}

	logger := log.New(os.Stderr, "[wakuwork] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins, streamerIds)
	if err != nil {
		logger.Fatal("config:", err)
	}

	if !skipMigrations {
		if err := database.Migrate(cfg.DatabaseDSN); err != nil {
			logger.Fatal("migrate:", err)
		}
	}

	dbConn, err := database.NewPgWakuworkRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	svc := circle.NewService(logger, dbConn, statsUpdater)
	srv := api.NewWakuworkApp(mux, logger, dbConn, svc, cfg)
	sw := sweeper.NewSweeper(logger, svc, cfg.SweepInterval, cfg.StampHorizon)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go sw.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	sw.Shutdown()

	logger.Println("shutdown complete")
}
