package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/keydrop/keydrop/internal/blob"
	"github.com/keydrop/keydrop/internal/config"
	handler "github.com/keydrop/keydrop/internal/handler/http"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/server"
	"github.com/keydrop/keydrop/internal/service"
	"github.com/keydrop/keydrop/internal/store"
	"github.com/keydrop/keydrop/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	// A missing .env is fine; env vars and flags still apply.
	_ = godotenv.Load()

	cfg, err := config.GetStructuredConfig()
	if err != nil {
		panic(fmt.Sprintf("error getting configs: %v", err))
	}
	if cfg.App.Version == "" {
		cfg.App.Version = buildVersion
	}

	log := logger.NewLogger("keydrop-server", cfg.App.LogLevel)
	log.Debug().Any("config", cfg).Msg("received configs")

	if err = cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("invalid server configuration")
	}

	ctx := context.Background()

	db, err := store.NewConnectPostgres(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer db.Close()

	repos := store.NewRepositories(db, log)

	blobs, err := newBlobStore(cfg.Storage.Blob, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating blob store")
	}

	bus := notify.NewBus(cfg.Notify.BufferSize)
	services := service.NewServices(repos, blobs, bus, cfg, log)
	h := handler.NewHandler(services, bus, cfg.App.Version, log)

	background := workers.NewWorkers(
		workers.NewExpirySweeper(repos, cfg.Workers.SweepInterval, log),
	)
	background.Run()
	defer background.Stop()

	srv, err := server.NewServer(h, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

// newBlobStore picks the ciphertext backend: object storage when a
// bucket is configured, otherwise the in-memory store for local runs.
func newBlobStore(cfg config.Blob, log *logger.Logger) (blob.Store, error) {
	if cfg.Bucket == "" {
		log.Warn().Msg("no blob bucket configured, using in-memory blob store")
		return blob.NewMemoryStore(), nil
	}

	return blob.NewS3Store(cfg)
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
