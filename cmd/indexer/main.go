package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/adapters/database"
	"github.com/zatekoja/erwaittime/internal/adapters/search"
	"github.com/zatekoja/erwaittime/internal/adapters/storage"
	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
	"github.com/zatekoja/erwaittime/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	observability.InitLogger("er-wait-indexer", os.Getenv("ENV"))

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var profileRepo repositories.ProfileRepository
	var coordinateRepo repositories.CoordinateRepository
	if cfg.Data.ProfileStore == "postgres" {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return err
		}
		defer pgClient.Close()
		profileRepo = database.NewProfileAdapter(pgClient)
		coordinateRepo = database.NewCoordinateAdapter(pgClient)
	} else {
		profileRepo = storage.NewProfileFileStore(cfg.Data.ProfilePaths...)
		coordinateRepo = storage.NewCoordinateFileStore(cfg.Data.CoordinatesPath)
	}

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.HospitalsCollection).Msg("Deleting collection before reindex")
		if err := tsClient.DropSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	snapshots := services.NewSnapshotService(profileRepo, coordinateRepo)
	indexed, err := services.NewHospitalIndexService(snapshots, search.NewTypesenseAdapter(tsClient)).IndexAll(ctx)
	if err != nil {
		return err
	}

	log.Info().Int("hospitals", indexed).Msg("Indexing complete")
	return nil
}
