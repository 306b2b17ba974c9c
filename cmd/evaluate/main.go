package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/adapters/database"
	"github.com/zatekoja/erwaittime/internal/adapters/storage"
	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	"github.com/zatekoja/erwaittime/internal/evaluation"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
	"github.com/zatekoja/erwaittime/pkg/config"
)

func main() {
	var (
		visitsPath string
		holdout    float64
		tolerance  float64
		maxMAE     float64
		minWithin  float64
	)
	flag.StringVar(&visitsPath, "visits", "data/er_wait_time.csv", "visit CSV export to replay")
	flag.Float64Var(&holdout, "holdout", 0.2, "share of visits held out; profiles are rebuilt from the rest (0 uses the configured profile store)")
	flag.Float64Var(&tolerance, "tolerance", evaluation.DefaultTolerance, "absolute error in minutes counted as a hit")
	flag.Float64Var(&maxMAE, "max-mae", 30, "fail when the overall MAE exceeds this many minutes")
	flag.Float64Var(&minWithin, "min-within", 0, "fail when the within-tolerance share is below this value")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("er-wait-evaluate", cfg.Env)
	ctx := context.Background()

	visits, quarantined, err := evaluation.LoadVisits(ctx, visitsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", visitsPath).Msg("Failed to load visits")
	}

	var profiles []*entities.HospitalProfile
	evalSet := visits
	if holdout > 0 {
		train, held := evaluation.SplitHoldout(visits, holdout)
		result, err := services.NewFeatureEngineer(0).Build(ctx, train)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build profiles from training visits")
		}
		profiles = result.Profiles
		evalSet = held
		log.Info().Int("train", len(train)).Int("holdout", len(held)).Msg("Split visits")
	} else {
		profiles, err = loadProfiles(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load profiles")
		}
	}

	engine := services.NewPredictionEngine(providers.SystemClock{})
	summary, err := evaluation.NewRunner(engine, profiles, tolerance).Run(ctx, evalSet)
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}
	summary.Quarantined = len(quarantined)

	passed := evaluation.NewGuardrails(evaluation.GuardrailConfig{
		MaxMAE:             maxMAE,
		MinWithinTolerance: minWithin,
	}).Check(summary)

	// Output results as JSON
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if !passed {
		for _, v := range summary.Violations {
			log.Error().Str("violation", v).Msg("Guardrail failed")
		}
		os.Exit(1)
	}
}

func loadProfiles(ctx context.Context, cfg *config.Config) ([]*entities.HospitalProfile, error) {
	var repo repositories.ProfileRepository
	if cfg.Data.ProfileStore == "postgres" {
		client, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		defer client.Close()
		repo = database.NewProfileAdapter(client)
	} else {
		repo = storage.NewProfileFileStore(cfg.Data.ProfilePaths...)
	}
	return repo.LoadProfiles(ctx)
}
