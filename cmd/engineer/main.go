package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zatekoja/erwaittime/internal/adapters/database"
	"github.com/zatekoja/erwaittime/internal/adapters/ingestion"
	"github.com/zatekoja/erwaittime/internal/adapters/storage"
	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
	"github.com/zatekoja/erwaittime/pkg/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "engineer",
		Short:         "Build hospital profiles from historical ER visits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(importCoordinatesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type buildSummary struct {
	Visits   int `json:"visits"`
	Profiles int `json:"profiles"`
	Skipped  int `json:"skipped"`
}

func buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Aggregate a visit CSV export into hospital profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			output, _ := cmd.Flags().GetString("output")
			store, _ := cmd.Flags().GetString("store")
			concurrency, _ := cmd.Flags().GetInt("concurrency")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if store == "" {
				store = cfg.Data.ProfileStore
			}

			ctx := cmd.Context()
			read, err := ingestion.NewCSVVisitReader().ReadFile(ctx, input)
			if err != nil {
				return err
			}
			for _, q := range read.Quarantined {
				log.Warn().
					Int("line", q.Line).
					Str("visit_id", q.VisitID).
					Str("hospital_id", q.HospitalID).
					Str("reason", q.Reason).
					Msg("Skipped unparseable visit row")
			}
			observability.CountQuarantinedVisits(len(read.Quarantined))

			result, err := services.NewFeatureEngineer(concurrency).Build(ctx, read.Records)
			if err != nil {
				return err
			}

			repo, closeRepo, err := profileRepository(cfg, store, output)
			if err != nil {
				return err
			}
			defer closeRepo()

			if err := repo.ReplaceProfiles(ctx, result.Profiles); err != nil {
				return fmt.Errorf("failed to write profiles: %w", err)
			}

			summary := buildSummary{
				Visits:   len(read.Records) + len(read.Quarantined),
				Profiles: len(result.Profiles),
				Skipped:  len(read.Quarantined) + len(result.Quarantined),
			}
			return printJSON(cmd, summary)
		},
	}
	cmd.Flags().String("input", "data/er_wait_time.csv", "Visit CSV export")
	cmd.Flags().String("output", "", "Profile JSON file for the file store (default: first PROFILE_PATHS entry)")
	cmd.Flags().String("store", "", "Profile store: file or postgres (default: PROFILE_STORE)")
	cmd.Flags().Int("concurrency", 0, "Hospital groups aggregated in parallel")
	return cmd
}

func importCoordinatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-coordinates",
		Short: "Load a coordinate JSON table into PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if input == "" {
				input = cfg.Data.CoordinatesPath
			}

			ctx := cmd.Context()
			coordinates, err := storage.NewCoordinateFileStore(input).LoadCoordinates(ctx)
			if err != nil {
				return err
			}

			client, err := connectDatabase(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := database.NewCoordinateAdapter(client).ReplaceCoordinates(ctx, coordinates); err != nil {
				return fmt.Errorf("failed to import coordinates: %w", err)
			}
			return printJSON(cmd, map[string]int{"coordinates": len(coordinates)})
		},
	}
	cmd.Flags().String("input", "", "Coordinate JSON file (default: COORDINATES_PATH)")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	observability.InitLogger("er-wait-engineer", cfg.Env)
	return cfg, nil
}

func profileRepository(cfg *config.Config, store, output string) (repositories.ProfileRepository, func(), error) {
	switch store {
	case "postgres":
		client, err := connectDatabase(context.Background(), cfg)
		if err != nil {
			return nil, nil, err
		}
		return database.NewProfileAdapter(client), func() { _ = client.Close() }, nil
	case "file":
		if output == "" {
			if len(cfg.Data.ProfilePaths) == 0 {
				return nil, nil, fmt.Errorf("no output path: set --output or PROFILE_PATHS")
			}
			output = cfg.Data.ProfilePaths[0]
		}
		return storage.NewProfileFileStore(output), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported profile store %q", store)
	}
}

func connectDatabase(ctx context.Context, cfg *config.Config) (*postgres.Client, error) {
	client, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
