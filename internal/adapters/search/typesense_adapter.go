package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	tsclient "github.com/zatekoja/erwaittime/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

// TypesenseAdapter implements HospitalSearchRepository on the hospitals collection
type TypesenseAdapter struct {
	client *tsclient.Client
}

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) repositories.HospitalSearchRepository {
	return &TypesenseAdapter{client: client}
}

// Index upserts one document per profile
func (a *TypesenseAdapter) Index(ctx context.Context, profiles []*entities.HospitalProfile, coordinates map[string]entities.GeoCoordinate) error {
	start := time.Now()
	documents := a.client.Client().Collection(tsclient.HospitalsCollection).Documents()

	indexed := 0
	for _, p := range profiles {
		var coord *entities.GeoCoordinate
		if c, ok := coordinates[p.ID]; ok {
			coord = &c
		}
		if _, err := documents.Upsert(ctx, hospitalDocument(p, coord)); err != nil {
			observability.RecordExternalCall(ctx, "typesense", time.Since(start), err)
			return fmt.Errorf("failed to index hospital %s: %w", p.ID, err)
		}
		indexed++
	}

	observability.RecordExternalCall(ctx, "typesense", time.Since(start), nil)
	log.Info().Int("documents", indexed).Msg("Indexed hospitals in Typesense")
	return nil
}

// Search matches name and region, best match first
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]string, error) {
	params := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("name,region"),
		PerPage: pointer.Int(limit),
	}

	start := time.Now()
	result, err := a.client.Client().Collection(tsclient.HospitalsCollection).Documents().Search(ctx, params)
	observability.RecordExternalCall(ctx, "typesense", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to search hospitals: %w", err)
	}

	ids := []string{}
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		if id, ok := (*hit.Document)["id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func hospitalDocument(p *entities.HospitalProfile, coord *entities.GeoCoordinate) map[string]interface{} {
	doc := map[string]interface{}{
		"id":            p.ID,
		"name":          strings.TrimSpace(p.Name),
		"region":        strings.TrimSpace(p.Region),
		"region_key":    p.RegionKey(),
		"facility_size": p.FacilitySize,
		"overall_wait":  p.AverageWaitTimes.Overall,
		"visit_count":   p.VisitCount,
	}
	if coord != nil {
		doc["location"] = []float64{coord.Latitude, coord.Longitude}
	}
	return doc
}
