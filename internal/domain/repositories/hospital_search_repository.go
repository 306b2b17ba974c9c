package repositories

import (
	"context"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

// HospitalSearchRepository defines the interface for full-text hospital search (e.g. Typesense)
type HospitalSearchRepository interface {
	// Index upserts profiles with their coordinates, when known
	Index(ctx context.Context, profiles []*entities.HospitalProfile, coordinates map[string]entities.GeoCoordinate) error

	// Search returns matching hospital ids, best match first
	Search(ctx context.Context, query string, limit int) ([]string, error)
}
