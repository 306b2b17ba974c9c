package storage

import (
	"context"
	"errors"
	"io/fs"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
)

// CoordinateFileStore keeps the {id: {lat, lon}} side table as JSON on disk.
type CoordinateFileStore struct {
	path string
}

// NewCoordinateFileStore creates a coordinate store at path.
func NewCoordinateFileStore(path string) repositories.CoordinateRepository {
	return &CoordinateFileStore{path: path}
}

// LoadCoordinates returns the table. A missing file yields an empty table so
// every hospital is ranked with the sentinel distance.
func (s *CoordinateFileStore) LoadCoordinates(ctx context.Context) (map[string]entities.GeoCoordinate, error) {
	coords := map[string]entities.GeoCoordinate{}
	if s.path == "" {
		return coords, nil
	}
	if err := readJSON(ctx, s.path, &coords); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", s.path).Msg("Coordinate table not found, distances will use the sentinel")
			return map[string]entities.GeoCoordinate{}, nil
		}
		return nil, err
	}

	for id, c := range coords {
		if !c.InRange() {
			log.Warn().Str("hospital_id", id).Float64("lat", c.Latitude).Float64("lon", c.Longitude).Msg("Dropping out-of-range coordinate")
			delete(coords, id)
		}
	}
	return coords, nil
}

// ReplaceCoordinates atomically rewrites the table.
func (s *CoordinateFileStore) ReplaceCoordinates(ctx context.Context, coordinates map[string]entities.GeoCoordinate) error {
	if s.path == "" {
		return errors.New("no coordinates path configured")
	}
	if coordinates == nil {
		coordinates = map[string]entities.GeoCoordinate{}
	}
	return writeJSONAtomic(s.path, coordinates)
}
