package repositories

import (
	"context"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

// ProfileRepository defines the interface for hospital profile storage
type ProfileRepository interface {
	// LoadProfiles returns the complete stored profile set
	LoadProfiles(ctx context.Context) ([]*entities.HospitalProfile, error)

	// ReplaceProfiles swaps the stored set for the given one; readers never observe a partial set
	ReplaceProfiles(ctx context.Context, profiles []*entities.HospitalProfile) error
}

// CoordinateRepository defines the interface for the hospital coordinate side table
type CoordinateRepository interface {
	// LoadCoordinates returns coordinates keyed by hospital id
	LoadCoordinates(ctx context.Context) (map[string]entities.GeoCoordinate, error)

	// ReplaceCoordinates swaps the stored table for the given one
	ReplaceCoordinates(ctx context.Context, coordinates map[string]entities.GeoCoordinate) error
}
