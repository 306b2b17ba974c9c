package services

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

const (
	defaultDirectoryLimit = 10
	maxDirectoryLimit     = 100
	defaultSearchLimit    = 20
)

// HospitalDetail is a single profile with its coordinates, if known.
type HospitalDetail struct {
	*entities.HospitalProfile
	Coordinates *entities.MapCoordinates `json:"coordinates,omitempty"`
}

// HospitalDirectoryService lists and searches hospitals from the snapshot.
type HospitalDirectoryService struct {
	snapshots  SnapshotSource
	searchRepo repositories.HospitalSearchRepository
	clock      providers.Clock
}

// NewHospitalDirectoryService creates a directory service. searchRepo may be
// nil, in which case search scans the snapshot.
func NewHospitalDirectoryService(snapshots SnapshotSource, searchRepo repositories.HospitalSearchRepository, clock providers.Clock) *HospitalDirectoryService {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &HospitalDirectoryService{
		snapshots:  snapshots,
		searchRepo: searchRepo,
		clock:      clock,
	}
}

// Nearby returns the nearest hospitals with a quick historical estimate that
// only uses the urgency, time of day and season buckets.
func (s *HospitalDirectoryService) Nearby(ctx context.Context, latitude, longitude float64, urgencyLabel string, limit int) (*entities.HospitalDirectory, error) {
	point := entities.GeoCoordinate{Latitude: latitude, Longitude: longitude}
	if err := ValidateQueryPoint(point); err != nil {
		return nil, err
	}
	urgency := ResolveUrgency(urgencyLabel)
	limit = clampLimit(limit, defaultDirectoryLimit, maxDirectoryLimit)

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	signal := TemporalSignal(s.clock.Now())
	ranked := RankByDistance(snap.Profiles(), snap.Coordinates(), point)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	hospitals := make([]*entities.NearbyHospital, 0, len(ranked))
	for _, c := range ranked {
		hospitals = append(hospitals, toNearbyHospital(c, urgency, signal))
	}

	return &entities.HospitalDirectory{
		Hospitals: hospitals,
		Metadata: entities.DirectoryMetadata{
			TimeOfDay:    signal.TimeOfDay,
			Season:       signal.Season,
			UrgencyLevel: urgency,
		},
	}, nil
}

// GetByID returns one hospital profile.
func (s *HospitalDirectoryService) GetByID(ctx context.Context, id string) (*HospitalDetail, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	profile, ok := snap.Profile(strings.TrimSpace(id))
	if !ok {
		return nil, apperrors.NewNotFoundError("hospital not found")
	}
	return newHospitalDetail(snap, profile), nil
}

// Search matches hospital names and regions. The search index is used when
// configured; if it fails the snapshot is scanned instead.
func (s *HospitalDirectoryService) Search(ctx context.Context, query string, limit int) ([]*HospitalDetail, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query parameter 'q' is required")
	}
	limit = clampLimit(limit, defaultSearchLimit, maxDirectoryLimit)

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if s.searchRepo != nil {
		ids, err := s.searchRepo.Search(ctx, query, limit)
		if err == nil {
			results := make([]*HospitalDetail, 0, len(ids))
			for _, id := range ids {
				if p, ok := snap.Profile(id); ok {
					results = append(results, newHospitalDetail(snap, p))
				}
			}
			return results, nil
		}
		log.Warn().Err(err).Str("query", query).Msg("Hospital search index failed, scanning snapshot")
	}

	needle := strings.ToLower(query)
	results := make([]*HospitalDetail, 0)
	for _, p := range snap.Profiles() {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Region), needle) {
			results = append(results, newHospitalDetail(snap, p))
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// DirectoryEstimate is round(base × timeOfDayFactor × seasonFactor). Hospitals
// without coordinates show their overall average.
func DirectoryEstimate(profile *entities.HospitalProfile, urgency entities.Urgency, signal *entities.ContextualSignal, hasCoordinates bool) int {
	avg := profile.AverageWaitTimes
	if !hasCoordinates {
		return int(math.Round(avg.Overall))
	}
	estimate := BaseWaitTime(profile, urgency) *
		relativeFactor(avg.ByTimeOfDay[signal.TimeOfDay], avg.Overall) *
		relativeFactor(avg.BySeason[signal.Season], avg.Overall)
	return int(math.Round(estimate))
}

func toNearbyHospital(c Candidate, urgency entities.Urgency, signal *entities.ContextualSignal) *entities.NearbyHospital {
	p := c.Profile
	out := &entities.NearbyHospital{
		ID:                     p.ID,
		Name:                   p.Name,
		Region:                 p.Region,
		Distance:               c.DistanceKm,
		FacilitySize:           p.FacilitySize,
		NurseToPatientRatio:    p.NurseToPatientRatio,
		SpecialistAvailability: p.SpecialistAvailability,
		PatientSatisfaction:    p.PatientSatisfaction,
		EstimatedWaitTime:      DirectoryEstimate(p, urgency, signal, c.Coordinates != nil),
		HistoricalWaitTime:     p.AverageWaitTimes.Overall,
	}
	if c.Coordinates != nil {
		out.Coordinates = &entities.MapCoordinates{Lat: c.Coordinates.Latitude, Lng: c.Coordinates.Longitude}
	}
	return out
}

func newHospitalDetail(snap *ProfileSnapshot, p *entities.HospitalProfile) *HospitalDetail {
	d := &HospitalDetail{HospitalProfile: p}
	if c, ok := snap.Coordinate(p.ID); ok {
		d.Coordinates = &entities.MapCoordinates{Lat: c.Latitude, Lng: c.Longitude}
	}
	return d
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
