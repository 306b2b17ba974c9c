package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

// MsgHospitalDataNotFound is returned to clients when the snapshot cannot be loaded.
const MsgHospitalDataNotFound = "Hospital data not found. Please check the data directory."

// ProfileSnapshot is an immutable view of the profile set and the coordinate
// table. It is shared by all requests without locking.
type ProfileSnapshot struct {
	profiles    []*entities.HospitalProfile
	byID        map[string]*entities.HospitalProfile
	coordinates map[string]entities.GeoCoordinate
	loadedAt    time.Time
}

// NewProfileSnapshot validates the profiles and indexes them by id. Invalid
// profiles are dropped with a warning; for duplicate ids the first one wins.
func NewProfileSnapshot(profiles []*entities.HospitalProfile, coordinates map[string]entities.GeoCoordinate, loadedAt time.Time) *ProfileSnapshot {
	s := &ProfileSnapshot{
		profiles:    make([]*entities.HospitalProfile, 0, len(profiles)),
		byID:        make(map[string]*entities.HospitalProfile, len(profiles)),
		coordinates: make(map[string]entities.GeoCoordinate, len(coordinates)),
		loadedAt:    loadedAt,
	}

	for _, p := range profiles {
		if p == nil {
			continue
		}
		p.Normalize()
		if err := p.Validate(); err != nil {
			log.Warn().Err(err).Str("hospital_id", p.ID).Msg("Skipping invalid hospital profile")
			continue
		}
		if _, dup := s.byID[p.ID]; dup {
			log.Warn().Str("hospital_id", p.ID).Msg("Duplicate hospital profile, keeping the first")
			continue
		}
		s.byID[p.ID] = p
		s.profiles = append(s.profiles, p)
	}

	for id, c := range coordinates {
		s.coordinates[id] = c
	}

	return s
}

// Profiles returns the profiles in load order. The slice must not be modified.
func (s *ProfileSnapshot) Profiles() []*entities.HospitalProfile {
	return s.profiles
}

// Profile looks a profile up by id.
func (s *ProfileSnapshot) Profile(id string) (*entities.HospitalProfile, bool) {
	p, ok := s.byID[id]
	return p, ok
}

// Coordinates returns the coordinate table. The map must not be modified.
func (s *ProfileSnapshot) Coordinates() map[string]entities.GeoCoordinate {
	return s.coordinates
}

// Coordinate looks a hospital coordinate up by id.
func (s *ProfileSnapshot) Coordinate(id string) (entities.GeoCoordinate, bool) {
	c, ok := s.coordinates[id]
	return c, ok
}

// Len returns the number of profiles.
func (s *ProfileSnapshot) Len() int {
	return len(s.profiles)
}

// LoadedAt returns when the snapshot was built.
func (s *ProfileSnapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// IDs returns all profile ids sorted.
func (s *ProfileSnapshot) IDs() []string {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SnapshotService loads the profile snapshot once per process lifetime. A
// failed load is attempted again on the next call.
type SnapshotService struct {
	profileRepo    repositories.ProfileRepository
	coordinateRepo repositories.CoordinateRepository

	mu      sync.Mutex
	current atomic.Pointer[ProfileSnapshot]
}

// NewSnapshotService creates a snapshot service.
func NewSnapshotService(profileRepo repositories.ProfileRepository, coordinateRepo repositories.CoordinateRepository) *SnapshotService {
	return &SnapshotService{
		profileRepo:    profileRepo,
		coordinateRepo: coordinateRepo,
	}
}

// Snapshot returns the loaded snapshot, loading it on first use.
func (s *SnapshotService) Snapshot(ctx context.Context) (*ProfileSnapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)
	return snap, nil
}

func (s *SnapshotService) load(ctx context.Context) (*ProfileSnapshot, error) {
	ctx, span := observability.StartSpan(ctx, "SnapshotService.load")
	defer span.End()

	profiles, err := s.profileRepo.LoadProfiles(ctx)
	if err != nil {
		observability.RecordError(span, err)
		log.Error().Err(err).Msg("Failed to load hospital profiles")
		return nil, apperrors.NewDataUnavailableError(MsgHospitalDataNotFound, err)
	}

	coordinates, err := s.coordinateRepo.LoadCoordinates(ctx)
	if err != nil {
		observability.RecordError(span, err)
		log.Error().Err(err).Msg("Failed to load hospital coordinates")
		return nil, apperrors.NewDataUnavailableError(MsgHospitalDataNotFound, err)
	}

	snap := NewProfileSnapshot(profiles, coordinates, time.Now().UTC())
	if snap.Len() == 0 {
		err := errors.New("profile set is empty")
		observability.RecordError(span, err)
		return nil, apperrors.NewDataUnavailableError(MsgHospitalDataNotFound, err)
	}

	missing := 0
	for _, p := range snap.Profiles() {
		if _, ok := snap.Coordinate(p.ID); !ok {
			missing++
		}
	}

	log.Info().
		Int("profiles", snap.Len()).
		Int("coordinates", len(coordinates)).
		Int("without_coordinates", missing).
		Msg("Hospital snapshot loaded")

	return snap, nil
}
