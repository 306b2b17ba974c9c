package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
)

// ProfileFileStore keeps hospital profiles as JSON arrays on disk. Several
// sources can be combined; writes always go to the first path.
type ProfileFileStore struct {
	paths []string
}

// NewProfileFileStore creates a store over one or more profile files.
func NewProfileFileStore(paths ...string) repositories.ProfileRepository {
	return &ProfileFileStore{paths: paths}
}

// LoadProfiles concatenates every source in order. Any unreadable source fails
// the whole load.
func (s *ProfileFileStore) LoadProfiles(ctx context.Context) ([]*entities.HospitalProfile, error) {
	if len(s.paths) == 0 {
		return nil, errors.New("no profile paths configured")
	}

	var all []*entities.HospitalProfile
	for _, path := range s.paths {
		var profiles []*entities.HospitalProfile
		if err := readJSON(ctx, path, &profiles); err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
		log.Debug().Str("path", path).Int("profiles", len(profiles)).Msg("Loaded profile source")
		all = append(all, profiles...)
	}
	return all, nil
}

// ReplaceProfiles atomically rewrites the first profile file.
func (s *ProfileFileStore) ReplaceProfiles(ctx context.Context, profiles []*entities.HospitalProfile) error {
	if len(s.paths) == 0 {
		return errors.New("no profile paths configured")
	}
	if profiles == nil {
		profiles = []*entities.HospitalProfile{}
	}
	if err := writeJSONAtomic(s.paths[0], profiles); err != nil {
		return err
	}
	log.Info().Str("path", s.paths[0]).Int("profiles", len(profiles)).Msg("Wrote hospital profiles")
	return nil
}
