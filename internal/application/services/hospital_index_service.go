package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

// HospitalIndexService pushes the profile snapshot into the search index.
type HospitalIndexService struct {
	snapshots SnapshotSource
	index     repositories.HospitalSearchRepository
}

// NewHospitalIndexService creates a new index service.
func NewHospitalIndexService(snapshots SnapshotSource, index repositories.HospitalSearchRepository) *HospitalIndexService {
	return &HospitalIndexService{
		snapshots: snapshots,
		index:     index,
	}
}

// IndexAll upserts every profile of the current snapshot and returns how many
// were sent.
func (s *HospitalIndexService) IndexAll(ctx context.Context) (int, error) {
	ctx, span := observability.StartSpan(ctx, "HospitalIndexService.IndexAll")
	defer span.End()

	start := time.Now()
	log.Info().Msg("Starting hospital indexing")

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return 0, err
	}

	if err := s.index.Index(ctx, snap.Profiles(), snap.Coordinates()); err != nil {
		observability.RecordError(span, err)
		return 0, fmt.Errorf("failed to index hospitals: %w", err)
	}

	log.Info().
		Int("hospitals", snap.Len()).
		Dur("duration", time.Since(start)).
		Msg("Hospital indexing completed")
	return snap.Len(), nil
}

// IndexInBackground runs IndexAll without blocking startup. Failures are
// logged; search falls back to scanning the snapshot.
func (s *HospitalIndexService) IndexInBackground(ctx context.Context) {
	go func() {
		if _, err := s.IndexAll(ctx); err != nil {
			log.Warn().Err(err).Msg("Background hospital indexing failed")
		}
	}()
}
