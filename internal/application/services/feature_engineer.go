package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

const defaultEngineerConcurrency = 8

// EngineeringResult is the output of one feature engineering run.
type EngineeringResult struct {
	Profiles    []*entities.HospitalProfile `json:"profiles"`
	Quarantined []entities.QuarantinedRecord `json:"quarantined"`
}

// FeatureEngineer aggregates raw visit records into per-hospital profiles.
type FeatureEngineer struct {
	concurrency int
}

// NewFeatureEngineer creates a feature engineer that aggregates at most
// concurrency hospital groups at a time.
func NewFeatureEngineer(concurrency int) *FeatureEngineer {
	if concurrency <= 0 {
		concurrency = defaultEngineerConcurrency
	}
	return &FeatureEngineer{concurrency: concurrency}
}

// Build validates every record, quarantines the malformed ones and returns one
// profile per distinct hospital id, ordered by id. The result does not depend
// on input order.
func (f *FeatureEngineer) Build(ctx context.Context, records []*entities.VisitRecord) (*EngineeringResult, error) {
	ctx, span := observability.StartSpan(ctx, "FeatureEngineer.Build")
	defer span.End()

	result := &EngineeringResult{}
	groups := make(map[string][]*entities.VisitRecord)

	for _, record := range records {
		if record == nil {
			continue
		}
		if err := record.Validate(); err != nil {
			// Line stays zero: records carry no position in their source file.
			q := entities.QuarantinedRecord{
				VisitID:    record.VisitID,
				HospitalID: record.HospitalID,
				Reason:     err.Error(),
			}
			log.Warn().
				Str("visit_id", q.VisitID).
				Str("hospital_id", q.HospitalID).
				Str("reason", q.Reason).
				Msg("Quarantined visit record")
			result.Quarantined = append(result.Quarantined, q)
			continue
		}
		id := strings.TrimSpace(record.HospitalID)
		groups[id] = append(groups[id], record)
	}
	observability.CountQuarantinedVisits(len(result.Quarantined))

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	profiles := make([]*entities.HospitalProfile, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			profiles[i] = aggregateHospital(id, groups[id])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to aggregate visit records: %w", err)
	}

	result.Profiles = profiles

	log.Info().
		Int("records", len(records)).
		Int("profiles", len(profiles)).
		Int("quarantined", len(result.Quarantined)).
		Msg("Feature engineering completed")

	return result, nil
}

// aggregateHospital computes the profile of a single hospital. Visits are put
// into a canonical order first so that the representative record and the
// floating point summation order are stable.
func aggregateHospital(id string, visits []*entities.VisitRecord) *entities.HospitalProfile {
	sorted := make([]*entities.VisitRecord, len(visits))
	copy(sorted, visits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return visitLess(sorted[i], sorted[j])
	})

	first := sorted[0]
	profile := &entities.HospitalProfile{
		ID:           id,
		Name:         first.HospitalName,
		Region:       first.Region,
		FacilitySize: first.FacilitySize,
		VisitCount:   len(sorted),
	}

	waits := make([]float64, 0, len(sorted))
	ratios := make([]float64, 0, len(sorted))
	specialists := make([]float64, 0, len(sorted))
	satisfaction := make([]float64, 0, len(sorted))
	byUrgency := make(map[entities.Urgency][]float64)
	byTime := make(map[entities.TimeOfDay][]float64)
	bySeason := make(map[entities.Season][]float64)

	for _, v := range sorted {
		waits = append(waits, v.TotalWaitTime)
		ratios = append(ratios, v.NurseToPatientRatio)
		specialists = append(specialists, v.SpecialistAvailability)
		satisfaction = append(satisfaction, v.PatientSatisfaction)
		byUrgency[v.Urgency] = append(byUrgency[v.Urgency], v.TotalWaitTime)
		byTime[v.TimeOfDay] = append(byTime[v.TimeOfDay], v.TotalWaitTime)
		bySeason[v.Season] = append(bySeason[v.Season], v.TotalWaitTime)
	}

	averages := entities.NewAverageWaitTimes()
	averages.Overall = mean(waits)
	for _, u := range entities.Urgencies() {
		averages.ByUrgency[u] = mean(byUrgency[u])
		if len(byUrgency[u]) == 0 {
			profile.EmptyBuckets = append(profile.EmptyBuckets, "byUrgency."+string(u))
		}
	}
	for _, t := range entities.TimesOfDay() {
		averages.ByTimeOfDay[t] = mean(byTime[t])
		if len(byTime[t]) == 0 {
			profile.EmptyBuckets = append(profile.EmptyBuckets, "byTimeOfDay."+string(t))
		}
	}
	for _, s := range entities.Seasons() {
		averages.BySeason[s] = mean(bySeason[s])
		if len(bySeason[s]) == 0 {
			profile.EmptyBuckets = append(profile.EmptyBuckets, "bySeason."+string(s))
		}
	}

	profile.AverageWaitTimes = averages
	profile.NurseToPatientRatio = mean(ratios)
	profile.SpecialistAvailability = mean(specialists)
	profile.PatientSatisfaction = mean(satisfaction)

	if len(profile.EmptyBuckets) > 0 {
		log.Debug().
			Str("hospital_id", id).
			Strs("empty_buckets", profile.EmptyBuckets).
			Msg("Profile has buckets without visits")
	}

	return profile
}

// visitLess orders by (visit date, visit id) and breaks remaining ties on the
// metadata and measurements, so records sharing date and id still sort the
// same way whatever the input order.
func visitLess(a, b *entities.VisitRecord) bool {
	if !a.VisitDate.Equal(b.VisitDate) {
		return a.VisitDate.Before(b.VisitDate)
	}
	if a.VisitID != b.VisitID {
		return a.VisitID < b.VisitID
	}
	if a.HospitalName != b.HospitalName {
		return a.HospitalName < b.HospitalName
	}
	if a.Region != b.Region {
		return a.Region < b.Region
	}
	if a.FacilitySize != b.FacilitySize {
		return a.FacilitySize < b.FacilitySize
	}
	if a.Urgency != b.Urgency {
		return a.Urgency < b.Urgency
	}
	if a.TimeOfDay != b.TimeOfDay {
		return a.TimeOfDay < b.TimeOfDay
	}
	if a.Season != b.Season {
		return a.Season < b.Season
	}
	if a.TotalWaitTime != b.TotalWaitTime {
		return a.TotalWaitTime < b.TotalWaitTime
	}
	if a.NurseToPatientRatio != b.NurseToPatientRatio {
		return a.NurseToPatientRatio < b.NurseToPatientRatio
	}
	if a.SpecialistAvailability != b.SpecialistAvailability {
		return a.SpecialistAvailability < b.SpecialistAvailability
	}
	return a.PatientSatisfaction < b.PatientSatisfaction
}

// mean returns 0 for an empty sample.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
