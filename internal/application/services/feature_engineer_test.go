package services_test

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

func visit(id, hospitalID string, day int, urgency entities.Urgency, tod entities.TimeOfDay, season entities.Season, wait float64) *entities.VisitRecord {
	return &entities.VisitRecord{
		VisitID:                id,
		HospitalID:             hospitalID,
		HospitalName:           hospitalID + " Hospital",
		Region:                 "Fresno, CA",
		VisitDate:              time.Date(2023, time.March, day, 0, 0, 0, 0, time.UTC),
		Season:                 season,
		TimeOfDay:              tod,
		Urgency:                urgency,
		NurseToPatientRatio:    0.25,
		SpecialistAvailability: 2,
		FacilitySize:           120,
		TotalWaitTime:          wait,
		PatientSatisfaction:    3,
	}
}

func TestFeatureEngineer_AggregatesBuckets(t *testing.T) {
	records := []*entities.VisitRecord{
		visit("V1", "HOSP-1", 1, entities.UrgencyCritical, entities.TimeOfDayNight, entities.SeasonWinter, 20),
		visit("V2", "HOSP-1", 2, entities.UrgencyCritical, entities.TimeOfDayEvening, entities.SeasonWinter, 40),
		visit("V3", "HOSP-1", 3, entities.UrgencyLow, entities.TimeOfDayEvening, entities.SeasonSpring, 150),
	}
	records[2].NurseToPatientRatio = 0.40

	result, err := services.NewFeatureEngineer(2).Build(context.Background(), records)

	require.NoError(t, err)
	require.Len(t, result.Profiles, 1)
	assert.Empty(t, result.Quarantined)

	p := result.Profiles[0]
	assert.Equal(t, "HOSP-1", p.ID)
	assert.Equal(t, 3, p.VisitCount)
	assert.InDelta(t, 70, p.AverageWaitTimes.Overall, 1e-9)
	assert.InDelta(t, 30, p.AverageWaitTimes.ByUrgency[entities.UrgencyCritical], 1e-9)
	assert.InDelta(t, 150, p.AverageWaitTimes.ByUrgency[entities.UrgencyLow], 1e-9)
	assert.InDelta(t, 95, p.AverageWaitTimes.ByTimeOfDay[entities.TimeOfDayEvening], 1e-9)
	assert.InDelta(t, 30, p.AverageWaitTimes.BySeason[entities.SeasonWinter], 1e-9)
	assert.InDelta(t, 0.30, p.NurseToPatientRatio, 1e-9)

	// Empty buckets are present and zero, never NaN.
	assert.Equal(t, 0.0, p.AverageWaitTimes.ByUrgency[entities.UrgencyHigh])
	assert.Equal(t, 0.0, p.AverageWaitTimes.BySeason[entities.SeasonFall])
	assert.Len(t, p.AverageWaitTimes.ByTimeOfDay, 5)
	assert.Contains(t, p.EmptyBuckets, "byUrgency.High")
	assert.Contains(t, p.EmptyBuckets, "byTimeOfDay.Early Morning")
	assert.Contains(t, p.EmptyBuckets, "bySeason.Fall")
	assert.NoError(t, p.Validate())
}

func TestFeatureEngineer_QuarantinesMalformedRecords(t *testing.T) {
	bad := visit("V2", "HOSP-1", 2, entities.UrgencyHigh, entities.TimeOfDayNight, entities.SeasonWinter, math.NaN())
	unknown := visit("V3", "HOSP-1", 3, entities.Urgency("Extreme"), entities.TimeOfDayNight, entities.SeasonWinter, 30)
	noHospital := visit("V4", "", 4, entities.UrgencyHigh, entities.TimeOfDayNight, entities.SeasonWinter, 30)

	records := []*entities.VisitRecord{
		visit("V1", "HOSP-1", 1, entities.UrgencyHigh, entities.TimeOfDayNight, entities.SeasonWinter, 50),
		bad, unknown, noHospital,
	}

	result, err := services.NewFeatureEngineer(0).Build(context.Background(), records)

	require.NoError(t, err)
	require.Len(t, result.Profiles, 1)
	require.Len(t, result.Quarantined, 3)
	assert.Equal(t, "V2", result.Quarantined[0].VisitID)
	for _, q := range result.Quarantined {
		assert.Zero(t, q.Line, "in-memory records have no file line")
	}
	assert.Contains(t, result.Quarantined[0].Reason, "total wait time")
	assert.Contains(t, result.Quarantined[1].Reason, "urgency")
	assert.Contains(t, result.Quarantined[2].Reason, "hospital id")
	assert.InDelta(t, 50, result.Profiles[0].AverageWaitTimes.Overall, 1e-9)
	assert.Equal(t, 1, result.Profiles[0].VisitCount)
}

func TestFeatureEngineer_OrderIndependent(t *testing.T) {
	urgencies := entities.Urgencies()
	times := entities.TimesOfDay()
	seasons := entities.Seasons()

	var records []*entities.VisitRecord
	for i := 0; i < 200; i++ {
		records = append(records, visit(
			fmt.Sprintf("V%03d", i),
			fmt.Sprintf("HOSP-%d", i%7),
			1+i%28,
			urgencies[i%len(urgencies)],
			times[i%len(times)],
			seasons[i%len(seasons)],
			float64(10+(i*37)%190)+0.1,
		))
	}
	// Conflicting metadata inside one hospital group.
	records[7].HospitalName = "Renamed Hospital"

	engineer := services.NewFeatureEngineer(4)
	expected, err := engineer.Build(context.Background(), records)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		shuffled := make([]*entities.VisitRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := engineer.Build(context.Background(), shuffled)
		require.NoError(t, err)
		assert.Equal(t, expected.Profiles, got.Profiles)
	}

	require.Len(t, expected.Profiles, 7)
	assert.Equal(t, "HOSP-0", expected.Profiles[0].ID)
}

func TestFeatureEngineer_FirstRecordByDateSuppliesMetadata(t *testing.T) {
	later := visit("V9", "HOSP-1", 20, entities.UrgencyLow, entities.TimeOfDayNight, entities.SeasonWinter, 10)
	later.HospitalName = "Later Name"
	earlier := visit("V1", "HOSP-1", 2, entities.UrgencyLow, entities.TimeOfDayNight, entities.SeasonWinter, 10)
	earlier.HospitalName = "Earlier Name"

	result, err := services.NewFeatureEngineer(1).Build(context.Background(), []*entities.VisitRecord{later, earlier})

	require.NoError(t, err)
	assert.Equal(t, "Earlier Name", result.Profiles[0].Name)
}

func TestFeatureEngineer_DuplicateDateAndIDIsOrderIndependent(t *testing.T) {
	a := visit("V1", "HOSP-1", 2, entities.UrgencyLow, entities.TimeOfDayNight, entities.SeasonWinter, 10)
	a.HospitalName = "Bravo Medical"
	a.Region = "Fresno, CA"
	b := visit("V1", "HOSP-1", 2, entities.UrgencyLow, entities.TimeOfDayNight, entities.SeasonWinter, 10)
	b.HospitalName = "Alpha Medical"
	b.Region = "Clovis, CA"
	b.FacilitySize = 300

	engineer := services.NewFeatureEngineer(1)
	forward, err := engineer.Build(context.Background(), []*entities.VisitRecord{a, b})
	require.NoError(t, err)
	backward, err := engineer.Build(context.Background(), []*entities.VisitRecord{b, a})
	require.NoError(t, err)

	assert.Equal(t, forward.Profiles, backward.Profiles)
	assert.Equal(t, "Alpha Medical", forward.Profiles[0].Name)
	assert.Equal(t, "Clovis, CA", forward.Profiles[0].Region)
	assert.Equal(t, 300, forward.Profiles[0].FacilitySize)
}

func TestFeatureEngineer_EmptyInput(t *testing.T) {
	result, err := services.NewFeatureEngineer(1).Build(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, result.Profiles)
	assert.Empty(t, result.Quarantined)
}
