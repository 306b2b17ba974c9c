package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) LoadProfiles(ctx context.Context) ([]*entities.HospitalProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.HospitalProfile), args.Error(1)
}

func (m *MockProfileRepository) ReplaceProfiles(ctx context.Context, profiles []*entities.HospitalProfile) error {
	args := m.Called(ctx, profiles)
	return args.Error(0)
}

type MockCoordinateRepository struct {
	mock.Mock
}

func (m *MockCoordinateRepository) LoadCoordinates(ctx context.Context) (map[string]entities.GeoCoordinate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]entities.GeoCoordinate), args.Error(1)
}

func (m *MockCoordinateRepository) ReplaceCoordinates(ctx context.Context, coordinates map[string]entities.GeoCoordinate) error {
	args := m.Called(ctx, coordinates)
	return args.Error(0)
}

type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) Create(ctx context.Context, feedback *entities.Feedback) error {
	args := m.Called(ctx, feedback)
	return args.Error(0)
}

func (m *MockFeedbackRepository) Count(ctx context.Context, since time.Time) (int, int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Int(1), args.Error(2)
}

type MockHospitalSearchRepository struct {
	mock.Mock
}

func (m *MockHospitalSearchRepository) Index(ctx context.Context, profiles []*entities.HospitalProfile, coordinates map[string]entities.GeoCoordinate) error {
	args := m.Called(ctx, profiles, coordinates)
	return args.Error(0)
}

func (m *MockHospitalSearchRepository) Search(ctx context.Context, query string, limit int) ([]string, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockSnapshotSource struct {
	mock.Mock
}

func (m *MockSnapshotSource) Snapshot(ctx context.Context) (*services.ProfileSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProfileSnapshot), args.Error(1)
}

type MockTextGenerationProvider struct {
	mock.Mock
}

func (m *MockTextGenerationProvider) Name() string {
	return "mock"
}

func (m *MockTextGenerationProvider) Generate(ctx context.Context, req providers.TextGenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// weatherFunc adapts a function to providers.WeatherProvider.
type weatherFunc func(ctx context.Context, point entities.GeoCoordinate) (*providers.WeatherObservation, error)

func (f weatherFunc) CurrentWeather(ctx context.Context, point entities.GeoCoordinate) (*providers.WeatherObservation, error) {
	return f(ctx, point)
}

// eventsFunc adapts a function to providers.EventsProvider.
type eventsFunc func(ctx context.Context, point entities.GeoCoordinate, at time.Time) (*providers.EventsReport, error)

func (f eventsFunc) LocalEvents(ctx context.Context, point entities.GeoCoordinate, at time.Time) (*providers.EventsReport, error) {
	return f(ctx, point, at)
}

// blockingWeather never answers before the caller gives up.
func blockingWeather() providers.WeatherProvider {
	return weatherFunc(func(ctx context.Context, _ entities.GeoCoordinate) (*providers.WeatherObservation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
}

func staticWeather(condition entities.WeatherCondition) providers.WeatherProvider {
	return weatherFunc(func(context.Context, entities.GeoCoordinate) (*providers.WeatherObservation, error) {
		return &providers.WeatherObservation{Condition: condition}, nil
	})
}

func noEvents() providers.EventsProvider {
	return eventsFunc(func(context.Context, entities.GeoCoordinate, time.Time) (*providers.EventsReport, error) {
		return &providers.EventsReport{Names: []string{}, Provenance: entities.ProvenanceSimulated}, nil
	})
}

// wednesdayAfternoon is a weekday, off-peak, daytime instant.
var wednesdayAfternoon = time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)

// saturdayAfternoon is a weekend, off-peak, daytime instant.
var saturdayAfternoon = time.Date(2024, time.June, 15, 14, 0, 0, 0, time.UTC)

// flatProfile returns a profile whose time of day and season buckets all equal
// overall, so the profile relative factors are exactly 1.0.
func flatProfile(id, region string, overall float64) *entities.HospitalProfile {
	avg := entities.NewAverageWaitTimes()
	avg.Overall = overall
	for _, t := range entities.TimesOfDay() {
		avg.ByTimeOfDay[t] = overall
	}
	for _, s := range entities.Seasons() {
		avg.BySeason[s] = overall
	}
	avg.ByUrgency[entities.UrgencyCritical] = 25
	avg.ByUrgency[entities.UrgencyHigh] = 60
	avg.ByUrgency[entities.UrgencyMedium] = 100
	avg.ByUrgency[entities.UrgencyLow] = 150

	return &entities.HospitalProfile{
		ID:                     id,
		Name:                   id + " Medical Center",
		Region:                 region,
		FacilitySize:           200,
		AverageWaitTimes:       avg,
		NurseToPatientRatio:    0.30,
		SpecialistAvailability: 3,
		PatientSatisfaction:    4,
		VisitCount:             50,
	}
}

// neutralSignal has every contextual factor at 1.0.
func neutralSignal(at time.Time) *entities.ContextualSignal {
	return services.TemporalSignal(at)
}
