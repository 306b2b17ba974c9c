package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

// Messages returned for rejected coordinates.
const (
	MsgInvalidCoordinates = "Invalid coordinates. Please provide latitude and longitude."
	MsgCoordinatesRange   = "Invalid coordinates. Latitude must be within [-90, 90] and longitude within [-180, 180]."
)

const defaultPredictionConcurrency = 16

// EstimateQuery is a prediction request.
type EstimateQuery struct {
	Latitude  float64
	Longitude float64
	Urgency   string
}

// SnapshotSource supplies the current profile snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*ProfileSnapshot, error)
}

// WaitTimeService answers prediction requests: it selects region diverse
// candidates, resolves the live context once and predicts every candidate
// independently.
type WaitTimeService struct {
	snapshots    SnapshotSource
	signals      *ContextProvider
	predictor    Predictor
	perRegionCap int
	concurrency  int
}

// NewWaitTimeService creates a wait time service.
func NewWaitTimeService(snapshots SnapshotSource, contextProvider *ContextProvider, predictor Predictor, perRegionCap int) *WaitTimeService {
	if perRegionCap <= 0 {
		perRegionCap = DefaultPerRegionCap
	}
	return &WaitTimeService{
		snapshots:    snapshots,
		signals:      contextProvider,
		predictor:    predictor,
		perRegionCap: perRegionCap,
		concurrency:  defaultPredictionConcurrency,
	}
}

// ValidateQueryPoint rejects the (0,0) placeholder and out of range coordinates.
func ValidateQueryPoint(point entities.GeoCoordinate) error {
	if point.IsOrigin() {
		return apperrors.NewValidationError(MsgInvalidCoordinates)
	}
	if !point.InRange() {
		return apperrors.NewValidationError(MsgCoordinatesRange)
	}
	return nil
}

// ResolveUrgency applies the default urgency and normalises the case of known labels.
func ResolveUrgency(value string) entities.Urgency {
	if value == "" {
		return entities.DefaultUrgency
	}
	u, _ := entities.ParseUrgency(value)
	if u == "" {
		return entities.DefaultUrgency
	}
	return u
}

// Estimate predicts wait times for the region diverse nearest hospitals.
func (s *WaitTimeService) Estimate(ctx context.Context, query EstimateQuery) (*entities.WaitTimeEstimate, error) {
	started := time.Now()
	defer func() { observability.ObserveEstimateDuration(time.Since(started)) }()

	ctx, span := observability.StartSpan(ctx, "WaitTimeService.Estimate")
	defer span.End()

	point := entities.GeoCoordinate{Latitude: query.Latitude, Longitude: query.Longitude}
	if err := ValidateQueryPoint(point); err != nil {
		return nil, err
	}
	urgency := ResolveUrgency(query.Urgency)

	observability.SetSpanAttributes(span,
		attribute.Float64("query.latitude", point.Latitude),
		attribute.Float64("query.longitude", point.Longitude),
		attribute.String("query.urgency", string(urgency)),
	)

	var (
		signal     *entities.ContextualSignal
		candidates []Candidate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		signal = s.signals.Resolve(gctx, point)
		return nil
	})
	g.Go(func() error {
		snap, err := s.snapshots.Snapshot(gctx)
		if err != nil {
			return err
		}
		candidates = SelectDiverseCandidates(snap.Profiles(), snap.Coordinates(), point, s.perRegionCap)
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	hospitals := make([]*entities.HospitalPrediction, len(candidates))
	pg, pctx := errgroup.WithContext(ctx)
	pg.SetLimit(s.concurrency)
	for i, c := range candidates {
		i, c := i, c
		pg.Go(func() error {
			prediction := s.predictor.Predict(pctx, c.Profile, urgency, signal, c.DistanceKm)
			hospitals[i] = toHospitalPrediction(c, prediction)
			return nil
		})
	}
	_ = pg.Wait()

	log.Debug().
		Int("candidates", len(candidates)).
		Str("urgency", string(urgency)).
		Str("weather", string(signal.Weather)).
		Str("traffic", string(signal.Traffic)).
		Msg("Wait time estimate computed")

	return &entities.WaitTimeEstimate{
		Hospitals:         hospitals,
		ContextualFactors: toContextualFactors(signal, urgency),
	}, nil
}

func toHospitalPrediction(c Candidate, prediction *entities.PredictionResult) *entities.HospitalPrediction {
	p := c.Profile
	out := &entities.HospitalPrediction{
		ID:                  p.ID,
		Name:                p.Name,
		Region:              p.Region,
		Distance:            c.DistanceKm,
		FacilitySize:        p.FacilitySize,
		NurseToPatientRatio: p.NurseToPatientRatio,
		PatientSatisfaction: p.PatientSatisfaction,
		HistoricalWaitTime:  p.AverageWaitTimes.Overall,
		Prediction:          prediction,
	}
	if c.Coordinates != nil {
		out.Coordinates = &entities.MapCoordinates{Lat: c.Coordinates.Latitude, Lng: c.Coordinates.Longitude}
	}
	return out
}

func toContextualFactors(signal *entities.ContextualSignal, urgency entities.Urgency) entities.ContextualFactors {
	events := signal.Events
	if events == nil {
		events = []string{}
	}
	return entities.ContextualFactors{
		TrafficCondition: signal.Traffic,
		TrafficSource:    signal.TrafficSource,
		WeatherCondition: signal.Weather,
		WeatherSource:    signal.WeatherSource,
		LocalEvents:      events,
		EventsSource:     signal.EventsSource,
		UrgencyLevel:     urgency,
		TimeOfDay:        signal.TimeOfDay,
		Season:           signal.Season,
		IsWeekend:        signal.IsWeekend,
		ResolvedAt:       signal.ResolvedAt,
	}
}
