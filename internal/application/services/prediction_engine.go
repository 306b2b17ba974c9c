package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
)

// Multipliers applied on top of the historical profile.
const (
	weekendFactor = 1.22
	mondayFactor  = 1.12
	fridayFactor  = 1.08

	heavyTrafficFactor    = 1.18
	moderateTrafficFactor = 1.08

	stormyWeatherFactor = 1.28
	snowyWeatherFactor  = 1.25
	rainyWeatherFactor  = 1.12
	foggyWeatherFactor  = 1.10

	understaffedFactor       = 1.25
	slightlyUnderstaffFactor = 1.12
	wellStaffedFactor        = 0.92

	peakHoursFactor = 1.15
	eventsFactor    = 1.30

	baseConfidence         = 0.90
	maxDistancePenalty     = 0.10
	distancePenaltyDivisor = 200.0
	sparseHistoryPenalty   = 0.10
	sparseHistoryVisits    = 10
	offHoursPenalty        = 0.05
)

// PredictionEngine turns a historical profile plus the live signal into a
// bounded, explained estimate. It keeps no state besides its clock.
type PredictionEngine struct {
	clock providers.Clock
}

// NewPredictionEngine creates a prediction engine.
func NewPredictionEngine(clock providers.Clock) *PredictionEngine {
	if clock == nil {
		clock = providers.SystemClock{}
	}
	return &PredictionEngine{clock: clock}
}

// Predict estimates the wait at one hospital. A nil signal is replaced by a
// neutral signal taken from the engine clock. Unknown urgency labels fall back
// to the overall average.
func (e *PredictionEngine) Predict(profile *entities.HospitalProfile, urgency entities.Urgency, signal *entities.ContextualSignal, distanceKm float64) *entities.PredictionResult {
	if signal == nil {
		signal = TemporalSignal(e.clock.Now())
	}

	factors := entities.PredictionFactors{
		BaseWaitTime:    BaseWaitTime(profile, urgency),
		TimeOfDayFactor: relativeFactor(profile.AverageWaitTimes.ByTimeOfDay[signal.TimeOfDay], profile.AverageWaitTimes.Overall),
		SeasonFactor:    relativeFactor(profile.AverageWaitTimes.BySeason[signal.Season], profile.AverageWaitTimes.Overall),
		DayOfWeekFactor: dayOfWeekFactor(signal),
		TrafficFactor:   trafficFactor(signal.Traffic),
		WeatherFactor:   weatherFactor(signal.Weather),
		StaffingFactor:  staffingFactor(profile.NurseToPatientRatio),
		PeakHoursFactor: 1.0,
		EventsFactor:    1.0,
	}
	if isPeakHour(signal.Hour) {
		factors.PeakHoursFactor = peakHoursFactor
	}
	if signal.HasEvents() {
		factors.EventsFactor = eventsFactor
	}
	factors.OtherFactors = explainFactors(factors, signal)

	raw := factors.BaseWaitTime *
		factors.TimeOfDayFactor *
		factors.SeasonFactor *
		factors.DayOfWeekFactor *
		factors.TrafficFactor *
		factors.WeatherFactor *
		factors.StaffingFactor *
		factors.PeakHoursFactor *
		factors.EventsFactor

	return &entities.PredictionResult{
		PredictedWaitTime: BoundWaitTime(raw),
		ConfidenceScore:   Confidence(profile.VisitCount, distanceKm, signal.Hour),
		Factors:           factors,
		Source:            entities.PredictionSourceFormula,
	}
}

// BaseWaitTime is the urgency bucket average, or the overall average when the
// urgency label is not recognised.
func BaseWaitTime(profile *entities.HospitalProfile, urgency entities.Urgency) float64 {
	if parsed, ok := entities.ParseUrgency(string(urgency)); ok {
		return profile.AverageWaitTimes.ByUrgency[parsed]
	}
	return profile.AverageWaitTimes.Overall
}

// BoundWaitTime clamps a raw estimate to [5,240] minutes and rounds it to the
// nearest multiple of 5.
func BoundWaitTime(raw float64) int {
	if math.IsNaN(raw) {
		raw = entities.MinPredictedWaitTime
	}
	clamped := math.Max(entities.MinPredictedWaitTime, math.Min(entities.MaxPredictedWaitTime, raw))
	return int(math.Round(clamped/entities.WaitTimeStep) * entities.WaitTimeStep)
}

// Confidence scores how much the estimate can be trusted given distance,
// the size of the history and the hour of the request.
func Confidence(visitCount int, distanceKm float64, hour int) float64 {
	score := baseConfidence
	if distanceKm > 0 {
		score -= math.Min(maxDistancePenalty, distanceKm/distancePenaltyDivisor)
	}
	if visitCount < sparseHistoryVisits {
		score -= sparseHistoryPenalty
	}
	if hour < 6 || hour > 22 {
		score -= offHoursPenalty
	}
	return ClampConfidence(score)
}

// ClampConfidence bounds a confidence score to [0.50,0.95].
func ClampConfidence(score float64) float64 {
	if math.IsNaN(score) {
		return entities.MinConfidenceScore
	}
	return math.Max(entities.MinConfidenceScore, math.Min(entities.MaxConfidenceScore, score))
}

// relativeFactor is bucket/overall, or 1.0 when the profile has no overall average.
func relativeFactor(bucket, overall float64) float64 {
	if overall <= 0 {
		return 1.0
	}
	return bucket / overall
}

func dayOfWeekFactor(signal *entities.ContextualSignal) float64 {
	if signal.IsWeekend {
		return weekendFactor
	}
	switch signal.DayOfWeek {
	case time.Monday:
		return mondayFactor
	case time.Friday:
		return fridayFactor
	}
	return 1.0
}

func trafficFactor(traffic entities.TrafficCondition) float64 {
	switch traffic {
	case entities.TrafficHeavy:
		return heavyTrafficFactor
	case entities.TrafficModerate:
		return moderateTrafficFactor
	}
	return 1.0
}

func weatherFactor(weather entities.WeatherCondition) float64 {
	switch weather {
	case entities.WeatherStormy:
		return stormyWeatherFactor
	case entities.WeatherSnowy:
		return snowyWeatherFactor
	case entities.WeatherRainy:
		return rainyWeatherFactor
	case entities.WeatherFoggy:
		return foggyWeatherFactor
	}
	return 1.0
}

func staffingFactor(ratio float64) float64 {
	switch {
	case ratio < 0.20:
		return understaffedFactor
	case ratio < 0.25:
		return slightlyUnderstaffFactor
	case ratio > 0.35:
		return wellStaffedFactor
	}
	return 1.0
}

func isPeakHour(hour int) bool {
	return (hour >= 7 && hour <= 10) || (hour >= 17 && hour <= 20)
}

// explainFactors renders every non-neutral factor as a short phrase.
func explainFactors(f entities.PredictionFactors, signal *entities.ContextualSignal) []string {
	out := []string{}

	if f.TrafficFactor != 1.0 {
		out = append(out, fmt.Sprintf("%s traffic (%s)", signal.Traffic, percentChange(f.TrafficFactor)))
	}
	if f.WeatherFactor != 1.0 {
		out = append(out, fmt.Sprintf("%s weather (%s)", signal.Weather, percentChange(f.WeatherFactor)))
	}
	if f.EventsFactor != 1.0 {
		out = append(out, fmt.Sprintf("Local events: %s (%s)", strings.Join(signal.Events, ", "), percentChange(f.EventsFactor)))
	}
	if f.DayOfWeekFactor != 1.0 {
		label := "Weekend"
		if !signal.IsWeekend {
			label = signal.DayOfWeek.String()
		}
		out = append(out, fmt.Sprintf("%s volume (%s)", label, percentChange(f.DayOfWeekFactor)))
	}
	if f.StaffingFactor != 1.0 {
		out = append(out, fmt.Sprintf("Staffing level (%s)", percentChange(f.StaffingFactor)))
	}
	if f.PeakHoursFactor != 1.0 {
		out = append(out, fmt.Sprintf("Peak hours (%s)", percentChange(f.PeakHoursFactor)))
	}
	if f.TimeOfDayFactor != 1.0 {
		out = append(out, fmt.Sprintf("%s historical pattern (%s)", signal.TimeOfDay, percentChange(f.TimeOfDayFactor)))
	}
	if f.SeasonFactor != 1.0 {
		out = append(out, fmt.Sprintf("%s seasonal pattern (%s)", signal.Season, percentChange(f.SeasonFactor)))
	}

	return out
}

func percentChange(factor float64) string {
	pct := math.Round((factor - 1) * 100)
	if pct == 0 {
		// math.Round(-0.4) is -0
		pct = 0
	}
	return fmt.Sprintf("%+.0f%%", pct)
}
