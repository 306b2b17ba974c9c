package evaluation

import (
	"context"
	"strings"
	"time"

	"github.com/zatekoja/erwaittime/internal/application/services"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

// Hours used when a visit timestamp carries no usable time of day.
var bucketHours = map[entities.TimeOfDay]int{
	entities.TimeOfDayEarlyMorning: 7,
	entities.TimeOfDayLateMorning:  10,
	entities.TimeOfDayAfternoon:    14,
	entities.TimeOfDayEvening:      19,
	entities.TimeOfDayNight:        23,
}

// Runner replays held-out visits through the prediction engine.
type Runner struct {
	engine    *services.PredictionEngine
	profiles  map[string]*entities.HospitalProfile
	tolerance float64
}

func NewRunner(engine *services.PredictionEngine, profiles []*entities.HospitalProfile, tolerance float64) *Runner {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	byID := make(map[string]*entities.HospitalProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	return &Runner{engine: engine, profiles: byID, tolerance: tolerance}
}

// Run predicts every visit at distance zero and compares the estimate with
// the recorded total wait. Visits of hospitals without a profile are counted
// but not scored.
func (r *Runner) Run(ctx context.Context, visits []*entities.VisitRecord) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalVisits: len(visits),
		Tolerance:   r.tolerance,
		ByUrgency:   make(map[entities.Urgency]ErrorStats),
	}

	results := make([]EvalResult, 0, len(visits))
	byUrgency := make(map[entities.Urgency][]EvalResult)

	for _, v := range visits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		profile, ok := r.profiles[v.HospitalID]
		if !ok {
			summary.UnknownHospital++
			continue
		}

		prediction := r.engine.Predict(profile, v.Urgency, SignalForVisit(v), 0)
		result := EvalResult{
			VisitID:    v.VisitID,
			HospitalID: v.HospitalID,
			Urgency:    v.Urgency,
			Actual:     v.TotalWaitTime,
			Predicted:  prediction.PredictedWaitTime,
		}
		results = append(results, result)
		byUrgency[v.Urgency] = append(byUrgency[v.Urgency], result)
	}

	summary.Overall = Summarize(results, r.tolerance)
	for urgency, group := range byUrgency {
		summary.ByUrgency[urgency] = Summarize(group, r.tolerance)
	}
	return summary, nil
}

// SignalForVisit rebuilds the conditions a visit happened under from its own
// buckets. Traffic, weather and events are neutral since they were never recorded.
func SignalForVisit(v *entities.VisitRecord) *entities.ContextualSignal {
	hour, ok := bucketHours[v.TimeOfDay]
	if !ok {
		hour = 12
	}
	if !v.VisitDate.IsZero() && entities.TimeOfDayForHour(v.VisitDate.Hour()) == v.TimeOfDay {
		hour = v.VisitDate.Hour()
	}

	day, ok := parseWeekday(v.DayOfWeek)
	if !ok {
		day = v.VisitDate.Weekday()
	}

	return &entities.ContextualSignal{
		ResolvedAt:    v.VisitDate,
		Hour:          hour,
		TimeOfDay:     v.TimeOfDay,
		Season:        v.Season,
		DayOfWeek:     day,
		IsWeekend:     entities.IsWeekendDay(day),
		Traffic:       entities.TrafficLight,
		TrafficSource: entities.ProvenanceSimulated,
		Weather:       entities.WeatherClear,
		WeatherSource: entities.ProvenanceSimulated,
		Events:        []string{},
		EventsSource:  entities.ProvenanceSimulated,
	}
}

func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.TrimSpace(name)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(name, d.String()) {
			return d, true
		}
	}
	return time.Sunday, false
}
