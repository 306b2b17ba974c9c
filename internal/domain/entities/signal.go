package entities

import (
	"strings"
	"time"
)

// Urgency is the caller supplied triage category.
type Urgency string

const (
	UrgencyCritical Urgency = "Critical"
	UrgencyHigh     Urgency = "High"
	UrgencyMedium   Urgency = "Medium"
	UrgencyLow      Urgency = "Low"
)

// DefaultUrgency is used when a request does not name one.
const DefaultUrgency = UrgencyMedium

// Urgencies returns the recognised urgency levels in triage order.
func Urgencies() []Urgency {
	return []Urgency{UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow}
}

// IsValid reports whether the urgency is one of the recognised levels.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyCritical, UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

// ParseUrgency matches a label case-insensitively. Unknown labels are returned
// verbatim with ok=false so the engine can apply its fallback.
func ParseUrgency(value string) (Urgency, bool) {
	trimmed := strings.TrimSpace(value)
	for _, u := range Urgencies() {
		if strings.EqualFold(trimmed, string(u)) {
			return u, true
		}
	}
	return Urgency(trimmed), false
}

// TimeOfDay is the coarse hour bucket used by the historical profiles.
type TimeOfDay string

const (
	TimeOfDayEarlyMorning TimeOfDay = "Early Morning"
	TimeOfDayLateMorning  TimeOfDay = "Late Morning"
	TimeOfDayAfternoon    TimeOfDay = "Afternoon"
	TimeOfDayEvening      TimeOfDay = "Evening"
	TimeOfDayNight        TimeOfDay = "Night"
)

// TimesOfDay returns all buckets in chronological order.
func TimesOfDay() []TimeOfDay {
	return []TimeOfDay{TimeOfDayEarlyMorning, TimeOfDayLateMorning, TimeOfDayAfternoon, TimeOfDayEvening, TimeOfDayNight}
}

// IsValid reports whether the bucket is known.
func (t TimeOfDay) IsValid() bool {
	for _, known := range TimesOfDay() {
		if t == known {
			return true
		}
	}
	return false
}

// TimeOfDayForHour maps a wall-clock hour (0-23) onto its bucket.
func TimeOfDayForHour(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 9:
		return TimeOfDayEarlyMorning
	case hour >= 9 && hour < 12:
		return TimeOfDayLateMorning
	case hour >= 12 && hour < 17:
		return TimeOfDayAfternoon
	case hour >= 17 && hour < 21:
		return TimeOfDayEvening
	default:
		return TimeOfDayNight
	}
}

// Season is the meteorological season bucket.
type Season string

const (
	SeasonWinter Season = "Winter"
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonFall   Season = "Fall"
)

// Seasons returns all seasons.
func Seasons() []Season {
	return []Season{SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall}
}

// IsValid reports whether the season is known.
func (s Season) IsValid() bool {
	switch s {
	case SeasonWinter, SeasonSpring, SeasonSummer, SeasonFall:
		return true
	}
	return false
}

// SeasonForMonth maps a zero-indexed month (0 = January) onto its season.
func SeasonForMonth(month int) Season {
	switch {
	case month >= 2 && month <= 4:
		return SeasonSpring
	case month >= 5 && month <= 7:
		return SeasonSummer
	case month >= 8 && month <= 10:
		return SeasonFall
	default:
		return SeasonWinter
	}
}

// SeasonForTime returns the season of the given instant.
func SeasonForTime(t time.Time) Season {
	return SeasonForMonth(int(t.Month()) - 1)
}

// TrafficCondition is the estimated road congestion near the caller.
type TrafficCondition string

const (
	TrafficLight    TrafficCondition = "Light"
	TrafficModerate TrafficCondition = "Moderate"
	TrafficHeavy    TrafficCondition = "Heavy"
)

// WeatherCondition is the simplified current weather near the caller.
type WeatherCondition string

const (
	WeatherClear  WeatherCondition = "Clear"
	WeatherCloudy WeatherCondition = "Cloudy"
	WeatherFoggy  WeatherCondition = "Foggy"
	WeatherRainy  WeatherCondition = "Rainy"
	WeatherSnowy  WeatherCondition = "Snowy"
	WeatherStormy WeatherCondition = "Stormy"
)

// WeatherConditionFromCode maps a WMO weather interpretation code.
func WeatherConditionFromCode(code int) WeatherCondition {
	switch {
	case code == 0:
		return WeatherClear
	case code >= 1 && code <= 3:
		return WeatherCloudy
	case code >= 45 && code <= 48:
		return WeatherFoggy
	case code >= 51 && code <= 67:
		return WeatherRainy
	case code >= 71 && code <= 86:
		return WeatherSnowy
	case code >= 95:
		return WeatherStormy
	default:
		return WeatherClear
	}
}

// Provenance tells whether a signal was observed from an authoritative source
// or produced by a heuristic or simulation.
type Provenance string

const (
	ProvenanceObserved  Provenance = "observed"
	ProvenanceSimulated Provenance = "simulated"
)

// ContextualSignal is the per-request bundle of live conditions. It is never persisted.
type ContextualSignal struct {
	ResolvedAt    time.Time        `json:"resolvedAt"`
	Hour          int              `json:"hour"`
	TimeOfDay     TimeOfDay        `json:"timeOfDay"`
	Season        Season           `json:"season"`
	DayOfWeek     time.Weekday     `json:"-"`
	IsWeekend     bool             `json:"isWeekend"`
	Traffic       TrafficCondition `json:"trafficCondition"`
	TrafficSource Provenance       `json:"trafficSource"`
	Weather       WeatherCondition `json:"weatherCondition"`
	WeatherSource Provenance       `json:"weatherSource"`
	Events        []string         `json:"localEvents"`
	EventsSource  Provenance       `json:"eventsSource"`
}

// HasEvents reports whether any local event is in effect.
func (s *ContextualSignal) HasEvents() bool {
	return len(s.Events) > 0
}

// IsWeekendDay reports whether the weekday falls on Saturday or Sunday.
func IsWeekendDay(day time.Weekday) bool {
	return day == time.Saturday || day == time.Sunday
}
