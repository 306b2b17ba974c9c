package services

import (
	"fmt"
	"strings"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

const aiSystemPrompt = "You are an expert system for predicting emergency room wait times. " +
	"Respond ONLY with valid JSON matching the requested schema. No markdown, no explanations."

// buildPredictionPrompt encodes the same inputs the formula uses.
func buildPredictionPrompt(profile *entities.HospitalProfile, urgency entities.Urgency, signal *entities.ContextualSignal, distanceKm float64) string {
	avg := profile.AverageWaitTimes
	var b strings.Builder

	b.WriteString("## HOSPITAL PROFILE\n")
	fmt.Fprintf(&b, "Facility: %s\n", profile.Name)
	fmt.Fprintf(&b, "Location: %s\n", profile.Region)
	fmt.Fprintf(&b, "Capacity: %d beds\n", profile.FacilitySize)
	fmt.Fprintf(&b, "Staffing ratio: %.2f nurses per patient (%s)\n", profile.NurseToPatientRatio, staffingLabel(profile.NurseToPatientRatio))
	fmt.Fprintf(&b, "Specialist availability: %.2f\n", profile.SpecialistAvailability)
	fmt.Fprintf(&b, "Patient satisfaction: %.1f\n", profile.PatientSatisfaction)
	fmt.Fprintf(&b, "Historical visits analysed: %d\n", profile.VisitCount)
	if distanceKm < SentinelDistanceKm {
		fmt.Fprintf(&b, "Distance from patient: %.1f km\n", distanceKm)
	}

	b.WriteString("\n## HISTORICAL PATTERNS (minutes)\n")
	fmt.Fprintf(&b, "Baseline average: %.0f\n", avg.Overall)
	for _, u := range entities.Urgencies() {
		fmt.Fprintf(&b, "%s urgency: %.0f\n", u, avg.ByUrgency[u])
	}
	for _, t := range entities.TimesOfDay() {
		fmt.Fprintf(&b, "%s period: %.0f\n", t, avg.ByTimeOfDay[t])
	}
	for _, s := range entities.Seasons() {
		fmt.Fprintf(&b, "%s season: %.0f\n", s, avg.BySeason[s])
	}

	b.WriteString("\n## REAL-TIME CONTEXT\n")
	fmt.Fprintf(&b, "Requested urgency: %s\n", urgency)
	fmt.Fprintf(&b, "Day: %s (weekend: %t)\n", signal.DayOfWeek, signal.IsWeekend)
	fmt.Fprintf(&b, "Hour: %d (peak hours: %t)\n", signal.Hour, isPeakHour(signal.Hour))
	fmt.Fprintf(&b, "Time period: %s\n", signal.TimeOfDay)
	fmt.Fprintf(&b, "Season: %s\n", signal.Season)
	fmt.Fprintf(&b, "Traffic: %s (%s)\n", signal.Traffic, signal.TrafficSource)
	fmt.Fprintf(&b, "Weather: %s (%s)\n", signal.Weather, signal.WeatherSource)
	if signal.HasEvents() {
		fmt.Fprintf(&b, "Local events: %s (%s)\n", strings.Join(signal.Events, ", "), signal.EventsSource)
	} else {
		b.WriteString("Local events: none\n")
	}

	b.WriteString(`
## TASK
Start from the urgency specific historical average, apply time of day and seasonal multipliers, then staffing,
traffic, weather, weekend and local event effects. The wait must be between 5 and 240 minutes and the
confidence between 0.50 and 0.95.

Output format (JSON only):
{
  "predictedWaitTime": <integer minutes>,
  "confidenceScore": <0.50-0.95>,
  "factors": {
    "baseWaitTime": <number>,
    "timeOfDayFactor": <multiplier>,
    "seasonFactor": <multiplier>,
    "dayOfWeekFactor": <multiplier>,
    "trafficFactor": <multiplier>,
    "weatherFactor": <multiplier>,
    "otherFactors": [<short impact descriptions>]
  }
}
`)
	return b.String()
}

func staffingLabel(ratio float64) string {
	switch {
	case ratio < 0.20:
		return "understaffed"
	case ratio > 0.35:
		return "well staffed"
	}
	return "adequate"
}
