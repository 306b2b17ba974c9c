package entities

import (
	"fmt"
	"math"
	"strings"
)

// AverageWaitTimes holds the historical mean total wait, overall and per bucket.
// Every bucket is present; a bucket without visits is 0.
type AverageWaitTimes struct {
	Overall     float64               `json:"overall"`
	ByUrgency   map[Urgency]float64   `json:"byUrgency"`
	ByTimeOfDay map[TimeOfDay]float64 `json:"byTimeOfDay"`
	BySeason    map[Season]float64    `json:"bySeason"`
}

// NewAverageWaitTimes returns averages with every bucket initialised to 0.
func NewAverageWaitTimes() AverageWaitTimes {
	a := AverageWaitTimes{}
	a.fillMissing()
	return a
}

func (a *AverageWaitTimes) fillMissing() {
	if a.ByUrgency == nil {
		a.ByUrgency = make(map[Urgency]float64, 4)
	}
	for _, u := range Urgencies() {
		if _, ok := a.ByUrgency[u]; !ok {
			a.ByUrgency[u] = 0
		}
	}
	if a.ByTimeOfDay == nil {
		a.ByTimeOfDay = make(map[TimeOfDay]float64, 5)
	}
	for _, t := range TimesOfDay() {
		if _, ok := a.ByTimeOfDay[t]; !ok {
			a.ByTimeOfDay[t] = 0
		}
	}
	if a.BySeason == nil {
		a.BySeason = make(map[Season]float64, 4)
	}
	for _, s := range Seasons() {
		if _, ok := a.BySeason[s]; !ok {
			a.BySeason[s] = 0
		}
	}
}

// HospitalProfile is the aggregated historical profile of one facility.
// Profiles are built once per engineering run and are read-only while serving.
type HospitalProfile struct {
	ID                     string           `json:"id"`
	Name                   string           `json:"name"`
	Region                 string           `json:"region"`
	FacilitySize           int              `json:"facilitySize"`
	AverageWaitTimes       AverageWaitTimes `json:"averageWaitTimes"`
	NurseToPatientRatio    float64          `json:"nurseToPatientRatio"`
	SpecialistAvailability float64          `json:"specialistAvailability"`
	PatientSatisfaction    float64          `json:"patientSatisfaction"`
	VisitCount             int              `json:"visitCount"`
	EmptyBuckets           []string         `json:"emptyBuckets,omitempty"`
}

// Normalize fills in buckets missing from externally produced profiles.
func (p *HospitalProfile) Normalize() {
	p.AverageWaitTimes.fillMissing()
}

// Validate checks the required fields and the non-negative average invariant.
func (p *HospitalProfile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile %s: name is required", p.ID)
	}
	if p.VisitCount < 0 {
		return fmt.Errorf("profile %s: visit count must not be negative", p.ID)
	}

	check := func(label string, value float64) error {
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			return fmt.Errorf("profile %s: %s must be a non-negative number, got %v", p.ID, label, value)
		}
		return nil
	}

	if err := check("overall average", p.AverageWaitTimes.Overall); err != nil {
		return err
	}
	for k, v := range p.AverageWaitTimes.ByUrgency {
		if err := check("urgency "+string(k)+" average", v); err != nil {
			return err
		}
	}
	for k, v := range p.AverageWaitTimes.ByTimeOfDay {
		if err := check("time of day "+string(k)+" average", v); err != nil {
			return err
		}
	}
	for k, v := range p.AverageWaitTimes.BySeason {
		if err := check("season "+string(k)+" average", v); err != nil {
			return err
		}
	}
	if err := check("nurse-to-patient ratio", p.NurseToPatientRatio); err != nil {
		return err
	}
	if err := check("specialist availability", p.SpecialistAvailability); err != nil {
		return err
	}
	return check("patient satisfaction", p.PatientSatisfaction)
}

// RegionKey is the portion of the region before the first comma, trimmed.
func (p *HospitalProfile) RegionKey() string {
	return RegionKey(p.Region)
}

// RegionKey groups "San Diego, CA" and "San Diego, California" together.
func RegionKey(region string) string {
	if idx := strings.Index(region, ","); idx >= 0 {
		return strings.TrimSpace(region[:idx])
	}
	return strings.TrimSpace(region)
}
