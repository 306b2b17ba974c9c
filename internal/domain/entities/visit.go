package entities

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// VisitRecord is one raw emergency department visit. Records are immutable once read.
type VisitRecord struct {
	VisitID                   string    `json:"visitId"`
	HospitalID                string    `json:"hospitalId"`
	HospitalName              string    `json:"hospitalName"`
	Region                    string    `json:"region"`
	VisitDate                 time.Time `json:"visitDate"`
	DayOfWeek                 string    `json:"dayOfWeek"`
	Season                    Season    `json:"season"`
	TimeOfDay                 TimeOfDay `json:"timeOfDay"`
	Urgency                   Urgency   `json:"urgencyLevel"`
	NurseToPatientRatio       float64   `json:"nurseToPatientRatio"`
	SpecialistAvailability    float64   `json:"specialistAvailability"`
	FacilitySize              int       `json:"facilitySize"`
	TimeToRegistration        float64   `json:"timeToRegistration"`
	TimeToTriage              float64   `json:"timeToTriage"`
	TimeToMedicalProfessional float64   `json:"timeToMedicalProfessional"`
	TotalWaitTime             float64   `json:"totalWaitTime"`
	PatientOutcome            string    `json:"patientOutcome"`
	PatientSatisfaction       float64   `json:"patientSatisfaction"`
}

// Validate rejects records that would poison an aggregate.
func (v *VisitRecord) Validate() error {
	if strings.TrimSpace(v.HospitalID) == "" {
		return fmt.Errorf("hospital id is required")
	}
	if !v.Urgency.IsValid() {
		return fmt.Errorf("unknown urgency level %q", v.Urgency)
	}
	if !v.TimeOfDay.IsValid() {
		return fmt.Errorf("unknown time of day %q", v.TimeOfDay)
	}
	if !v.Season.IsValid() {
		return fmt.Errorf("unknown season %q", v.Season)
	}
	if v.FacilitySize < 0 {
		return fmt.Errorf("facility size must not be negative")
	}

	numeric := []struct {
		name  string
		value float64
	}{
		{"nurse-to-patient ratio", v.NurseToPatientRatio},
		{"specialist availability", v.SpecialistAvailability},
		{"time to registration", v.TimeToRegistration},
		{"time to triage", v.TimeToTriage},
		{"time to medical professional", v.TimeToMedicalProfessional},
		{"total wait time", v.TotalWaitTime},
		{"patient satisfaction", v.PatientSatisfaction},
	}
	for _, field := range numeric {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return fmt.Errorf("%s is not a finite number", field.name)
		}
		if field.value < 0 {
			return fmt.Errorf("%s must not be negative", field.name)
		}
	}

	return nil
}

// QuarantinedRecord describes an input row excluded from aggregation.
type QuarantinedRecord struct {
	Line       int    `json:"line,omitempty"`
	VisitID    string `json:"visitId,omitempty"`
	HospitalID string `json:"hospitalId,omitempty"`
	Reason     string `json:"reason"`
}
