package entities

import "time"

// Bounds of every published prediction.
const (
	MinPredictedWaitTime = 5
	MaxPredictedWaitTime = 240
	WaitTimeStep         = 5
	MinConfidenceScore   = 0.50
	MaxConfidenceScore   = 0.95
)

// PredictionSource tags which path produced a prediction.
type PredictionSource string

const (
	PredictionSourceFormula PredictionSource = "formula"
	PredictionSourceAI      PredictionSource = "ai"
)

// PredictionFactors is the numeric breakdown behind a prediction plus the
// human readable explanation of every non-neutral factor.
type PredictionFactors struct {
	BaseWaitTime    float64  `json:"baseWaitTime"`
	TimeOfDayFactor float64  `json:"timeOfDayFactor"`
	SeasonFactor    float64  `json:"seasonFactor"`
	DayOfWeekFactor float64  `json:"dayOfWeekFactor"`
	TrafficFactor   float64  `json:"trafficFactor"`
	WeatherFactor   float64  `json:"weatherFactor"`
	StaffingFactor  float64  `json:"staffingFactor"`
	PeakHoursFactor float64  `json:"peakHoursFactor"`
	EventsFactor    float64  `json:"eventsFactor"`
	OtherFactors    []string `json:"otherFactors"`
}

// PredictionResult is the bounded estimate for one hospital.
type PredictionResult struct {
	PredictedWaitTime int               `json:"predictedWaitTime"`
	ConfidenceScore   float64           `json:"confidenceScore"`
	Factors           PredictionFactors `json:"factors"`
	Source            PredictionSource  `json:"source"`
}

// HospitalPrediction is one entry of the prediction response.
type HospitalPrediction struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Region              string            `json:"region"`
	Distance            float64           `json:"distance"`
	FacilitySize        int               `json:"facilitySize"`
	NurseToPatientRatio float64           `json:"nurseToPatientRatio"`
	PatientSatisfaction float64           `json:"patientSatisfaction"`
	HistoricalWaitTime  float64           `json:"historicalWaitTime"`
	Coordinates         *MapCoordinates   `json:"coordinates,omitempty"`
	Prediction          *PredictionResult `json:"prediction"`
}

// ContextualFactors describes the live signals actually used for a response.
type ContextualFactors struct {
	TrafficCondition TrafficCondition `json:"trafficCondition"`
	TrafficSource    Provenance       `json:"trafficSource"`
	WeatherCondition WeatherCondition `json:"weatherCondition"`
	WeatherSource    Provenance       `json:"weatherSource"`
	LocalEvents      []string         `json:"localEvents"`
	EventsSource     Provenance       `json:"eventsSource"`
	UrgencyLevel     Urgency          `json:"urgencyLevel"`
	TimeOfDay        TimeOfDay        `json:"timeOfDay"`
	Season           Season           `json:"season"`
	IsWeekend        bool             `json:"isWeekend"`
	ResolvedAt       time.Time        `json:"resolvedAt"`
}

// WaitTimeEstimate is the full prediction response.
type WaitTimeEstimate struct {
	Hospitals         []*HospitalPrediction `json:"hospitals"`
	ContextualFactors ContextualFactors     `json:"contextualFactors"`
}

// NearbyHospital is an entry of the lightweight hospital directory.
type NearbyHospital struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	Region                 string          `json:"region"`
	Distance               float64         `json:"distance"`
	FacilitySize           int             `json:"facilitySize"`
	NurseToPatientRatio    float64         `json:"nurseToPatientRatio"`
	SpecialistAvailability float64         `json:"specialistAvailability"`
	PatientSatisfaction    float64         `json:"patientSatisfaction"`
	EstimatedWaitTime      int             `json:"estimatedWaitTime"`
	HistoricalWaitTime     float64         `json:"historicalWaitTime"`
	Coordinates            *MapCoordinates `json:"coordinates,omitempty"`
}

// DirectoryMetadata describes the buckets used for directory estimates.
type DirectoryMetadata struct {
	TimeOfDay    TimeOfDay `json:"timeOfDay"`
	Season       Season    `json:"season"`
	UrgencyLevel Urgency   `json:"urgencyLevel"`
}

// HospitalDirectory is the nearest-hospitals listing.
type HospitalDirectory struct {
	Hospitals []*NearbyHospital `json:"hospitals"`
	Metadata  DirectoryMetadata `json:"metadata"`
}
