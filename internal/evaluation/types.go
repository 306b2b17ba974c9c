package evaluation

import "github.com/zatekoja/erwaittime/internal/domain/entities"

// DefaultTolerance is the absolute error, in minutes, still counted as a hit.
const DefaultTolerance = 15.0

// EvalResult holds the backtest outcome for a single held-out visit.
type EvalResult struct {
	VisitID    string           `json:"visitId"`
	HospitalID string           `json:"hospitalId"`
	Urgency    entities.Urgency `json:"urgency"`
	Actual     float64          `json:"actual"`
	Predicted  int              `json:"predicted"`
}

// Residual is the signed prediction error in minutes (positive means overestimate).
func (r EvalResult) Residual() float64 {
	return float64(r.Predicted) - r.Actual
}

// ErrorStats are the aggregate error metrics of a set of results.
type ErrorStats struct {
	Count           int     `json:"count"`
	MAE             float64 `json:"mae"`
	RMSE            float64 `json:"rmse"`
	Bias            float64 `json:"bias"`
	WithinTolerance float64 `json:"withinTolerance"`
}

// EvalSummary holds aggregate metrics across all replayed visits.
// UnknownHospital counts visits whose hospital has no profile.
type EvalSummary struct {
	TotalVisits     int                             `json:"totalVisits"`
	UnknownHospital int                             `json:"unknownHospital"`
	Quarantined     int                             `json:"quarantined"`
	Tolerance       float64                         `json:"tolerance"`
	Overall         ErrorStats                      `json:"overall"`
	ByUrgency       map[entities.Urgency]ErrorStats `json:"byUrgency"`
	Passed          bool                            `json:"passed"`
	Violations      []string                        `json:"violations,omitempty"`
}
