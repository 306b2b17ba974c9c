package evaluation

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MeanAbsoluteError returns the mean of |predicted - actual|.
// Mismatched or empty inputs return 0.
func MeanAbsoluteError(actual, predicted []float64) float64 {
	residuals := residuals(actual, predicted)
	if len(residuals) == 0 {
		return 0
	}
	for i, r := range residuals {
		residuals[i] = math.Abs(r)
	}
	return stat.Mean(residuals, nil)
}

// RootMeanSquaredError returns sqrt(mean((predicted - actual)^2)).
func RootMeanSquaredError(actual, predicted []float64) float64 {
	residuals := residuals(actual, predicted)
	if len(residuals) == 0 {
		return 0
	}
	for i, r := range residuals {
		residuals[i] = r * r
	}
	return math.Sqrt(stat.Mean(residuals, nil))
}

// Bias returns the mean signed error. Positive values mean the model overestimates.
func Bias(actual, predicted []float64) float64 {
	residuals := residuals(actual, predicted)
	if len(residuals) == 0 {
		return 0
	}
	return stat.Mean(residuals, nil)
}

// WithinTolerance returns the share of predictions whose absolute error is at
// most tolerance minutes.
func WithinTolerance(actual, predicted []float64, tolerance float64) float64 {
	residuals := residuals(actual, predicted)
	if len(residuals) == 0 {
		return 0
	}
	hits := 0
	for _, r := range residuals {
		if math.Abs(r) <= tolerance {
			hits++
		}
	}
	return float64(hits) / float64(len(residuals))
}

// Summarize computes every error metric for a result set.
func Summarize(results []EvalResult, tolerance float64) ErrorStats {
	actual := make([]float64, len(results))
	predicted := make([]float64, len(results))
	for i, r := range results {
		actual[i] = r.Actual
		predicted[i] = float64(r.Predicted)
	}
	return ErrorStats{
		Count:           len(results),
		MAE:             MeanAbsoluteError(actual, predicted),
		RMSE:            RootMeanSquaredError(actual, predicted),
		Bias:            Bias(actual, predicted),
		WithinTolerance: WithinTolerance(actual, predicted, tolerance),
	}
}

func residuals(actual, predicted []float64) []float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return nil
	}
	out := make([]float64, len(actual))
	for i := range actual {
		out[i] = predicted[i] - actual[i]
	}
	return out
}
