package evaluation

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// --- MeanAbsoluteError tests ---

func TestMeanAbsoluteError_Exact(t *testing.T) {
	got := MeanAbsoluteError([]float64{10, 20, 30}, []float64{10, 20, 30})
	if !almostEqual(got, 0) {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestMeanAbsoluteError_MixedSigns(t *testing.T) {
	// errors +10, -20, 0
	got := MeanAbsoluteError([]float64{50, 80, 30}, []float64{60, 60, 30})
	if !almostEqual(got, 10) {
		t.Errorf("expected 10, got %f", got)
	}
}

func TestMeanAbsoluteError_MismatchedLengths(t *testing.T) {
	got := MeanAbsoluteError([]float64{1, 2}, []float64{1})
	if !almostEqual(got, 0) {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestMeanAbsoluteError_Empty(t *testing.T) {
	got := MeanAbsoluteError(nil, nil)
	if !almostEqual(got, 0) {
		t.Errorf("expected 0, got %f", got)
	}
}

// --- RootMeanSquaredError tests ---

func TestRootMeanSquaredError(t *testing.T) {
	got := RootMeanSquaredError([]float64{50, 80, 30}, []float64{60, 60, 30})
	want := math.Sqrt(500.0 / 3.0)
	if !almostEqual(got, want) {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestRootMeanSquaredError_PenalisesLargeMisses(t *testing.T) {
	actual := []float64{0, 0}
	even := RootMeanSquaredError(actual, []float64{10, 10})
	skewed := RootMeanSquaredError(actual, []float64{0, 20})
	if !(skewed > even) {
		t.Errorf("expected skewed RMSE %f to exceed even RMSE %f", skewed, even)
	}
}

// --- Bias tests ---

func TestBias_Underestimate(t *testing.T) {
	got := Bias([]float64{50, 80, 30}, []float64{60, 60, 30})
	if !almostEqual(got, -10.0/3.0) {
		t.Errorf("expected %f, got %f", -10.0/3.0, got)
	}
}

func TestBias_Overestimate(t *testing.T) {
	got := Bias([]float64{10, 10}, []float64{20, 30})
	if !almostEqual(got, 15) {
		t.Errorf("expected 15, got %f", got)
	}
}

// --- WithinTolerance tests ---

func TestWithinTolerance_BoundaryIsInclusive(t *testing.T) {
	got := WithinTolerance([]float64{0, 0, 0, 0}, []float64{15, -15, 16, 5}, 15)
	if !almostEqual(got, 0.75) {
		t.Errorf("expected 0.75, got %f", got)
	}
}

func TestWithinTolerance_Empty(t *testing.T) {
	got := WithinTolerance(nil, nil, 15)
	if !almostEqual(got, 0) {
		t.Errorf("expected 0, got %f", got)
	}
}

// --- Summarize tests ---

func TestSummarize(t *testing.T) {
	results := []EvalResult{
		{Actual: 50, Predicted: 60},
		{Actual: 80, Predicted: 60},
		{Actual: 30, Predicted: 30},
	}
	got := Summarize(results, 15)

	if got.Count != 3 {
		t.Fatalf("expected count 3, got %d", got.Count)
	}
	if !almostEqual(got.MAE, 10) {
		t.Errorf("expected MAE 10, got %f", got.MAE)
	}
	if !almostEqual(got.WithinTolerance, 2.0/3.0) {
		t.Errorf("expected within-tolerance %f, got %f", 2.0/3.0, got.WithinTolerance)
	}
	if !almostEqual(results[1].Residual(), -20) {
		t.Errorf("expected residual -20, got %f", results[1].Residual())
	}
}
