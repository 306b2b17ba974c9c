package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
	"github.com/zatekoja/erwaittime/internal/infrastructure/observability"
)

const (
	defaultAITimeout = 8 * time.Second
	aiTemperature    = 0.3
	aiMaxTokens      = 1024
)

// Reasons an AI prediction was replaced by the formula.
const (
	FallbackReasonTimeout       = "timeout"
	FallbackReasonProviderError = "provider_error"
	FallbackReasonInvalidJSON   = "invalid_json"
	FallbackReasonSchema        = "schema_mismatch"
)

// Predictor produces a prediction for one hospital.
type Predictor interface {
	Predict(ctx context.Context, profile *entities.HospitalProfile, urgency entities.Urgency, signal *entities.ContextualSignal, distanceKm float64) *entities.PredictionResult
}

// FormulaPredictor adapts the PredictionEngine to the Predictor interface.
type FormulaPredictor struct {
	engine *PredictionEngine
}

// NewFormulaPredictor creates a predictor that only uses the formula.
func NewFormulaPredictor(engine *PredictionEngine) *FormulaPredictor {
	return &FormulaPredictor{engine: engine}
}

// Predict implements Predictor.
func (p *FormulaPredictor) Predict(_ context.Context, profile *entities.HospitalProfile, urgency entities.Urgency, signal *entities.ContextualSignal, distanceKm float64) *entities.PredictionResult {
	observability.CountPrediction(string(entities.PredictionSourceFormula))
	return p.engine.Predict(profile, urgency, signal, distanceKm)
}

// AIPredictionService asks a generative text provider for the estimate and
// falls back to the formula on any failure.
type AIPredictionService struct {
	provider providers.TextGenerationProvider
	engine   *PredictionEngine
	timeout  time.Duration
}

// NewAIPredictionService creates the generative prediction path.
func NewAIPredictionService(provider providers.TextGenerationProvider, engine *PredictionEngine, timeout time.Duration) *AIPredictionService {
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	return &AIPredictionService{
		provider: provider,
		engine:   engine,
		timeout:  timeout,
	}
}

// aiPrediction is the schema requested from the model.
type aiPrediction struct {
	PredictedWaitTime *float64 `json:"predictedWaitTime"`
	ConfidenceScore   *float64 `json:"confidenceScore"`
	Factors           *struct {
		BaseWaitTime    *float64 `json:"baseWaitTime"`
		TimeOfDayFactor *float64 `json:"timeOfDayFactor"`
		SeasonFactor    *float64 `json:"seasonFactor"`
		DayOfWeekFactor *float64 `json:"dayOfWeekFactor"`
		TrafficFactor   *float64 `json:"trafficFactor"`
		WeatherFactor   *float64 `json:"weatherFactor"`
		OtherFactors    []string `json:"otherFactors"`
	} `json:"factors"`
}

// errInvalidJSON marks output that could not be decoded at all.
var errInvalidJSON = errors.New("model output is not valid JSON")

// Predict implements Predictor. The formula result is always computed so that
// a fallback never needs a second pass.
func (s *AIPredictionService) Predict(ctx context.Context, profile *entities.HospitalProfile, urgency entities.Urgency, signal *entities.ContextualSignal, distanceKm float64) *entities.PredictionResult {
	formula := s.engine.Predict(profile, urgency, signal, distanceKm)
	if s.provider == nil {
		return formula
	}
	if signal == nil {
		signal = TemporalSignal(s.engine.clock.Now())
	}

	ctx, span := observability.StartSpan(ctx, "AIPredictionService.Predict")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.provider.Generate(callCtx, providers.TextGenerationRequest{
		SystemPrompt: aiSystemPrompt,
		UserPrompt:   buildPredictionPrompt(profile, urgency, signal, distanceKm),
		Temperature:  aiTemperature,
		MaxTokens:    aiMaxTokens,
	})
	if err != nil {
		reason := FallbackReasonProviderError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			reason = FallbackReasonTimeout
		}
		return s.fallback(formula, profile.ID, reason, err)
	}

	result, err := ParseAIPrediction(raw)
	if err != nil {
		reason := FallbackReasonSchema
		if errors.Is(err, errInvalidJSON) {
			reason = FallbackReasonInvalidJSON
		}
		return s.fallback(formula, profile.ID, reason, err)
	}

	// Rules the model does not report keep their formula values.
	result.Factors.StaffingFactor = formula.Factors.StaffingFactor
	result.Factors.PeakHoursFactor = formula.Factors.PeakHoursFactor
	result.Factors.EventsFactor = formula.Factors.EventsFactor

	observability.CountPrediction(string(entities.PredictionSourceAI))
	return result
}

func (s *AIPredictionService) fallback(formula *entities.PredictionResult, hospitalID, reason string, err error) *entities.PredictionResult {
	log.Warn().
		Err(err).
		Str("provider", s.provider.Name()).
		Str("hospital_id", hospitalID).
		Str("reason", reason).
		Msg("AI prediction rejected, using formula")
	observability.CountAIFallback(s.provider.Name(), reason)
	observability.CountPrediction(string(entities.PredictionSourceFormula))
	return formula
}

// ParseAIPrediction decodes and validates model output. Markdown code fences
// around the JSON are tolerated.
func ParseAIPrediction(raw string) (*entities.PredictionResult, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", errInvalidJSON)
	}

	var parsed aiPrediction
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}

	if parsed.PredictedWaitTime == nil {
		return nil, errors.New("predictedWaitTime is missing")
	}
	wait := *parsed.PredictedWaitTime
	if !finite(wait) || wait < entities.MinPredictedWaitTime || wait > entities.MaxPredictedWaitTime {
		return nil, fmt.Errorf("predictedWaitTime %v outside [%d,%d]", wait, entities.MinPredictedWaitTime, entities.MaxPredictedWaitTime)
	}

	if parsed.ConfidenceScore == nil {
		return nil, errors.New("confidenceScore is missing")
	}
	confidence := *parsed.ConfidenceScore
	if !finite(confidence) || confidence < entities.MinConfidenceScore || confidence > entities.MaxConfidenceScore {
		return nil, fmt.Errorf("confidenceScore %v outside [%.2f,%.2f]", confidence, entities.MinConfidenceScore, entities.MaxConfidenceScore)
	}

	if parsed.Factors == nil {
		return nil, errors.New("factors are missing")
	}
	f := parsed.Factors
	numbers := []struct {
		name  string
		value *float64
	}{
		{"baseWaitTime", f.BaseWaitTime},
		{"timeOfDayFactor", f.TimeOfDayFactor},
		{"seasonFactor", f.SeasonFactor},
		{"dayOfWeekFactor", f.DayOfWeekFactor},
		{"trafficFactor", f.TrafficFactor},
		{"weatherFactor", f.WeatherFactor},
	}
	for _, n := range numbers {
		if n.value == nil {
			return nil, fmt.Errorf("factors.%s is missing", n.name)
		}
		if !finite(*n.value) || *n.value < 0 {
			return nil, fmt.Errorf("factors.%s must be a non-negative number", n.name)
		}
	}

	explanations := make([]string, 0, len(f.OtherFactors))
	for _, s := range f.OtherFactors {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			explanations = append(explanations, trimmed)
		}
	}
	if len(explanations) == 0 {
		return nil, errors.New("factors.otherFactors must explain the estimate")
	}

	return &entities.PredictionResult{
		PredictedWaitTime: BoundWaitTime(wait),
		ConfidenceScore:   ClampConfidence(confidence),
		Factors: entities.PredictionFactors{
			BaseWaitTime:    *f.BaseWaitTime,
			TimeOfDayFactor: *f.TimeOfDayFactor,
			SeasonFactor:    *f.SeasonFactor,
			DayOfWeekFactor: *f.DayOfWeekFactor,
			TrafficFactor:   *f.TrafficFactor,
			WeatherFactor:   *f.WeatherFactor,
			StaffingFactor:  1.0,
			PeakHoursFactor: 1.0,
			EventsFactor:    1.0,
			OtherFactors:    explanations,
		},
		Source: entities.PredictionSourceAI,
	}, nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
