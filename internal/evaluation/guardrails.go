package evaluation

import "fmt"

type GuardrailConfig struct {
	// MaxMAE fails the run when the overall mean absolute error exceeds it.
	MaxMAE float64
	// MinWithinTolerance fails the run when fewer predictions land within tolerance.
	MinWithinTolerance float64
	// MinEvaluated is the smallest number of replayed visits that counts as a run.
	MinEvaluated int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxMAE <= 0 {
		config.MaxMAE = 30
	}
	if config.MinEvaluated <= 0 {
		config.MinEvaluated = 1
	}
	return &Guardrails{config: config}
}

// Check records every violated guardrail on the summary and sets Passed.
func (g *Guardrails) Check(s *EvalSummary) bool {
	s.Violations = nil

	if s.Overall.Count < g.config.MinEvaluated {
		s.Violations = append(s.Violations,
			fmt.Sprintf("evaluated %d visits, need at least %d", s.Overall.Count, g.config.MinEvaluated))
	}
	if s.Overall.MAE > g.config.MaxMAE {
		s.Violations = append(s.Violations,
			fmt.Sprintf("MAE %.2f exceeds %.2f minutes", s.Overall.MAE, g.config.MaxMAE))
	}
	if g.config.MinWithinTolerance > 0 && s.Overall.WithinTolerance < g.config.MinWithinTolerance {
		s.Violations = append(s.Violations,
			fmt.Sprintf("within-tolerance share %.3f below %.3f", s.Overall.WithinTolerance, g.config.MinWithinTolerance))
	}

	s.Passed = len(s.Violations) == 0
	return s.Passed
}
