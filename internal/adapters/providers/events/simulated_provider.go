package events

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/providers"
)

// DefaultProbability is the chance that a lookup reports any events.
const DefaultProbability = 0.3

var eventCatalog = []string{
	"Sports Game",
	"Concert",
	"Festival",
	"Marathon",
	"Convention",
}

// SimulatedProvider stands in for a real events feed. It reports one or two
// distinct events from a fixed catalog with a fixed probability and always
// tags the result as simulated.
type SimulatedProvider struct {
	mu          sync.Mutex
	rng         *rand.Rand
	probability float64
}

// NewSimulatedProvider creates a simulated provider. A seed of 0 uses the clock.
func NewSimulatedProvider(probability float64, seed int64) *SimulatedProvider {
	if probability < 0 || probability > 1 {
		probability = DefaultProbability
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedProvider{
		rng:         rand.New(rand.NewSource(seed)),
		probability: probability,
	}
}

// LocalEvents returns zero, one or two distinct event names.
func (p *SimulatedProvider) LocalEvents(ctx context.Context, point entities.GeoCoordinate, at time.Time) (*providers.EventsReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	names := []string{}
	if p.rng.Float64() < p.probability {
		count := 1 + p.rng.Intn(2)
		for _, idx := range p.rng.Perm(len(eventCatalog))[:count] {
			names = append(names, eventCatalog[idx])
		}
	}

	return &providers.EventsReport{
		Names:      names,
		Provenance: entities.ProvenanceSimulated,
	}, nil
}
