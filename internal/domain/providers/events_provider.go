package providers

import (
	"context"
	"time"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

// EventsProvider defines the interface for local event lookups
type EventsProvider interface {
	// LocalEvents returns at most a couple of named events near a coordinate
	LocalEvents(ctx context.Context, point entities.GeoCoordinate, at time.Time) (*EventsReport, error)
}

// EventsReport carries event names together with how they were obtained
type EventsReport struct {
	Names      []string            `json:"names"`
	Provenance entities.Provenance `json:"provenance"`
}
