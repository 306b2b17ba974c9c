package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

func TestSimulatedProvider_NeverReportsWhenProbabilityZero(t *testing.T) {
	p := NewSimulatedProvider(0, 42)

	for i := 0; i < 50; i++ {
		report, err := p.LocalEvents(context.Background(), entities.GeoCoordinate{Latitude: 1, Longitude: 1}, time.Now())
		require.NoError(t, err)
		assert.NotNil(t, report.Names)
		assert.Empty(t, report.Names)
		assert.Equal(t, entities.ProvenanceSimulated, report.Provenance)
	}
}

func TestSimulatedProvider_ReportsDistinctCatalogEvents(t *testing.T) {
	p := NewSimulatedProvider(1, 7)

	for i := 0; i < 50; i++ {
		report, err := p.LocalEvents(context.Background(), entities.GeoCoordinate{Latitude: 1, Longitude: 1}, time.Now())
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(report.Names), 1)
		require.LessOrEqual(t, len(report.Names), 2)
		if len(report.Names) == 2 {
			assert.NotEqual(t, report.Names[0], report.Names[1])
		}
		for _, name := range report.Names {
			assert.Contains(t, eventCatalog, name)
		}
	}
}

func TestSimulatedProvider_SameSeedSameSequence(t *testing.T) {
	a := NewSimulatedProvider(0.5, 99)
	b := NewSimulatedProvider(0.5, 99)

	for i := 0; i < 20; i++ {
		ra, _ := a.LocalEvents(context.Background(), entities.GeoCoordinate{}, time.Time{})
		rb, _ := b.LocalEvents(context.Background(), entities.GeoCoordinate{}, time.Time{})
		assert.Equal(t, ra.Names, rb.Names)
	}
}

func TestSimulatedProvider_HonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSimulatedProvider(1, 1).LocalEvents(ctx, entities.GeoCoordinate{}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
