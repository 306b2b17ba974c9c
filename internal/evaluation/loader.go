package evaluation

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/zatekoja/erwaittime/internal/adapters/ingestion"
	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

// LoadVisits reads a visit CSV export. Rows that fail to parse are returned
// separately and never replayed.
func LoadVisits(ctx context.Context, path string) ([]*entities.VisitRecord, []entities.QuarantinedRecord, error) {
	result, err := ingestion.NewCSVVisitReader().ReadFile(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read visits file: %w", err)
	}
	return result.Records, result.Quarantined, nil
}

// SplitHoldout partitions visits into training and held-out sets. The split
// is keyed on the visit id so the same record always lands on the same side.
// A fraction outside (0,1) holds out nothing.
func SplitHoldout(visits []*entities.VisitRecord, fraction float64) (train, holdout []*entities.VisitRecord) {
	if fraction <= 0 || fraction >= 1 {
		return visits, nil
	}
	threshold := uint32(fraction * float64(^uint32(0)))
	for _, v := range visits {
		h := fnv.New32a()
		_, _ = h.Write([]byte(v.HospitalID + "/" + v.VisitID))
		if h.Sum32() < threshold {
			holdout = append(holdout, v)
		} else {
			train = append(train, v)
		}
	}
	return train, holdout
}
