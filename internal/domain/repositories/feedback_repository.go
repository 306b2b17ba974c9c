package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

// FeedbackRepository defines the interface for feedback operations.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *entities.Feedback) error

	// Count returns the total number of reports and those created at or after since.
	Count(ctx context.Context, since time.Time) (total int, recent int, err error)
}
