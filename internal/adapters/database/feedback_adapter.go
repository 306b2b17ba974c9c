package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

// FeedbackAdapter implements feedback persistence in Postgres.
type FeedbackAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFeedbackAdapter creates a new feedback adapter.
func NewFeedbackAdapter(client *postgres.Client) repositories.FeedbackRepository {
	return &FeedbackAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create inserts a feedback record.
func (a *FeedbackAdapter) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback == nil {
		return apperrors.NewInternalError("feedback is nil", fmt.Errorf("feedback is nil"))
	}

	waitTime := sql.NullInt64{}
	if feedback.ActualWaitTime != nil {
		waitTime = sql.NullInt64{Int64: int64(*feedback.ActualWaitTime), Valid: true}
	}

	record := goqu.Record{
		"id":               feedback.ID,
		"hospital_id":      feedback.HospitalID,
		"hospital_name":    feedback.HospitalName,
		"report_type":      feedback.ReportType,
		"actual_wait_time": waitTime,
		"comments":         sql.NullString{String: feedback.Comments, Valid: feedback.Comments != ""},
		"reported_at":      feedback.ReportedAt,
		"user_agent":       sql.NullString{String: feedback.UserAgent, Valid: feedback.UserAgent != ""},
		"created_at":       feedback.CreatedAt,
	}

	query, args, err := a.db.Insert(feedbackTable).Rows(record).Prepared(true).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build feedback insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create feedback", err)
	}

	return nil
}

// Count returns the total number of reports and those created at or after since.
func (a *FeedbackAdapter) Count(ctx context.Context, since time.Time) (int, int, error) {
	query, args, err := a.db.From(feedbackTable).
		Select(
			goqu.COUNT(goqu.Star()),
			goqu.L("COUNT(*) FILTER (WHERE created_at >= ?)", since),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, 0, apperrors.NewInternalError("failed to build feedback count query", err)
	}

	var total, recent int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&total, &recent); err != nil {
		return 0, 0, apperrors.NewInternalError("failed to count feedback", err)
	}
	return total, recent, nil
}
