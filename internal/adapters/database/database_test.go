package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

func newMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientFromDB(db), mock
}

var profileColumns = []string{
	"id", "name", "region", "facility_size", "average_wait_times",
	"nurse_to_patient_ratio", "specialist_availability", "patient_satisfaction",
	"visit_count", "empty_buckets",
}

func TestProfileAdapter_LoadProfiles(t *testing.T) {
	client, mock := newMockClient(t)
	averages := `{"overall":80,"byUrgency":{"Critical":20,"High":50,"Medium":90,"Low":130},` +
		`"byTimeOfDay":{"Afternoon":85},"bySeason":{"Summer":75}}`

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "name", "region"`)).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("HOSP-1", "Mercy General", "San Diego, CA", 120, []byte(averages), 0.25, 4.0, 3.8, 240, []byte(`["bySeason.Winter"]`)))

	profiles, err := NewProfileAdapter(client).LoadProfiles(context.Background())

	require.NoError(t, err)
	require.Len(t, profiles, 1)
	p := profiles[0]
	assert.Equal(t, "Mercy General", p.Name)
	assert.Equal(t, 80.0, p.AverageWaitTimes.Overall)
	assert.Equal(t, 20.0, p.AverageWaitTimes.ByUrgency[entities.UrgencyCritical])
	assert.Equal(t, 85.0, p.AverageWaitTimes.ByTimeOfDay[entities.TimeOfDayAfternoon])
	assert.Equal(t, []string{"bySeason.Winter"}, p.EmptyBuckets)
	assert.Equal(t, 240, p.VisitCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileAdapter_LoadProfilesMalformedAverages(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow("HOSP-1", "Mercy", "", 0, []byte(`{`), 0.0, 0.0, 0.0, 0, []byte(`[]`)))

	_, err := NewProfileAdapter(client).LoadProfiles(context.Background())

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestProfileAdapter_ReplaceProfiles(t *testing.T) {
	client, mock := newMockClient(t)
	profile := &entities.HospitalProfile{ID: "HOSP-1", Name: "Mercy", AverageWaitTimes: entities.NewAverageWaitTimes()}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "hospital_profiles"`)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "hospital_profiles"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewProfileAdapter(client).ReplaceProfiles(context.Background(), []*entities.HospitalProfile{profile})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileAdapter_ReplaceProfilesRollsBackOnInsertFailure(t *testing.T) {
	client, mock := newMockClient(t)
	profile := &entities.HospitalProfile{ID: "HOSP-1", Name: "Mercy", AverageWaitTimes: entities.NewAverageWaitTimes()}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO`).WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	err := NewProfileAdapter(client).ReplaceProfiles(context.Background(), []*entities.HospitalProfile{profile})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCoordinateAdapter_LoadCoordinates(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "hospital_id", "latitude", "longitude" FROM "hospital_coordinates"`)).
		WillReturnRows(sqlmock.NewRows([]string{"hospital_id", "latitude", "longitude"}).
			AddRow("HOSP-1", 37.7749, -122.4194).
			AddRow("HOSP-2", 34.0522, -118.2437))

	coords, err := NewCoordinateAdapter(client).LoadCoordinates(context.Background())

	require.NoError(t, err)
	assert.Len(t, coords, 2)
	assert.Equal(t, entities.GeoCoordinate{Latitude: 34.0522, Longitude: -118.2437}, coords["HOSP-2"])
}

func TestCoordinateAdapter_ReplaceEmptyOnlyClears(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "hospital_coordinates"`)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := NewCoordinateAdapter(client).ReplaceCoordinates(context.Background(), nil)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackAdapter_Create(t *testing.T) {
	client, mock := newMockClient(t)
	wait := 40
	now := time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "feedback"`)).WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewFeedbackAdapter(client).Create(context.Background(), &entities.Feedback{
		ID:             "f-1",
		HospitalID:     "HOSP-1",
		ReportType:     "wait_time",
		ActualWaitTime: &wait,
		ReportedAt:     now,
		CreatedAt:      now,
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackAdapter_Count(t *testing.T) {
	client, mock := newMockClient(t)
	since := time.Date(2024, time.June, 11, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FILTER (WHERE created_at >= $1)`)).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count", "recent"}).AddRow(12, 3))

	total, recent, err := NewFeedbackAdapter(client).Count(context.Background(), since)

	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Equal(t, 3, recent)
}

func TestFeedbackAdapter_CountError(t *testing.T) {
	client, mock := newMockClient(t)
	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection refused"))

	_, _, err := NewFeedbackAdapter(client).Count(context.Background(), time.Now())

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}
