package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/internal/domain/repositories"
	"github.com/zatekoja/erwaittime/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/erwaittime/pkg/errors"
)

// ProfileAdapter stores hospital profiles in Postgres. Averages are kept as JSONB.
type ProfileAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProfileAdapter creates a new profile adapter.
func NewProfileAdapter(client *postgres.Client) repositories.ProfileRepository {
	return &ProfileAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// LoadProfiles returns every stored profile ordered by id.
func (a *ProfileAdapter) LoadProfiles(ctx context.Context) ([]*entities.HospitalProfile, error) {
	query, args, err := a.db.From(profilesTable).
		Select(
			"id", "name", "region", "facility_size", "average_wait_times",
			"nurse_to_patient_ratio", "specialist_availability", "patient_satisfaction",
			"visit_count", "empty_buckets",
		).
		Order(goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build profile query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load profiles", err)
	}
	defer rows.Close()

	profiles := []*entities.HospitalProfile{}
	for rows.Next() {
		var (
			p            entities.HospitalProfile
			averages     []byte
			emptyBuckets []byte
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Region, &p.FacilitySize, &averages,
			&p.NurseToPatientRatio, &p.SpecialistAvailability, &p.PatientSatisfaction,
			&p.VisitCount, &emptyBuckets,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan profile", err)
		}
		if err := json.Unmarshal(averages, &p.AverageWaitTimes); err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("profile %s has malformed averages", p.ID), err)
		}
		if len(emptyBuckets) > 0 {
			if err := json.Unmarshal(emptyBuckets, &p.EmptyBuckets); err != nil {
				return nil, apperrors.NewInternalError(fmt.Sprintf("profile %s has malformed empty buckets", p.ID), err)
			}
		}
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate profiles", err)
	}
	return profiles, nil
}

// ReplaceProfiles swaps the whole table inside one transaction.
func (a *ProfileAdapter) ReplaceProfiles(ctx context.Context, profiles []*entities.HospitalProfile) error {
	now := time.Now().UTC()
	records := make([]interface{}, 0, len(profiles))
	for _, p := range profiles {
		averages, err := json.Marshal(p.AverageWaitTimes)
		if err != nil {
			return apperrors.NewInternalError("failed to encode averages", err)
		}
		emptyBuckets := p.EmptyBuckets
		if emptyBuckets == nil {
			emptyBuckets = []string{}
		}
		buckets, err := json.Marshal(emptyBuckets)
		if err != nil {
			return apperrors.NewInternalError("failed to encode empty buckets", err)
		}
		records = append(records, goqu.Record{
			"id":                      p.ID,
			"name":                    p.Name,
			"region":                  p.Region,
			"facility_size":           p.FacilitySize,
			"average_wait_times":      string(averages),
			"nurse_to_patient_ratio":  p.NurseToPatientRatio,
			"specialist_availability": p.SpecialistAvailability,
			"patient_satisfaction":    p.PatientSatisfaction,
			"visit_count":             p.VisitCount,
			"empty_buckets":           string(buckets),
			"updated_at":              now,
		})
	}

	return replaceTable(ctx, a.client, a.db, profilesTable, records)
}

// CoordinateAdapter stores the hospital coordinate side table in Postgres.
type CoordinateAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCoordinateAdapter creates a new coordinate adapter.
func NewCoordinateAdapter(client *postgres.Client) repositories.CoordinateRepository {
	return &CoordinateAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// LoadCoordinates returns coordinates keyed by hospital id.
func (a *CoordinateAdapter) LoadCoordinates(ctx context.Context) (map[string]entities.GeoCoordinate, error) {
	query, args, err := a.db.From(coordinatesTable).Select("hospital_id", "latitude", "longitude").ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build coordinate query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load coordinates", err)
	}
	defer rows.Close()

	coords := map[string]entities.GeoCoordinate{}
	for rows.Next() {
		var id string
		var c entities.GeoCoordinate
		if err := rows.Scan(&id, &c.Latitude, &c.Longitude); err != nil {
			return nil, apperrors.NewInternalError("failed to scan coordinate", err)
		}
		coords[id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate coordinates", err)
	}
	return coords, nil
}

// ReplaceCoordinates swaps the whole table inside one transaction.
func (a *CoordinateAdapter) ReplaceCoordinates(ctx context.Context, coordinates map[string]entities.GeoCoordinate) error {
	records := make([]interface{}, 0, len(coordinates))
	for id, c := range coordinates {
		records = append(records, goqu.Record{
			"hospital_id": id,
			"latitude":    c.Latitude,
			"longitude":   c.Longitude,
		})
	}
	return replaceTable(ctx, a.client, a.db, coordinatesTable, records)
}

// replaceTable deletes every row of table and inserts records in one
// transaction, so readers never observe a partial set.
func replaceTable(ctx context.Context, client *postgres.Client, db *goqu.Database, table string, records []interface{}) error {
	tx, err := client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	deleteSQL, _, err := db.Delete(table).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := tx.ExecContext(ctx, deleteSQL); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to clear %s", table), err)
	}

	if len(records) > 0 {
		insertSQL, args, err := db.Insert(table).Rows(records...).Prepared(true).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to insert into %s", table), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}
