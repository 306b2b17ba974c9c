package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
	"github.com/zatekoja/erwaittime/pkg/retry"
)

// Column headers of the visit export.
const (
	colVisitID           = "Visit ID"
	colHospitalID        = "Hospital ID"
	colHospitalName      = "Hospital Name"
	colRegion            = "Region"
	colVisitDate         = "Visit Date"
	colDayOfWeek         = "Day of Week"
	colSeason            = "Season"
	colTimeOfDay         = "Time of Day"
	colUrgency           = "Urgency Level"
	colNurseRatio        = "Nurse-to-Patient Ratio"
	colSpecialists       = "Specialist Availability"
	colFacilitySize      = "Facility Size (Beds)"
	colRegistration      = "Time to Registration (min)"
	colTriage            = "Time to Triage (min)"
	colMedicalProfession = "Time to Medical Professional (min)"
	colTotalWait         = "Total Wait Time (min)"
	colOutcome           = "Patient Outcome"
	colSatisfaction      = "Patient Satisfaction"
)

// Columns whose values are averaged into a profile or key its buckets. The
// per-stage times are informational and may be absent.
var requiredColumns = []string{
	colHospitalID, colUrgency, colTimeOfDay, colSeason,
	colNurseRatio, colSpecialists, colTotalWait, colSatisfaction,
}

var visitDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
}

// ReadResult holds the parsed rows and the rows rejected while parsing.
type ReadResult struct {
	Records     []*entities.VisitRecord
	Quarantined []entities.QuarantinedRecord
}

// CSVVisitReader parses the header-driven visit export.
type CSVVisitReader struct{}

// NewCSVVisitReader creates a CSV visit reader.
func NewCSVVisitReader() *CSVVisitReader {
	return &CSVVisitReader{}
}

// ReadFile opens path, retrying transient I/O errors, and parses it.
func (r *CSVVisitReader) ReadFile(ctx context.Context, path string) (*ReadResult, error) {
	var f *os.File
	err := retry.DoWithLog(ctx, retry.FileReadConfig(), path,
		func() error {
			var err error
			f, err = os.Open(path)
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				return retry.Permanent(err)
			}
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Str("path", path).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Failed to open visit export")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open visits: %w", err)
	}
	defer f.Close()

	return r.Read(f)
}

// Read parses CSV from in. Rows that cannot be parsed are quarantined with
// their 1-based line number; structural errors abort the read.
func (r *CSVVisitReader) Read(in io.Reader) (*ReadResult, error) {
	cr := csv.NewReader(in)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	result := &ReadResult{}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Quarantined = append(result.Quarantined, entities.QuarantinedRecord{Line: line, Reason: parseErr.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		rec, err := parseRow(row, index)
		if err != nil {
			q := entities.QuarantinedRecord{Line: line, Reason: err.Error()}
			if rec != nil {
				q.VisitID = rec.VisitID
				q.HospitalID = rec.HospitalID
			}
			result.Quarantined = append(result.Quarantined, q)
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func parseRow(row []string, index map[string]int) (*entities.VisitRecord, error) {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := &entities.VisitRecord{
		VisitID:        get(colVisitID),
		HospitalID:     get(colHospitalID),
		HospitalName:   get(colHospitalName),
		Region:         get(colRegion),
		DayOfWeek:      get(colDayOfWeek),
		Season:         entities.Season(get(colSeason)),
		TimeOfDay:      entities.TimeOfDay(get(colTimeOfDay)),
		PatientOutcome: get(colOutcome),
	}
	if rec.HospitalID == "" {
		return rec, errors.New("hospital id is required")
	}

	urgency, ok := entities.ParseUrgency(get(colUrgency))
	if !ok {
		return rec, fmt.Errorf("unknown urgency level %q", get(colUrgency))
	}
	rec.Urgency = urgency

	if raw := get(colVisitDate); raw != "" {
		t, err := parseVisitDate(raw)
		if err != nil {
			return rec, err
		}
		rec.VisitDate = t
	}

	floats := []struct {
		col      string
		dst      *float64
		required bool
	}{
		{colNurseRatio, &rec.NurseToPatientRatio, true},
		{colSpecialists, &rec.SpecialistAvailability, true},
		{colRegistration, &rec.TimeToRegistration, false},
		{colTriage, &rec.TimeToTriage, false},
		{colMedicalProfession, &rec.TimeToMedicalProfessional, false},
		{colTotalWait, &rec.TotalWaitTime, true},
		{colSatisfaction, &rec.PatientSatisfaction, true},
	}
	for _, f := range floats {
		raw := get(f.col)
		if raw == "" {
			if f.required {
				return rec, fmt.Errorf("%s is required", f.col)
			}
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rec, fmt.Errorf("%s: %q is not a number", f.col, raw)
		}
		*f.dst = v
	}

	if raw := get(colFacilitySize); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return rec, fmt.Errorf("%s: %q is not an integer", colFacilitySize, raw)
		}
		rec.FacilitySize = v
	}

	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}

func parseVisitDate(raw string) (time.Time, error) {
	for _, layout := range visitDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: unrecognised date %q", colVisitDate, raw)
}
