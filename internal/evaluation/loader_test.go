package evaluation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/zatekoja/erwaittime/internal/domain/entities"
)

const visitHeader = "Visit ID,Hospital ID,Hospital Name,Region,Visit Date,Day of Week,Season,Time of Day,Urgency Level," +
	"Nurse-to-Patient Ratio,Specialist Availability,Facility Size (Beds),Time to Registration (min)," +
	"Time to Triage (min),Time to Medical Professional (min),Total Wait Time (min),Patient Outcome,Patient Satisfaction\n"

func TestLoadVisits_ValidFile(t *testing.T) {
	content := visitHeader +
		"V-1,HOSP-1,Mercy General,\"San Diego, CA\",2024-06-12 14:30:00,Wednesday,Summer,Afternoon,High,0.3,4,120,5,12,30,50,Admitted,4\n" +
		"V-2,HOSP-1,Mercy General,\"San Diego, CA\",2024-06-12 15:00:00,Wednesday,Summer,Afternoon,Sometimes,0.3,4,120,5,12,30,50,Admitted,4\n"
	path := writeTempFile(t, content)

	visits, quarantined, err := LoadVisits(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visits) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(visits))
	}
	if visits[0].VisitID != "V-1" {
		t.Errorf("expected visit V-1, got %s", visits[0].VisitID)
	}
	if len(quarantined) != 1 {
		t.Errorf("expected 1 quarantined row, got %d", len(quarantined))
	}
}

func TestLoadVisits_InvalidFile(t *testing.T) {
	_, _, err := LoadVisits(context.Background(), "/nonexistent/visits.csv")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestSplitHoldout_Deterministic(t *testing.T) {
	visits := make([]*entities.VisitRecord, 200)
	for i := range visits {
		visits[i] = &entities.VisitRecord{VisitID: fmt.Sprintf("V-%d", i), HospitalID: "HOSP-1"}
	}

	train1, holdout1 := SplitHoldout(visits, 0.2)
	train2, holdout2 := SplitHoldout(visits, 0.2)

	if len(train1)+len(holdout1) != len(visits) {
		t.Fatalf("split lost visits: %d + %d != %d", len(train1), len(holdout1), len(visits))
	}
	if len(holdout1) == 0 || len(holdout1) == len(visits) {
		t.Fatalf("expected a proper split, got %d held out", len(holdout1))
	}
	if len(holdout1) != len(holdout2) || len(train1) != len(train2) {
		t.Fatal("expected identical splits on repeated calls")
	}
	for i := range holdout1 {
		if holdout1[i].VisitID != holdout2[i].VisitID {
			t.Errorf("holdout differs at %d: %s vs %s", i, holdout1[i].VisitID, holdout2[i].VisitID)
		}
	}
}

func TestSplitHoldout_OutOfRangeFraction(t *testing.T) {
	visits := []*entities.VisitRecord{{VisitID: "V-1"}, {VisitID: "V-2"}}
	for _, fraction := range []float64{0, 1, -0.5} {
		train, holdout := SplitHoldout(visits, fraction)
		if len(train) != 2 || len(holdout) != 0 {
			t.Errorf("fraction %v: expected nothing held out, got %d", fraction, len(holdout))
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "visits.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
