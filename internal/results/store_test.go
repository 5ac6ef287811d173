package results

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestJobAndResultRoundtrip(t *testing.T) {
	s := newTestStore(t)

	jobID, err := s.CreateJob("invoice", time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("create job failed: %v", err)
	}
	if jobID == 0 {
		t.Fatal("expected non-zero job id")
	}

	r := &Result{
		JobID:           jobID,
		ImageName:       "page1.png",
		ROIName:         "total",
		TextMini:        "１２３",
		TextNano:        "123",
		FinalText:       "123",
		ConfidenceScore: 0.5,
		Status:          "medium",
	}
	resultID, err := s.AddResult(r)
	if err != nil {
		t.Fatalf("add result failed: %v", err)
	}
	if resultID == 0 {
		t.Fatal("expected non-zero result id")
	}

	fetched, err := s.FetchResults(jobID)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(fetched) != 1 {
		t.Fatalf("expected 1 result, got %d", len(fetched))
	}
	got := fetched[0]
	if got.ID != resultID || got.ROIName != "total" || got.FinalText != "123" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.TextMini != "１２３" || got.TextNano != "123" {
		t.Errorf("engine readings must be preserved verbatim: %+v", got)
	}
	if got.CorrectedByUser {
		t.Error("fresh result must not be marked as corrected")
	}
}

func TestFetchResultsOrderedByInsertion(t *testing.T) {
	s := newTestStore(t)
	jobID, err := s.CreateJob("invoice", time.Now())
	if err != nil {
		t.Fatalf("create job failed: %v", err)
	}
	for _, roi := range []string{"total", "date", "vendor"} {
		if _, err := s.AddResult(&Result{JobID: jobID, ImageName: "p.png", ROIName: roi}); err != nil {
			t.Fatalf("add result failed: %v", err)
		}
	}
	fetched, err := s.FetchResults(jobID)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(fetched) != 3 {
		t.Fatalf("expected 3 results, got %d", len(fetched))
	}
	for i, want := range []string{"total", "date", "vendor"} {
		if fetched[i].ROIName != want {
			t.Errorf("result %d: expected %q, got %q", i, want, fetched[i].ROIName)
		}
	}
}

func TestFetchResultsScopedToJob(t *testing.T) {
	s := newTestStore(t)
	jobA, _ := s.CreateJob("a", time.Now())
	jobB, _ := s.CreateJob("b", time.Now())
	if _, err := s.AddResult(&Result{JobID: jobA, ImageName: "a.png", ROIName: "f"}); err != nil {
		t.Fatalf("add result failed: %v", err)
	}
	if _, err := s.AddResult(&Result{JobID: jobB, ImageName: "b.png", ROIName: "f"}); err != nil {
		t.Fatalf("add result failed: %v", err)
	}
	fetched, err := s.FetchResults(jobA)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(fetched) != 1 || fetched[0].ImageName != "a.png" {
		t.Errorf("expected only job A results, got %+v", fetched)
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	first, _ := s.CreateJob("first", time.Now())
	second, _ := s.CreateJob("second", time.Now())

	jobs, err := s.ListJobs()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != second || jobs[1].ID != first {
		t.Errorf("expected newest first, got %+v", jobs)
	}
	if jobs[0].TemplateName != "second" {
		t.Errorf("template name mismatch: %+v", jobs[0])
	}
}

func TestUpdateResult(t *testing.T) {
	s := newTestStore(t)
	jobID, _ := s.CreateJob("invoice", time.Now())
	resultID, err := s.AddResult(&Result{
		JobID:     jobID,
		ImageName: "p.png",
		ROIName:   "total",
		TextMini:  "1O0",
		FinalText: "1O0",
		Status:    "low",
	})
	if err != nil {
		t.Fatalf("add result failed: %v", err)
	}

	if err := s.UpdateResult(resultID, "100", ""); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	fetched, err := s.FetchResults(jobID)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	got := fetched[0]
	if got.FinalText != "100" {
		t.Errorf("expected corrected text, got %q", got.FinalText)
	}
	if !got.CorrectedByUser {
		t.Error("expected corrected_by_user to be set")
	}
	if got.Status != "confirmed" {
		t.Errorf("expected status confirmed, got %q", got.Status)
	}
	if got.TextMini != "1O0" {
		t.Errorf("original reading must survive the correction, got %q", got.TextMini)
	}
}

func TestUpdateResultMissing(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpdateResult(42, "text", ""); err == nil {
		t.Fatal("expected error for missing result")
	}
}
