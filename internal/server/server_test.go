package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackzampolin/formscan/internal/engines"
	"github.com/jackzampolin/formscan/internal/home"
	"github.com/jackzampolin/formscan/internal/pipeline"
	"github.com/jackzampolin/formscan/internal/results"
	"github.com/jackzampolin/formscan/internal/svcctx"
	"github.com/jackzampolin/formscan/internal/template"
	"github.com/jackzampolin/formscan/internal/vision"
)

func newTestServer(t *testing.T) (*Server, *svcctx.Services) {
	t.Helper()

	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create home: %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("failed to ensure home: %v", err)
	}
	ts, err := template.NewStore(h.TemplatesPath())
	if err != nil {
		t.Fatalf("failed to create template store: %v", err)
	}
	rs, err := results.Open(h.DatabasePath())
	if err != nil {
		t.Fatalf("failed to open result store: %v", err)
	}
	t.Cleanup(func() { rs.Close() })

	registry, err := engines.NewRegistry(nil)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	registry.Register("mini", &engines.MockEngine{EngineName: "mini", ResponseText: "123", Confidence: 0.95})
	registry.Register("nano", &engines.MockEngine{EngineName: "nano", ResponseText: "123", Confidence: 0.95})

	services := &svcctx.Services{
		Templates: ts,
		Results:   rs,
		Registry:  registry,
		Home:      h,
	}
	s, err := New(Config{Services: services})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return s, services
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil && rec.Code < 400 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec
}

func TestHealthAndStatus(t *testing.T) {
	s, _ := newTestServer(t)

	var health map[string]string
	rec := doJSON(t, s.Handler(), "GET", "/health", nil, &health)
	if rec.Code != http.StatusOK || health["status"] != "ok" {
		t.Errorf("unexpected health response: %d %v", rec.Code, health)
	}

	var status struct {
		Server  string   `json:"server"`
		Engines []string `json:"engines"`
	}
	rec = doJSON(t, s.Handler(), "GET", "/status", nil, &status)
	if rec.Code != http.StatusOK || status.Server != "running" {
		t.Errorf("unexpected status response: %d %+v", rec.Code, status)
	}
	if len(status.Engines) != 2 {
		t.Errorf("expected 2 registered engines, got %v", status.Engines)
	}
}

func TestTemplateEndpoints(t *testing.T) {
	s, services := newTestServer(t)
	tpl := &template.Template{
		Name:     "invoice",
		Keywords: template.KeywordList{"invoice"},
		ROIs:     map[string]template.ROI{"total": {Box: vision.Box{X: 0, Y: 0, W: 20, H: 20}}},
	}
	if err := services.Templates.Save("invoice", tpl); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	t.Run("list", func(t *testing.T) {
		var names []string
		rec := doJSON(t, s.Handler(), "GET", "/api/templates", nil, &names)
		if rec.Code != http.StatusOK || len(names) != 1 || names[0] != "invoice" {
			t.Errorf("unexpected list response: %d %v", rec.Code, names)
		}
	})

	t.Run("get", func(t *testing.T) {
		var got template.Template
		rec := doJSON(t, s.Handler(), "GET", "/api/templates/invoice", nil, &got)
		if rec.Code != http.StatusOK || got.Name != "invoice" {
			t.Errorf("unexpected get response: %d %+v", rec.Code, got)
		}
	})

	t.Run("get missing is 404", func(t *testing.T) {
		rec := doJSON(t, s.Handler(), "GET", "/api/templates/nope", nil, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("add correction", func(t *testing.T) {
		body := map[string]string{"wrong": "1O0", "correct": "100"}
		rec := doJSON(t, s.Handler(), "POST", "/api/templates/invoice/corrections", body, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		loaded, err := services.Templates.Load("invoice")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(loaded.Corrections) != 1 {
			t.Errorf("expected recorded correction, got %+v", loaded.Corrections)
		}
	})
}

func TestProcessAndReviewFlow(t *testing.T) {
	s, services := newTestServer(t)

	tpl := &template.Template{
		Name:     "form",
		Keywords: template.KeywordList{"form"},
		ROIs:     map[string]template.ROI{"amount": {Box: vision.Box{X: 5, Y: 5, W: 40, H: 20}}},
	}
	if err := services.Templates.Save("form", tpl); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Page image input
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode page: %v", err)
	}
	page := filepath.Join(t.TempDir(), "page.png")
	if err := os.WriteFile(page, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write page: %v", err)
	}

	var batch pipeline.BatchResult
	rec := doJSON(t, s.Handler(), "POST", "/api/process",
		map[string]any{"inputs": []string{page}, "template": "form"}, &batch)
	if rec.Code != http.StatusOK {
		t.Fatalf("process failed: %d %s", rec.Code, rec.Body.String())
	}
	if len(batch.Documents) != 1 {
		t.Fatalf("expected 1 document, errors: %v", batch.Errors)
	}
	field := batch.Documents[0].Fields[0]
	if field.ResultID == 0 {
		t.Fatal("expected persisted result id")
	}

	// Jobs listing includes the batch job
	var jobs []results.Job
	rec = doJSON(t, s.Handler(), "GET", "/api/jobs", nil, &jobs)
	if rec.Code != http.StatusOK || len(jobs) != 1 || jobs[0].ID != batch.JobID {
		t.Errorf("unexpected jobs response: %d %+v", rec.Code, jobs)
	}

	// Fetch results for the job
	var rows []results.Result
	rec = doJSON(t, s.Handler(), "GET", fmt.Sprintf("/api/jobs/%d/results", batch.JobID), nil, &rows)
	if rec.Code != http.StatusOK || len(rows) != 1 {
		t.Fatalf("unexpected results response: %d %+v", rec.Code, rows)
	}

	// Human review corrects the field
	rec = doJSON(t, s.Handler(), "PATCH", fmt.Sprintf("/api/results/%d", field.ResultID),
		map[string]string{"text": "456"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("review failed: %d %s", rec.Code, rec.Body.String())
	}
	rows = nil
	doJSON(t, s.Handler(), "GET", fmt.Sprintf("/api/jobs/%d/results", batch.JobID), nil, &rows)
	if rows[0].FinalText != "456" || !rows[0].CorrectedByUser || rows[0].Status != "confirmed" {
		t.Errorf("review must update final text and flags: %+v", rows[0])
	}

	t.Run("review missing result is 404", func(t *testing.T) {
		rec := doJSON(t, s.Handler(), "PATCH", "/api/results/99999", map[string]string{"text": "x"}, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
