package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/formscan/internal/consensus"
	"github.com/jackzampolin/formscan/internal/engines"
	"github.com/jackzampolin/formscan/internal/home"
	"github.com/jackzampolin/formscan/internal/results"
	"github.com/jackzampolin/formscan/internal/template"
	"github.com/jackzampolin/formscan/internal/textproc"
	"github.com/jackzampolin/formscan/internal/vision"
)

const defaultMaxWorkers = 4

// Processor runs documents through the extraction pipeline.
type Processor struct {
	Templates *template.Store
	Results   *results.Store
	Registry  *engines.Registry
	Home      *home.Dir
	Logger    *slog.Logger

	// PrimaryEngine reads every field; SecondaryEngine, when set, provides
	// the cross-check reading for consensus scoring.
	PrimaryEngine   string
	SecondaryEngine string

	// MaxWorkers bounds concurrent field extractions per document.
	MaxWorkers int

	// Binarize applies Otsu thresholding to each crop before OCR. Helps
	// contrast-poor scans at the cost of losing grayscale detail.
	Binarize bool
}

// FieldResult is the outcome for one ROI of one document.
type FieldResult struct {
	Field         string          `json:"field"`
	PrimaryText   string          `json:"primary_text"`
	SecondaryText string          `json:"secondary_text,omitempty"`
	FinalText     string          `json:"final_text"`
	Confidence    float64         `json:"confidence"`
	Level         consensus.Level `json:"confidence_level"`
	NeedsHuman    bool            `json:"needs_human"`
	CropPath      string          `json:"crop_path,omitempty"`
	ResultID      int64           `json:"result_id,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// DocumentResult is the full outcome for one document, also written to the
// workspace as extract.json.
type DocumentResult struct {
	DocID        string        `json:"doc_id"`
	JobID        int64         `json:"job_id"`
	TemplateName string        `json:"template"`
	ImageName    string        `json:"image"`
	ProcessedAt  time.Time     `json:"processed_at"`
	Fields       []FieldResult `json:"fields"`
}

func (p *Processor) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// ProcessDocument runs one page image against a template. Field extractions
// run concurrently; a failed engine call routes that field to human review
// instead of aborting the document. Every processed field is persisted
// before the function returns.
func (p *Processor) ProcessDocument(ctx context.Context, jobID int64, imagePath string, tpl *template.Template) (*DocumentResult, error) {
	log := p.logger()

	primary, err := p.Registry.Get(p.PrimaryEngine)
	if err != nil {
		return nil, err
	}
	var secondary engines.Engine
	if p.SecondaryEngine != "" {
		secondary, err = p.Registry.Get(p.SecondaryEngine)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", imagePath, err)
	}
	img, err := vision.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", imagePath, err)
	}

	deskewed := vision.Deskew(img)
	boxes := p.alignBoxes(tpl, deskewed, log)

	// Frozen template plus a fresh workspace make the run reproducible.
	frozen := tpl.Clone()
	docID := UniqueDocID(p.Home.WorkspacesPath(), time.Now())
	ws, err := NewWorkspace(p.Home.WorkspacesPath(), docID)
	if err != nil {
		return nil, err
	}
	if err := ws.SnapshotTemplate(frozen); err != nil {
		return nil, err
	}

	fieldNames := make([]string, 0, len(frozen.ROIs))
	for name := range frozen.ROIs {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	doc := &DocumentResult{
		DocID:        docID,
		JobID:        jobID,
		TemplateName: frozen.Name,
		ImageName:    filepath.Base(imagePath),
		ProcessedAt:  time.Now().UTC(),
		Fields:       make([]FieldResult, len(fieldNames)),
	}

	workers := p.MaxWorkers
	if workers <= 0 {
		workers = defaultMaxWorkers
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, name := range fieldNames {
		i, name := i, name
		g.Go(func() error {
			roi := frozen.ROIs[name]
			doc.Fields[i] = p.extractField(gctx, ws, deskewed, i+1, name, boxes[name], roi.ValidationRule, frozen.Corrections, primary, secondary)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Inserts are serialized here; each row commits on its own.
	for i := range doc.Fields {
		f := &doc.Fields[i]
		id, err := p.Results.AddResult(&results.Result{
			JobID:           jobID,
			ImageName:       doc.ImageName,
			ROIName:         f.Field,
			TextMini:        f.PrimaryText,
			TextNano:        f.SecondaryText,
			FinalText:       f.FinalText,
			ConfidenceScore: f.Confidence,
			Status:          string(f.Level),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to persist field %q: %w", f.Field, err)
		}
		f.ResultID = id
	}

	if err := ws.WriteExtract(doc); err != nil {
		return nil, err
	}

	log.Info("processed document",
		"doc_id", docID,
		"image", doc.ImageName,
		"template", frozen.Name,
		"fields", len(doc.Fields))
	return doc, nil
}

// alignBoxes maps the template's ROI boxes into the deskewed image's
// coordinate space. Without a reference image, or when the reference cannot
// be loaded, the template coordinates are used as-is.
func (p *Processor) alignBoxes(tpl *template.Template, deskewed image.Image, log *slog.Logger) map[string]vision.Box {
	boxes := make(map[string]vision.Box, len(tpl.ROIs))
	for name, roi := range tpl.ROIs {
		boxes[name] = roi.Box
	}
	if tpl.TemplateImagePath == "" {
		return boxes
	}

	refData, err := os.ReadFile(tpl.TemplateImagePath)
	if err != nil {
		log.Warn("template reference image unavailable, using raw ROI coordinates",
			"template", tpl.Name, "path", tpl.TemplateImagePath, "error", err)
		return boxes
	}
	refImg, err := vision.Decode(refData)
	if err != nil {
		log.Warn("template reference image undecodable, using raw ROI coordinates",
			"template", tpl.Name, "path", tpl.TemplateImagePath, "error", err)
		return boxes
	}
	return vision.AlignROIs(refImg, deskewed, boxes)
}

// extractField crops one ROI, runs the engines, and scores the readings.
// Engine failures are captured in the result, never returned as errors.
func (p *Processor) extractField(
	ctx context.Context,
	ws *Workspace,
	deskewed image.Image,
	ordinal int,
	name string,
	box vision.Box,
	rule string,
	corrections template.CorrectionList,
	primary, secondary engines.Engine,
) FieldResult {
	log := p.logger()
	out := FieldResult{Field: name}

	crop := vision.CropROI(deskewed, box)
	scaled := vision.ScaleForOCR(crop)
	if p.Binarize {
		scaled = vision.Binarize(scaled)
	}
	pngData, err := vision.EncodePNG(scaled)
	if err != nil {
		out.Level = consensus.LevelLow
		out.NeedsHuman = true
		out.Error = err.Error()
		return out
	}
	if path, err := ws.WriteCrop(ordinal, name, pngData); err != nil {
		log.Warn("failed to persist crop", "field", name, "error", err)
	} else {
		out.CropPath = path
	}

	pr := runEngine(ctx, primary, pngData)
	out.PrimaryText = pr.Text
	if !pr.Success {
		log.Warn("primary engine failed", "field", name, "engine", primary.Name(), "error", pr.ErrorMsg)
		out.Level = consensus.LevelLow
		out.NeedsHuman = true
		out.Error = pr.ErrorMsg
		return out
	}

	clean := textproc.ApplyCorrections(textproc.Normalize(pr.Text), corrections)

	var score consensus.Score
	if secondary != nil {
		// A failed cross-check still scores through Dual: the sentinel text
		// never matches a successful primary reading, so the field is forced
		// into review instead of being trusted on one engine.
		sr := runEngine(ctx, secondary, pngData)
		out.SecondaryText = sr.Text
		if !sr.Success {
			log.Warn("secondary engine failed, forcing review",
				"field", name, "engine", secondary.Name(), "error", sr.ErrorMsg)
			out.Error = sr.ErrorMsg
		}
		cleanSecondary := textproc.ApplyCorrections(textproc.Normalize(sr.Text), corrections)
		score = consensus.Dual(clean, cleanSecondary, rule)
	} else {
		score = consensus.Single(clean, pr.Confidence, rule)
	}

	out.FinalText = clean
	out.Confidence = score.Confidence
	out.Level = score.Level
	out.NeedsHuman = score.NeedsHuman
	return out
}

// runEngine normalizes the two engine failure modes (error return and
// failed-result return) into a single Result.
func runEngine(ctx context.Context, e engines.Engine, img []byte) *engines.Result {
	r, err := e.Run(ctx, img)
	if err != nil {
		return &engines.Result{Text: engines.FailureText, ErrorMsg: err.Error()}
	}
	return r
}
