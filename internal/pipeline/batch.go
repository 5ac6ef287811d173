package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackzampolin/formscan/internal/template"
	"github.com/jackzampolin/formscan/internal/textproc"
)

// BatchResult is the outcome of processing a set of page images under one job.
type BatchResult struct {
	JobID     int64             `json:"job_id"`
	Documents []*DocumentResult `json:"documents"`
	Errors    []string          `json:"errors,omitempty"`
}

// ProcessBatch runs every page image under a single job. With an empty
// templateName each page is matched against the stored templates by keyword
// detection. Pages run sequentially; a page that fails outright is recorded
// in Errors and the batch moves on.
func (p *Processor) ProcessBatch(ctx context.Context, templateName string, pages []string) (*BatchResult, error) {
	log := p.logger()

	var fixed *template.Template
	jobLabel := templateName
	if templateName != "" {
		var err error
		fixed, err = p.Templates.Load(templateName)
		if err != nil {
			return nil, err
		}
	} else {
		jobLabel = "auto"
	}

	jobID, err := p.Results.CreateJob(jobLabel, time.Now())
	if err != nil {
		return nil, err
	}
	log.Info("starting batch", "job_id", jobID, "template", jobLabel, "pages", len(pages))

	batch := &BatchResult{JobID: jobID}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		tpl := fixed
		if tpl == nil {
			tpl, err = p.detectTemplate(ctx, page)
			if err != nil {
				log.Error("template detection failed", "page", page, "error", err)
				batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %v", page, err))
				continue
			}
		}

		doc, err := p.ProcessDocument(ctx, jobID, page, tpl)
		if err != nil {
			log.Error("document processing failed", "page", page, "error", err)
			batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %v", page, err))
			continue
		}
		batch.Documents = append(batch.Documents, doc)
	}

	log.Info("batch complete",
		"job_id", jobID,
		"processed", len(batch.Documents),
		"failed", len(batch.Errors))
	return batch, nil
}

// detectTemplate OCRs the full page with the primary engine and picks the
// stored template whose keywords best match the text. When nothing matches,
// the first stored template is the fallback so unlabeled batches still run.
func (p *Processor) detectTemplate(ctx context.Context, imagePath string) (*template.Template, error) {
	names, err := p.Templates.List()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no templates available for detection")
	}

	primary, err := p.Registry.Get(p.PrimaryEngine)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", imagePath, err)
	}

	r := runEngine(ctx, primary, data)
	if r.Success {
		name, tpl, err := p.Templates.DetectTemplate(textproc.Normalize(r.Text))
		if err != nil {
			return nil, err
		}
		if tpl != nil {
			p.logger().Debug("detected template", "page", imagePath, "template", name)
			return tpl, nil
		}
	} else {
		p.logger().Warn("full-page OCR failed during detection, falling back",
			"page", imagePath, "error", r.ErrorMsg)
	}

	p.logger().Debug("no keyword match, using first template", "template", names[0])
	return p.Templates.Load(names[0])
}
