package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackzampolin/formscan/internal/template"
)

const (
	cropsDirName         = "crops"
	templateSnapshotName = "template.json"
	extractFileName      = "extract.json"
)

// Workspace is the durable on-disk record of one document run: the field
// crops sent to the engines, a snapshot of the template as it was at run
// start, and the extraction result. Workspaces are never deleted by the
// pipeline; they are the audit trail for human review.
type Workspace struct {
	DocID string
	Dir   string
}

// NewWorkspace creates the workspace directory tree for a document.
func NewWorkspace(workspacesDir, docID string) (*Workspace, error) {
	dir := filepath.Join(workspacesDir, docID)
	if err := os.MkdirAll(filepath.Join(dir, cropsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{DocID: docID, Dir: dir}, nil
}

// CropPath returns the path for a field crop. Ordinals are 1-indexed and
// follow the field's position in the template's sorted ROI order.
func (w *Workspace) CropPath(ordinal int, field string) string {
	return filepath.Join(w.Dir, cropsDirName, fmt.Sprintf("P%d_%s.png", ordinal, field))
}

// WriteCrop persists one field crop and returns its path.
func (w *Workspace) WriteCrop(ordinal int, field string, pngData []byte) (string, error) {
	path := w.CropPath(ordinal, field)
	if err := os.WriteFile(path, pngData, 0o644); err != nil {
		return "", fmt.Errorf("failed to write crop %s: %w", path, err)
	}
	return path, nil
}

// SnapshotTemplate freezes the template used for this run. Later edits to
// the stored template cannot change what this workspace records.
func (w *Workspace) SnapshotTemplate(t *template.Template) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal template snapshot: %w", err)
	}
	path := filepath.Join(w.Dir, templateSnapshotName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write template snapshot: %w", err)
	}
	return nil
}

// WriteExtract writes (or rewrites) the extraction result file.
func (w *Workspace) WriteExtract(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal extract result: %w", err)
	}
	path := filepath.Join(w.Dir, extractFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write extract result: %w", err)
	}
	return nil
}

// ExtractPath returns the path of the extraction result file.
func (w *Workspace) ExtractPath() string {
	return filepath.Join(w.Dir, extractFileName)
}
