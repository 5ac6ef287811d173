// Package pipeline orchestrates document processing: deskew, ROI alignment,
// per-field OCR with consensus scoring, and result persistence.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// docIDFormat yields ids like DOC_20260115_103000.
const docIDFormat = "DOC_20060102_150405"

// UniqueDocID returns a timestamp-based document id that does not collide
// with an existing workspace. Collisions within one second get a monotone
// numeric suffix so ids stay ordered.
func UniqueDocID(workspacesDir string, now time.Time) string {
	base := now.Format(docIDFormat)
	id := base
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(workspacesDir, id)); os.IsNotExist(err) {
			return id
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}
