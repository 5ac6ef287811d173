// Package ingest collects document page images from heterogeneous inputs:
// loose image files, directories, ZIP archives, and PDFs.
package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Collect expands the given inputs into an ordered list of page image paths.
// Image files pass through untouched. Directories contribute their image
// files in name order. ZIP archives and PDFs are expanded into extractDir.
func Collect(ctx context.Context, logger *slog.Logger, inputs []string, extractDir string) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	}

	var pages []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("input not found: %s", input)
		}

		switch {
		case info.IsDir():
			found, err := collectDir(input)
			if err != nil {
				return nil, err
			}
			logger.Debug("collected directory", "dir", input, "images", len(found))
			pages = append(pages, found...)
		case imageExtensions[strings.ToLower(filepath.Ext(input))]:
			pages = append(pages, input)
		case strings.EqualFold(filepath.Ext(input), ".zip"):
			found, err := extractZip(input, extractDir)
			if err != nil {
				return nil, err
			}
			logger.Debug("extracted archive", "zip", input, "images", len(found))
			pages = append(pages, found...)
		case strings.EqualFold(filepath.Ext(input), ".pdf"):
			found, err := renderPDF(ctx, input, extractDir)
			if err != nil {
				return nil, err
			}
			logger.Debug("rendered pdf", "pdf", input, "pages", len(found))
			pages = append(pages, found...)
		default:
			return nil, fmt.Errorf("unsupported input type: %s", input)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no page images found in inputs")
	}
	return pages, nil
}

// collectDir returns the image files directly inside dir, sorted by name.
func collectDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var found []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(found)
	return found, nil
}

// extractZip writes the archive's image entries into extractDir and returns
// their paths in name order. Nested directories inside the archive are
// flattened; non-image and hidden entries are skipped.
func extractZip(zipPath, extractDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer r.Close()

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create extract directory: %w", err)
	}

	var found []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(f.Name)
		if strings.HasPrefix(name, ".") || !imageExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		dst := filepath.Join(extractDir, name)
		if err := extractZipEntry(f, dst); err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		found = append(found, dst)
	}
	sort.Strings(found)
	return found, nil
}

func extractZipEntry(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

// renderPDF renders each page of the PDF to a PNG in extractDir using
// pdftoppm (poppler-utils). pdfcpu supplies the page count; pdftoppm does
// the rendering because extracting embedded image objects does not reliably
// match page order.
func renderPDF(ctx context.Context, pdfPath, extractDir string) ([]string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	pageCount, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create extract directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	var pages []string
	for page := 1; page <= pageCount; page++ {
		dst, err := renderPage(ctx, pdfPath, extractDir, base, page)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d of %s: %w", page, pdfPath, err)
		}
		pages = append(pages, dst)
	}
	return pages, nil
}

// renderPage renders a single page via pdftoppm.
// -r 300 gives enough resolution for field-level OCR.
func renderPage(ctx context.Context, pdfPath, outDir, base string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "formscan-page-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := fmt.Sprintf("%d", page)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", "300",
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	srcPath := outputPrefix + ".png"
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}

	dstPath := filepath.Join(outDir, fmt.Sprintf("%s_page_%04d.png", base, page))
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write page image: %w", err)
	}
	return dstPath, nil
}
