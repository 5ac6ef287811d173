package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestCollectImagePassthrough(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "page.png")
	writeFile(t, img, []byte("fake-png"))

	pages, err := Collect(context.Background(), nil, []string{img}, t.TempDir())
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(pages) != 1 || pages[0] != img {
		t.Errorf("expected passthrough, got %v", pages)
	}
}

func TestCollectDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.png"), []byte("b"))
	writeFile(t, filepath.Join(dir, "a.jpg"), []byte("a"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("skip me"))

	pages, err := Collect(context.Background(), nil, []string{dir}, t.TempDir())
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 images, got %v", pages)
	}
	if filepath.Base(pages[0]) != "a.jpg" || filepath.Base(pages[1]) != "b.png" {
		t.Errorf("expected name order, got %v", pages)
	}
}

func TestCollectZip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "scans.zip")

	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("failed to create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, entry := range []struct{ name, body string }{
		{"inner/p2.png", "two"},
		{"p1.png", "one"},
		{"readme.md", "skip"},
		{".hidden.png", "skip"},
	} {
		w, err := zw.Create(entry.name)
		if err != nil {
			t.Fatalf("failed to add entry: %v", err)
		}
		if _, err := w.Write([]byte(entry.body)); err != nil {
			t.Fatalf("failed to write entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	f.Close()

	extractDir := t.TempDir()
	pages, err := Collect(context.Background(), nil, []string{zipPath}, extractDir)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 extracted images, got %v", pages)
	}
	if filepath.Base(pages[0]) != "p1.png" || filepath.Base(pages[1]) != "p2.png" {
		t.Errorf("expected flattened name order, got %v", pages)
	}
	data, err := os.ReadFile(pages[1])
	if err != nil {
		t.Fatalf("failed to read extracted file: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("extracted content mismatch: %q", data)
	}
}

func TestCollectErrors(t *testing.T) {
	t.Run("no inputs", func(t *testing.T) {
		if _, err := Collect(context.Background(), nil, nil, t.TempDir()); err == nil {
			t.Error("expected error for empty inputs")
		}
	})

	t.Run("missing input", func(t *testing.T) {
		if _, err := Collect(context.Background(), nil, []string{"/nonexistent/x.png"}, t.TempDir()); err == nil {
			t.Error("expected error for missing input")
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		dir := t.TempDir()
		bad := filepath.Join(dir, "doc.docx")
		writeFile(t, bad, []byte("nope"))
		if _, err := Collect(context.Background(), nil, []string{bad}, t.TempDir()); err == nil {
			t.Error("expected error for unsupported input")
		}
	})

	t.Run("directory with no images", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "notes.txt"), []byte("x"))
		if _, err := Collect(context.Background(), nil, []string{dir}, t.TempDir()); err == nil {
			t.Error("expected error when no page images found")
		}
	})
}
