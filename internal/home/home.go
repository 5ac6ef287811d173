// Package home defines the formscan home directory layout.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the formscan home directory.
	DefaultDirName = ".formscan"

	// WorkspacesDirName is the subdirectory holding per-document workspaces.
	WorkspacesDirName = "workspaces"

	// TemplatesDirName is the subdirectory holding template definitions.
	TemplatesDirName = "templates"

	// DatabaseDirName is the subdirectory holding the results database.
	DatabaseDirName = "database"

	// DatabaseFileName is the sqlite database file name.
	DatabaseFileName = "ocr_results.db"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the formscan home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.formscan).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// WorkspacesPath returns the path to the workspaces directory.
func (d *Dir) WorkspacesPath() string {
	return filepath.Join(d.path, WorkspacesDirName)
}

// WorkspacePath returns the workspace directory for a document.
func (d *Dir) WorkspacePath(docID string) string {
	return filepath.Join(d.WorkspacesPath(), docID)
}

// TemplatesPath returns the path to the templates directory.
func (d *Dir) TemplatesPath() string {
	return filepath.Join(d.path, TemplatesDirName)
}

// DatabasePath returns the path to the sqlite results database.
func (d *Dir) DatabasePath() string {
	return filepath.Join(d.path, DatabaseDirName, DatabaseFileName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	dirs := []string{
		d.WorkspacesPath(),
		d.TemplatesPath(),
		filepath.Join(d.path, DatabaseDirName),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
