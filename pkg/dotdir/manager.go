// Package dotdir manages the .ragsearch/ and ~/.ragsearch directories that
// hold config.toml and local vector databases.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the ragsearch directory.
	DirName = ".ragsearch"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .ragsearch/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.ragsearch/ dir
//  3. Home ~/.ragsearch/ dir
//
// An empty path and no error are returned when none of these resolve.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating ragsearch directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if dirExists(filepath.Join(cwd, DirName)) {
		return filepath.Join(cwd, DirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if dirExists(filepath.Join(home, DirName)) {
		return filepath.Join(home, DirName), nil
	}

	return "", nil
}

// Init creates a .ragsearch/ directory under parent and returns its absolute path.
func (m *Manager) Init(parent string) (string, error) {
	dir := filepath.Join(parent, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating ragsearch directory %s: %w", dir, err)
	}
	return filepath.Abs(dir)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
