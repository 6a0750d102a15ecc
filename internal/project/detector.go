// Package project locates the assesskit project root.
package project

import (
	"os"
	"path/filepath"
)

// markers identify a project root, checked in this order.
var markers = []string{
	".assesskitrc.json",
	".assesskitrc.yaml",
	".assesskitrc.yml",
	"assessments",
	"templates",
	".git",
}

// Info describes a detected project root.
type Info struct {
	Root   string
	Marker string // first marker found, empty when none
}

// FindProjectRoot searches for a project root starting from the given path
// and climbing up the directory tree. Without any marker on the way up the
// start path itself is returned.
func FindProjectRoot(startPath string) (string, error) {
	info, err := Detect(startPath)
	if err != nil {
		return "", err
	}
	return info.Root, nil
}

// Detect climbs from startPath to the first directory carrying a marker.
func Detect(startPath string) (*Info, error) {
	if startPath == "" {
		startPath = "."
	}
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return nil, err
	}

	currentDir := absPath
	for {
		if marker := rootMarker(currentDir); marker != "" {
			return &Info{Root: currentDir, Marker: marker}, nil
		}
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}
	return &Info{Root: absPath}, nil
}

func rootMarker(dir string) string {
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
			return m
		}
	}
	return ""
}
