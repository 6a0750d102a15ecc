package discovery

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dotcommander/assesskit/internal/types"
)

// documentExt is the brace group of document extensions accepted everywhere.
const documentExt = "{json,yaml,yml}"

// TypePattern maps a glob pattern to a FileType for type detection.
// Patterns are matched in order; first match wins.
type TypePattern struct {
	Pattern  string
	FileType FileType
}

// typePatterns mirror the discovery registry. Suffix-named files come first
// so that a template stored under assessments/ is still a template.
var typePatterns = []TypePattern{
	{"**/*.template." + documentExt, FileTypeTemplate},
	{"**/*.assessment." + documentExt, FileTypeAssessment},
	{"templates/**/*." + documentExt, FileTypeTemplate},
	{"assessments/**/*." + documentExt, FileTypeAssessment},
}

// FileTypeEntry defines the discovery configuration for a file type.
type FileTypeEntry struct {
	Type     FileType
	Patterns []string
}

// DefaultFileTypes is the registry of document kinds and their discovery patterns.
var DefaultFileTypes = []FileTypeEntry{
	{Type: FileTypeTemplate, Patterns: []string{"templates/**/*." + documentExt, "**/*.template." + documentExt}},
	{Type: FileTypeAssessment, Patterns: []string{"assessments/**/*." + documentExt, "**/*.assessment." + documentExt}},
}

// DetectFileType determines the document kind from a file path using glob
// pattern matching against the path relative to rootPath.
//
// Example:
//
//	fileType, err := DetectFileType("/data/assessments/handle.yaml", "/data")
//	// fileType == FileTypeAssessment
func DetectFileType(absPath, rootPath string) (FileType, error) {
	relPath, err := filepath.Rel(rootPath, absPath)
	if err != nil {
		return FileTypeUnknown, fmt.Errorf("cannot compute relative path from %s to %s: %w", rootPath, absPath, err)
	}
	relPath = filepath.ToSlash(relPath)

	if strings.HasPrefix(relPath, "..") {
		return FileTypeUnknown, fmt.Errorf("file is outside project root: %s", absPath)
	}

	for _, tp := range typePatterns {
		matched, err := doublestar.Match(tp.Pattern, relPath)
		if err != nil {
			continue
		}
		if matched {
			return tp.FileType, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	switch ext {
	case ".json", ".yaml", ".yml":
		return FileTypeUnknown, fmt.Errorf(
			"cannot determine kind: %s is not under assessments/ or templates/. "+
				"Use --kind to specify (assessment, template)", relPath)
	case "":
		return FileTypeUnknown, fmt.Errorf(
			"unsupported file: %s has no extension. assesskit reads .json, .yaml and .yml documents only", filepath.Base(absPath))
	default:
		return FileTypeUnknown, fmt.Errorf(
			"unsupported file type: %s. assesskit reads .json, .yaml and .yml documents only", ext)
	}
}

// ValidateFilePath checks that path names a readable, non-empty text file
// and returns its absolute path.
func ValidateFilePath(path string) (absPath string, err error) {
	absPath, err = filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", absPath)
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("permission denied: %s", absPath)
		}
		return "", fmt.Errorf("cannot access file: %s: %w", absPath, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		realPath, evalErr := filepath.EvalSymlinks(absPath)
		if evalErr != nil {
			return "", fmt.Errorf("cannot resolve symlink %s: %w", absPath, evalErr)
		}
		absPath = realPath
		info, err = os.Stat(absPath)
		if err != nil {
			return "", fmt.Errorf("symlink target inaccessible: %s: %w", absPath, err)
		}
	}

	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", absPath)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("file is empty: %s", absPath)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return "", fmt.Errorf("cannot read file: %s: %w", absPath, err)
	}
	if bytes.Contains(buf[:n], []byte{0}) {
		return "", fmt.Errorf("file appears to be binary, not text: %s", absPath)
	}

	return absPath, nil
}

// File represents a discovered document with its metadata
type File struct {
	Path     string
	RelPath  string
	Size     int64
	Type     FileType
	Contents []byte
}

// FileType categorizes discovered documents
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeAssessment
	FileTypeTemplate
)

// String returns the document kind name used by the schema validator.
func (ft FileType) String() string {
	switch ft {
	case FileTypeAssessment:
		return types.KindAssessment
	case FileTypeTemplate:
		return types.KindTemplate
	default:
		return "unknown"
	}
}

// ParseFileType converts a string to a FileType.
func ParseFileType(s string) (FileType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assessment", "assessments":
		return FileTypeAssessment, nil
	case "template", "templates":
		return FileTypeTemplate, nil
	default:
		return FileTypeUnknown, fmt.Errorf("invalid kind %q: valid kinds are assessment, template", s)
	}
}

// FileDiscovery manages file discovery operations
type FileDiscovery struct {
	rootPath       string
	followSymlinks bool
}

// NewFileDiscovery creates a new FileDiscovery instance
func NewFileDiscovery(rootPath string, followSymlinks bool) *FileDiscovery {
	return &FileDiscovery{
		rootPath:       rootPath,
		followSymlinks: followSymlinks,
	}
}

// DiscoverFiles finds every assessment and template document under the root.
func (fd *FileDiscovery) DiscoverFiles() ([]File, error) {
	return fd.DiscoverFilesWithRegistry(DefaultFileTypes)
}

// DiscoverFilesWithRegistry finds files using a custom registry. A file
// matched by several entries is reported once, under the first entry.
func (fd *FileDiscovery) DiscoverFilesWithRegistry(registry []FileTypeEntry) ([]File, error) {
	var files []File
	seen := make(map[string]bool)

	for _, ftc := range registry {
		discovered, err := fd.findFilesByPattern(ftc.Patterns)
		if err != nil {
			return nil, fmt.Errorf("error discovering %s files: %w", ftc.Type.String(), err)
		}
		for _, f := range discovered {
			if seen[f.Path] {
				continue
			}
			seen[f.Path] = true
			f.Type = ftc.Type
			files = append(files, f)
		}
	}

	return files, nil
}

// findFilesByPattern finds files matching the given glob patterns
func (fd *FileDiscovery) findFilesByPattern(patterns []string) ([]File, error) {
	var files []File

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(os.DirFS(fd.rootPath), pattern)
		if err != nil {
			return nil, fmt.Errorf("error evaluating pattern %s: %w", pattern, err)
		}

		for _, match := range matches {
			f, ok := fd.processMatch(match)
			if ok {
				files = append(files, f)
			}
		}
	}

	return files, nil
}

// processMatch converts a glob match into a File, returning false if the match should be skipped.
func (fd *FileDiscovery) processMatch(match string) (File, bool) {
	fullPath := filepath.Join(fd.rootPath, match)

	info, err := os.Lstat(fullPath)
	if err != nil {
		return File{}, false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		resolved, resolvedInfo, ok := fd.resolveSymlink(fullPath)
		if !ok {
			return File{}, false
		}
		fullPath = resolved
		info = resolvedInfo
	}
	if info.IsDir() {
		return File{}, false
	}

	contents, err := os.ReadFile(fullPath)
	if err != nil {
		return File{}, false
	}

	return File{
		Path:     fullPath,
		RelPath:  filepath.ToSlash(match),
		Size:     info.Size(),
		Contents: contents,
	}, true
}

// resolveSymlink follows a symlink if configured. Targets outside the root
// are skipped.
func (fd *FileDiscovery) resolveSymlink(fullPath string) (string, os.FileInfo, bool) {
	if !fd.followSymlinks {
		return "", nil, false
	}

	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		return "", nil, false
	}

	root, err := filepath.EvalSymlinks(fd.rootPath)
	if err != nil {
		return "", nil, false
	}
	if rel, err := filepath.Rel(root, realPath); err != nil || strings.HasPrefix(rel, "..") {
		return "", nil, false
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return "", nil, false
	}

	return realPath, info, true
}
