// Package git selects assessment and template documents from the working
// tree changes of a git repository.
package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dotcommander/assesskit/internal/discovery"
)

// GetStagedFiles returns absolute paths of staged documents under rootPath.
// Returns an empty slice outside a git repository.
func GetStagedFiles(rootPath string) ([]string, error) {
	if !IsGitRepo(rootPath) {
		return []string{}, nil
	}

	output, err := run(rootPath, "diff", "--name-only", "--relative", "--staged")
	if err != nil {
		return nil, err
	}
	return filterRelevantFiles(output, rootPath)
}

// GetChangedFiles returns absolute paths of every uncommitted document
// change under rootPath, staged or not. Before the first commit every
// tracked document counts as changed.
func GetChangedFiles(rootPath string) ([]string, error) {
	if !IsGitRepo(rootPath) {
		return []string{}, nil
	}

	if _, err := run(rootPath, "rev-parse", "HEAD"); err != nil {
		output, err := run(rootPath, "ls-files")
		if err != nil {
			return nil, err
		}
		return filterRelevantFiles(output, rootPath)
	}

	output, err := run(rootPath, "diff", "--name-only", "--relative", "HEAD")
	if err != nil {
		return nil, err
	}
	return filterRelevantFiles(output, rootPath)
}

// IsGitRepo checks if the given directory is within a git repository.
func IsGitRepo(rootPath string) bool {
	_, err := run(rootPath, "rev-parse", "--git-dir")
	return err == nil
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// filterRelevantFiles keeps the paths, relative to rootPath, that still
// exist and are discovered as assessments or templates.
func filterRelevantFiles(gitOutput, rootPath string) ([]string, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(strings.TrimSpace(gitOutput), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		absPath := filepath.Join(absRoot, filepath.FromSlash(line))

		// git reports deletions too
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			continue
		}
		if !isRelevantFile(absPath, absRoot) {
			continue
		}
		files = append(files, absPath)
	}
	return files, nil
}

func isRelevantFile(absPath, rootPath string) bool {
	kind, err := discovery.DetectFileType(absPath, rootPath)
	return err == nil && kind != discovery.FileTypeUnknown
}
