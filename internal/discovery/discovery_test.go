package discovery

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestFileType_String(t *testing.T) {
	tests := []struct {
		fileType FileType
		want     string
	}{
		{FileTypeAssessment, "assessment"},
		{FileTypeTemplate, "template"},
		{FileTypeUnknown, "unknown"},
		{FileType(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.fileType.String(); got != tt.want {
				t.Errorf("FileType.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFileType(t *testing.T) {
	tests := []struct {
		input   string
		want    FileType
		wantErr bool
	}{
		{"assessment", FileTypeAssessment, false},
		{"Assessments", FileTypeAssessment, false},
		{" template ", FileTypeTemplate, false},
		{"templates", FileTypeTemplate, false},
		{"agent", FileTypeUnknown, true},
		{"", FileTypeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFileType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFileType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFileType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetectFileType(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		rel     string
		want    FileType
		wantErr string
	}{
		{"assessment json", "assessments/handle.json", FileTypeAssessment, ""},
		{"nested assessment yaml", "assessments/2024/q1/doi.yaml", FileTypeAssessment, ""},
		{"template yml", "templates/pid-owner.yml", FileTypeTemplate, ""},
		{"suffix template anywhere", "misc/owner.template.json", FileTypeTemplate, ""},
		{"suffix wins over directory", "assessments/owner.template.yaml", FileTypeTemplate, ""},
		{"suffix assessment", "handle.assessment.json", FileTypeAssessment, ""},
		{"loose json", "notes/data.json", FileTypeUnknown, "cannot determine kind"},
		{"markdown", "assessments/readme.md", FileTypeUnknown, "unsupported file type"},
		{"no extension", "assessments/LICENSE", FileTypeUnknown, "has no extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFileType(filepath.Join(root, filepath.FromSlash(tt.rel)), root)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("DetectFileType() error = %v, want containing %q", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("DetectFileType() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFileType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFileType_EscapeRoot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "elsewhere", "assessments", "a.json")
	_, err := DetectFileType(outside, root)
	if err == nil || !strings.Contains(err.Error(), "outside project root") {
		t.Errorf("expected outside-root error, got %v", err)
	}
}

func TestValidateFilePath(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "a.json", `{"name": "x"}`)
	empty := writeFile(t, dir, "empty.json", "")
	binary := writeFile(t, dir, "bin.json", "ab\x00cd")

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"valid", valid, ""},
		{"missing", filepath.Join(dir, "nope.json"), "file not found"},
		{"directory", dir, "is a directory"},
		{"empty", empty, "file is empty"},
		{"binary", binary, "appears to be binary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateFilePath(tt.path)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateFilePath() error = %v", err)
				}
				if !filepath.IsAbs(got) {
					t.Errorf("ValidateFilePath() = %q, want absolute path", got)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateFilePath() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFilePath_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := writeFile(t, dir, "target.yaml", "name: x\n")
	link := filepath.Join(dir, "link.yaml")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	got, err := ValidateFilePath(link)
	if err != nil {
		t.Fatalf("ValidateFilePath() error = %v", err)
	}
	want, _ := filepath.EvalSymlinks(target)
	if got != want {
		t.Errorf("ValidateFilePath() = %q, want %q", got, want)
	}
}

func TestDiscoverFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "assessments/a.json", "{}")
	writeFile(t, root, "assessments/nested/b.yaml", "name: b\n")
	writeFile(t, root, "assessments/c.template.yml", "id: c\n")
	writeFile(t, root, "templates/owner.yaml", "id: owner\n")
	writeFile(t, root, "elsewhere/d.assessment.json", "{}")
	writeFile(t, root, "elsewhere/ignored.json", "{}")
	writeFile(t, root, "assessments/readme.md", "# notes")
	if err := os.MkdirAll(filepath.Join(root, "assessments", "dir.json"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := NewFileDiscovery(root, false).DiscoverFiles()
	if err != nil {
		t.Fatalf("DiscoverFiles() error = %v", err)
	}

	got := make(map[string]FileType)
	for _, f := range files {
		if _, dup := got[f.RelPath]; dup {
			t.Errorf("file %s reported twice", f.RelPath)
		}
		got[f.RelPath] = f.Type
		if f.Size != int64(len(f.Contents)) {
			t.Errorf("%s: size %d, contents %d bytes", f.RelPath, f.Size, len(f.Contents))
		}
	}

	want := map[string]FileType{
		"assessments/a.json":          FileTypeAssessment,
		"assessments/nested/b.yaml":   FileTypeAssessment,
		"assessments/c.template.yml":  FileTypeTemplate,
		"templates/owner.yaml":        FileTypeTemplate,
		"elsewhere/d.assessment.json": FileTypeAssessment,
	}
	if len(got) != len(want) {
		t.Errorf("discovered %v, want %v", got, want)
	}
	for rel, ft := range want {
		if got[rel] != ft {
			t.Errorf("%s: type %v, want %v", rel, got[rel], ft)
		}
	}
}

func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	files, err := NewFileDiscovery(t.TempDir(), false).DiscoverFiles()
	if err != nil {
		t.Fatalf("DiscoverFiles() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %d", len(files))
	}
}

func TestDiscoverFilesWithRegistry_PatternError(t *testing.T) {
	fd := NewFileDiscovery(t.TempDir(), false)
	_, err := fd.DiscoverFilesWithRegistry([]FileTypeEntry{{Type: FileTypeAssessment, Patterns: []string{"[invalid"}}})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
	if !strings.Contains(err.Error(), "assessment") {
		t.Errorf("error should name the kind: %v", err)
	}
}

func TestFindFilesByPattern_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	target := writeFile(t, root, "store/real.json", "{}")
	if err := os.MkdirAll(filepath.Join(root, "assessments"), 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "assessments", "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	files, err := NewFileDiscovery(root, false).findFilesByPattern([]string{"assessments/*.json"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("symlink followed without followSymlinks: %v", files)
	}

	files, err = NewFileDiscovery(root, true).findFilesByPattern([]string{"assessments/*.json"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("expected symlink to be followed, got %d files", len(files))
	}
	if files[0].RelPath != "assessments/link.json" {
		t.Errorf("RelPath = %q", files[0].RelPath)
	}
}

func TestFindFilesByPattern_SymlinkOutsideRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	outside := writeFile(t, t.TempDir(), "secret.json", "{}")
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "assessments"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "assessments", "secret.json")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	files, err := NewFileDiscovery(root, true).findFilesByPattern([]string{"assessments/*.json"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("symlink escaping the root was followed: %v", files)
	}
}

func TestTypePatterns_MatchRegistry(t *testing.T) {
	for _, entry := range DefaultFileTypes {
		for _, pattern := range entry.Patterns {
			found := false
			for _, tp := range typePatterns {
				if tp.Pattern == pattern && tp.FileType == entry.Type {
					found = true
				}
			}
			if !found {
				t.Errorf("registry pattern %q for %v has no detection pattern", pattern, entry.Type)
			}
		}
	}
}
