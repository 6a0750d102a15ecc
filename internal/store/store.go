// Package store is a file-backed persistence collaborator for the wizard.
// Each assessment lives in <dir>/<id>.json; a save replaces the whole file,
// so the last write wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dotcommander/assesskit/internal/model"
	"github.com/dotcommander/assesskit/internal/wizard"
)

var (
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("assessment not found")
	// ErrInvalidID is returned by Get for an id that cannot name a file in
	// the store directory.
	ErrInvalidID = errors.New("invalid assessment id")
)

// idRule keeps ids to a single path element.
const idRule = "required,excludesall=/\\"

// record is what a save must carry. Its ID tag matches idRule.
type record struct {
	ID    string `validate:"required,excludesall=/\\"`
	Token string `validate:"required"`
}

// FileStore implements wizard.Submitter on a directory.
type FileStore struct {
	dir      string
	logger   *slog.Logger
	validate *validator.Validate
	mu       sync.Mutex
}

var _ wizard.Submitter = (*FileStore)(nil)

// New returns a store rooted at dir. The directory is created on first save.
func New(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{
		dir:      dir,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string { return s.dir }

// Submit stores a copy of a, assigning an id when it has none, and returns
// the stored document.
func (s *FileStore) Submit(ctx context.Context, session wizard.Session, a *model.Assessment) (*model.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("store: nil assessment")
	}

	doc := a.Clone()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if err := s.validate.Struct(record{ID: doc.ID, Token: session.Token}); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: encoding %s: %w", doc.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("store: creating %s: %w", s.dir, err)
	}
	if err := writeAtomic(s.path(doc.ID), data); err != nil {
		return nil, fmt.Errorf("store: writing %s: %w", doc.ID, err)
	}

	s.logger.Debug("assessment stored", "id", doc.ID, "path", s.path(doc.ID))
	return doc, nil
}

// Get loads a stored assessment.
func (s *FileStore) Get(id string) (*model.Assessment, error) {
	if err := s.validate.Var(id, idRule); err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalidID, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := model.LoadAssessment(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, err
}

// List returns the ids of every stored assessment, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// writeAtomic writes through a temp file in the same directory so readers
// never see a partial document.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
