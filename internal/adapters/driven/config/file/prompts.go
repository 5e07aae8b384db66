package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var log = logger.With("prompts")

//go:embed defaults
var defaultFiles embed.FS

const promptExt = ".txt"

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore serves prompt templates from <dir>/<name>.txt. The first Load
// writes the embedded defaults and a README into dir, leaving files the
// user already has untouched. A missing or malformed file falls back to the
// embedded default.
type PromptStore struct {
	dir string

	once       sync.Once
	installErr error

	mu    sync.Mutex
	cache map[string]string
}

// DefaultPrompt returns the embedded template for a prompt name.
func DefaultPrompt(name string) (string, bool) {
	data, err := defaultFiles.ReadFile(path.Join("defaults", name+promptExt))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// NewPromptStore creates a store over dir, ~/.lexrag/prompts when empty.
// Nothing touches the disk until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Load returns the template for name. Templates are cached until Reload.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := DefaultPrompt(name)

	s.once.Do(s.install)
	if s.installErr != nil {
		if known {
			return def, nil
		}
		return "", fmt.Errorf("prompt %q: %w", name, s.installErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.cache[name]; ok {
		return p, nil
	}

	p, err := s.read(name)
	switch {
	case err != nil && !known:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	case err != nil:
		p = def
	case known && placeholders(p) != placeholders(def):
		log.Warn("%s%s has %d placeholders, want %d; using the default",
			name, promptExt, placeholders(p), placeholders(def))
		p = def
	}
	s.cache[name] = p
	return p, nil
}

// Reload drops the cache so the next Load rereads the files.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// install copies every embedded default that is not already on disk.
func (s *PromptStore) install() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.installErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	s.installErr = fs.WalkDir(defaultFiles, "defaults", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		dst := filepath.Join(s.dir, d.Name())
		if _, err := os.Stat(dst); !errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		data, err := defaultFiles.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			return fmt.Errorf("write default %s: %w", d.Name(), err)
		}
		return nil
	})
}

// placeholders counts the %s verbs of a template, skipping %% escapes.
func placeholders(tmpl string) int {
	n := 0
	for i := 0; i < len(tmpl)-1; i++ {
		if tmpl[i] != '%' {
			continue
		}
		if tmpl[i+1] == 's' {
			n++
		}
		i++
	}
	return n
}
