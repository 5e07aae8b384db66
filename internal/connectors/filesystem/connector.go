// Package filesystem reads legal documents from local files and
// directories. Directory walks are filtered with doublestar include and
// exclude patterns; Watch reports changes through fsnotify.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// DefaultIncludes matches every format a built-in normaliser reads.
var DefaultIncludes = []string{"**/*.{txt,md,markdown,html,htm,xhtml,pdf,docx}"}

var log = logger.With("filesystem")

// Verify interface compliance.
var _ driven.Connector = (*Connector)(nil)

// Connector reads documents under a root path, which may be a single file.
type Connector struct {
	rootPath string
	source   domain.DocumentSource
	includes []string
	excludes []string
	hints    map[string]string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// Option configures a Connector.
type Option func(*Connector)

// WithIncludes replaces the include patterns. Patterns are matched against
// slash-separated paths relative to the root.
func WithIncludes(patterns ...string) Option {
	return func(c *Connector) {
		if len(patterns) > 0 {
			c.includes = patterns
		}
	}
}

// WithExcludes sets exclude patterns.
func WithExcludes(patterns ...string) Option {
	return func(c *Connector) {
		c.excludes = patterns
	}
}

// WithSource sets the source recorded on every document.
func WithSource(source domain.DocumentSource) Option {
	return func(c *Connector) {
		c.source = source
	}
}

// WithHints attaches legal hints (domain.Hint* keys) to every document.
func WithHints(hints map[string]string) Option {
	return func(c *Connector) {
		c.hints = hints
	}
}

// New creates a filesystem connector.
func New(rootPath string, opts ...Option) *Connector {
	c := &Connector{
		rootPath: rootPath,
		source:   domain.SourceUpload,
		includes: DefaultIncludes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// Validate checks that the root path exists.
func (c *Connector) Validate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(c.rootPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", c.rootPath)
		}
		return fmt.Errorf("stat %s: %w", c.rootPath, err)
	}
	return nil
}

// FullSync reads every matching file. A single-file root is always read.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument, 10)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		if err := c.Validate(ctx); err != nil {
			errs <- err
			return
		}

		info, err := os.Stat(c.rootPath)
		if err != nil {
			errs <- err
			return
		}
		if !info.IsDir() {
			raw, err := c.read(c.rootPath)
			if err != nil {
				errs <- err
				return
			}
			select {
			case docs <- *raw:
			case <-ctx.Done():
				errs <- ctx.Err()
			}
			return
		}

		err = filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			rel, err := filepath.Rel(c.rootPath, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if rel != "." && (isHidden(rel) || c.excluded(rel+"/")) {
					return filepath.SkipDir
				}
				return nil
			}
			if isHidden(rel) || !c.included(rel) {
				return nil
			}

			raw, err := c.read(path)
			if err != nil {
				log.Warn("skipping %s: %v", path, err)
				return nil
			}
			select {
			case docs <- *raw:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return docs, errs
}

// Watch reports file changes under the root until ctx is cancelled.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addWatches(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan domain.RawDocumentChange, 10)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				c.Close()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !c.hiddenPath(event.Name) {
						if err := c.addWatches(watcher, event.Name); err != nil {
							log.Warn("watch %s: %v", event.Name, err)
						}
					}
				}
				change := c.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					c.Close()
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watcher: %v", err)
			}
		}
	}()
	return changes, nil
}

// Close stops any active watcher.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// addWatches registers root and its visible subdirectories.
func (c *Connector) addWatches(watcher *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && c.hiddenPath(path) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// handleFsEvent converts an fsnotify event into a change, or nil when the
// event is irrelevant (chmod, directories, hidden or non-matching files).
func (c *Connector) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if c.hiddenPath(event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if !c.matches(event.Name) {
			return nil
		}
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{Source: c.source, URI: event.Name, MIMEType: detectMIMEType(event.Name)},
		}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() || !c.matches(event.Name) {
			return nil
		}
		raw, err := c.read(event.Name)
		if err != nil {
			log.Warn("read %s: %v", event.Name, err)
			return nil
		}
		changeType := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			changeType = domain.ChangeCreated
		}
		return &domain.RawDocumentChange{Type: changeType, Document: *raw}
	default:
		return nil
	}
}

// read loads a file into a raw document.
func (c *Connector) read(path string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raw := &domain.RawDocument{
		Source:   c.source,
		URI:      path,
		MIMEType: detectMIMEType(path),
		Content:  content,
		Metadata: map[string]any{"size": len(content)},
	}
	for key, value := range c.hints {
		raw.SetHint(key, value)
	}
	return raw, nil
}

// matches applies include and exclude patterns to a path under the root.
// A single-file root matches itself.
func (c *Connector) matches(path string) bool {
	if filepath.Clean(path) == filepath.Clean(c.rootPath) {
		return true
	}
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	return c.included(rel) && !c.excluded(rel)
}

func (c *Connector) included(rel string) bool {
	if c.excluded(rel) {
		return false
	}
	for _, pattern := range c.includes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (c *Connector) excluded(rel string) bool {
	for _, pattern := range c.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// hiddenPath reports whether path is hidden relative to the root.
func (c *Connector) hiddenPath(path string) bool {
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		return isHidden(path)
	}
	return isHidden(filepath.ToSlash(rel))
}

// isHidden reports whether any path component starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

var extensionTypes = map[string]string{
	"":          "text/plain",
	".txt":      "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".htm":      "text/html",
	".html":     "text/html",
	".xhtml":    "application/xhtml+xml",
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// detectMIMEType maps a file extension to a MIME type without parameters.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return strings.TrimSpace(t)
	}
	return "application/octet-stream"
}
