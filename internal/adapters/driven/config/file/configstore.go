package file

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/config/values"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultDirName is the config directory under the user's home.
const DefaultDirName = ".lexrag"

// ConfigFileName is the TOML file inside the config directory.
const ConfigFileName = "config.toml"

// ConfigStore keeps settings in a TOML file. Keys are held flattened
// ("embedding.provider") and written back as tables on every Set.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// DefaultDir returns ~/.lexrag.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.lexrag/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, ConfigFileName),
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the raw value for a dotted key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

func (s *ConfigStore) value(key string) any {
	v, _ := s.Get(key)
	return v
}

// GetString formats scalar values; tables and arrays give "".
func (s *ConfigStore) GetString(key string) string { return values.String(s.value(key)) }

// GetInt reads TOML integers and the strings "settings set" writes.
func (s *ConfigStore) GetInt(key string) int { return values.Int(s.value(key)) }

func (s *ConfigStore) GetBool(key string) bool { return values.Bool(s.value(key)) }

// GetStringSlice reads TOML arrays and comma-separated strings.
func (s *ConfigStore) GetStringSlice(key string) []string {
	return values.StringSlice(s.value(key))
}

// Keys returns every stored key in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data))
}

// Set stores a configuration value and persists immediately.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.save(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	nested, err := unflatten(s.data)
	if err != nil {
		return err
	}
	data, err := toml.Marshal(nested)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Write with restricted permissions, the file holds API keys
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	s.data = flatten(make(map[string]any, len(loaded)), loaded, "")
	return nil
}

// flatten copies TOML tables into dst under dotted keys, so
// [storage.mongo] uri = "x" becomes "storage.mongo.uri".
func flatten(dst, table map[string]any, prefix string) map[string]any {
	for key, value := range table {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(dst, nested, key)
			continue
		}
		dst[key] = value
	}
	return dst
}

// unflatten is the inverse of flatten.
// A key that is both a value and a table prefix is rejected.
func unflatten(flat map[string]any) (map[string]any, error) {
	root := make(map[string]any)

	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := root
		for i, part := range parts[:len(parts)-1] {
			child, exists := node[part]
			if !exists {
				next := make(map[string]any)
				node[part] = next
				node = next
				continue
			}
			next, ok := child.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("config key %q conflicts with %q", key, strings.Join(parts[:i+1], "."))
			}
			node = next
		}

		leaf := parts[len(parts)-1]
		if _, ok := node[leaf].(map[string]any); ok {
			return nil, fmt.Errorf("config key %q conflicts with a table", key)
		}
		node[leaf] = value
	}

	return root, nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
