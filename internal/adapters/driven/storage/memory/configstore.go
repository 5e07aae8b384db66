package memory

import (
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/config/values"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map for tests that would otherwise need
// a TOML file. Save and Load do nothing.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a store seeded with the given maps, later maps
// winning on shared keys.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, m := range seed {
		maps.Copy(s.values, m)
	}
	return s
}

// Get returns the raw value for key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) value(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string        { return values.String(s.value(key)) }
func (s *ConfigStore) GetInt(key string) int              { return values.Int(s.value(key)) }
func (s *ConfigStore) GetBool(key string) bool            { return values.Bool(s.value(key)) }
func (s *ConfigStore) GetStringSlice(key string) []string { return values.StringSlice(s.value(key)) }

// Keys returns every stored key in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Set stores a value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Save() error { return nil }
func (s *ConfigStore) Load() error { return nil }

// Path returns ":memory:".
func (s *ConfigStore) Path() string {
	return ":memory:"
}
