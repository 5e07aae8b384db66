package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seed(t *testing.T) {
	store := NewConfigStore(map[string]any{"search.mode": "hybrid"}, map[string]any{"chunk.max_size": 1500})

	assert.Equal(t, "hybrid", store.GetString("search.mode"))
	assert.Equal(t, 1500, store.GetInt("chunk.max_size"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("llm.model", "gemini-2.5-flash"))
	val, ok := store.Get("llm.model")
	assert.True(t, ok)
	assert.Equal(t, "gemini-2.5-flash", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)

	require.NoError(t, store.Save())
	require.NoError(t, store.Load())
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore(map[string]any{"retrieval.top_k": 5, "api_keys.openai": "sk"})
	require.NoError(t, store.Set("llm.provider", "gemini"))

	assert.Equal(t, []string{"api_keys.openai", "llm.provider", "retrieval.top_k"}, store.Keys())
}

func TestConfigStore_GetString(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"str": "x", "int": 42, "float": 0.5, "bool": true, "slice": []string{"a"},
	})

	tests := map[string]string{"str": "x", "int": "42", "float": "0.5", "bool": "true", "slice": "", "missing": ""}
	for key, want := range tests {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, want, store.GetString(key))
		})
	}
}

func TestConfigStore_GetInt(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"int": 7, "int64": int64(8), "float": 9.0, "string": " 10 ", "bad": "x", "bool": true,
	})

	tests := map[string]int{"int": 7, "int64": 8, "float": 9, "string": 10, "bad": 0, "bool": 0, "missing": 0}
	for key, want := range tests {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, want, store.GetInt(key))
		})
	}
}

func TestConfigStore_GetBool(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"bool": true, "string": "true", "zero": "0", "bad": "maybe", "int": 1,
	})

	tests := map[string]bool{"bool": true, "string": true, "zero": false, "bad": false, "int": true, "missing": false}
	for key, want := range tests {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, want, store.GetBool(key))
		})
	}
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"strings": []string{"lei", "decreto_lei"},
		"any":     []any{"lei", 3, "portaria"},
		"csv":     "lei, decreto_lei,,portaria",
		"int":     5,
	})

	assert.Equal(t, []string{"lei", "decreto_lei"}, store.GetStringSlice("strings"))
	assert.Equal(t, []string{"lei", "portaria"}, store.GetStringSlice("any"))
	assert.Equal(t, []string{"lei", "decreto_lei", "portaria"}, store.GetStringSlice("csv"))
	assert.Nil(t, store.GetStringSlice("int"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Set("key", i)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("key")
		}()
	}
	wg.Wait()

	_, ok := store.Get("key")
	assert.True(t, ok)
}
