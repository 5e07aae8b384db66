package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

type countingEmbedder struct {
	model    string
	embedded []string
	queries  int
	zeroFor  string
	closed   bool
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (c *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		c.embedded = append(c.embedded, t)
		if t == c.zeroFor {
			out[i] = []float32{0, 0}
			continue
		}
		out[i] = []float32{float32(len(t)), 0.5}
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(_ context.Context, q string) ([]float32, error) {
	c.queries++
	return []float32{-1, float32(len(q))}, nil
}

func (c *countingEmbedder) Dimensions() int              { return 2 }
func (c *countingEmbedder) ModelName() string            { return c.model }
func (c *countingEmbedder) Ping(_ context.Context) error { return nil }
func (c *countingEmbedder) Close() error                 { c.closed = true; return nil }

func newTestCache(t *testing.T, inner *countingEmbedder) *EmbeddingService {
	t.Helper()
	svc, err := New(inner, filepath.Join(t.TempDir(), "embeddings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestEmbedBatch_OnlyMissesReachInner(t *testing.T) {
	inner := &countingEmbedder{model: "m1"}
	svc := newTestCache(t, inner)
	ctx := context.Background()

	first, err := svc.EmbedBatch(ctx, []string{"a", "bb"})
	require.NoError(t, err)

	second, err := svc.EmbedBatch(ctx, []string{"bb", "ccc", "a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "bb", "ccc"}, inner.embedded)
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, []float32{3, 0.5}, second[1])
	assert.Equal(t, first[0], second[2])
	assert.Equal(t, 3, svc.Len())
}

func TestEmbed_AllCached(t *testing.T) {
	inner := &countingEmbedder{model: "m1"}
	svc := newTestCache(t, inner)
	ctx := context.Background()

	_, err := svc.Embed(ctx, "Artigo 1.º")
	require.NoError(t, err)
	vec, err := svc.Embed(ctx, "Artigo 1.º")
	require.NoError(t, err)

	assert.Len(t, inner.embedded, 1)
	assert.Equal(t, []float32{float32(len("Artigo 1.º")), 0.5}, vec)
}

func TestEmbedBatch_ZeroVectorsNotCached(t *testing.T) {
	inner := &countingEmbedder{model: "m1", zeroFor: "broken"}
	svc := newTestCache(t, inner)
	ctx := context.Background()

	_, err := svc.EmbedBatch(ctx, []string{"broken"})
	require.NoError(t, err)
	_, err = svc.EmbedBatch(ctx, []string{"broken"})
	require.NoError(t, err)

	assert.Equal(t, []string{"broken", "broken"}, inner.embedded)
	assert.Equal(t, 0, svc.Len())
}

func TestEmbedQuery_SeparateFromDocuments(t *testing.T) {
	inner := &countingEmbedder{model: "m1"}
	svc := newTestCache(t, inner)
	ctx := context.Background()

	_, err := svc.Embed(ctx, "prazo")
	require.NoError(t, err)

	q1, err := svc.EmbedQuery(ctx, "prazo")
	require.NoError(t, err)
	q2, err := svc.EmbedQuery(ctx, "prazo")
	require.NoError(t, err)

	assert.Equal(t, []float32{-1, 5}, q1)
	assert.Equal(t, q1, q2)
	assert.Equal(t, 1, inner.queries)
}

func TestKey_DependsOnModelAndTask(t *testing.T) {
	base := Key("m1", driven.TaskRetrievalDocument, "texto")

	assert.Equal(t, base, Key("m1", driven.TaskRetrievalDocument, "texto"))
	assert.NotEqual(t, base, Key("m2", driven.TaskRetrievalDocument, "texto"))
	assert.NotEqual(t, base, Key("m1", driven.TaskRetrievalQuery, "texto"))
	assert.NotEqual(t, base, Key("m1", driven.TaskRetrievalDocument, "texto "))
}

func TestCache_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.db")
	ctx := context.Background()

	inner := &countingEmbedder{model: "m1"}
	svc, err := New(inner, path)
	require.NoError(t, err)
	_, err = svc.Embed(ctx, "persist")
	require.NoError(t, err)
	require.NoError(t, svc.Close())
	assert.True(t, inner.closed)

	inner2 := &countingEmbedder{model: "m1"}
	svc2, err := New(inner2, path)
	require.NoError(t, err)
	defer svc2.Close()

	_, err = svc2.Embed(ctx, "persist")
	require.NoError(t, err)
	assert.Empty(t, inner2.embedded)
}

func TestEncodeDecode(t *testing.T) {
	vec := []float32{1.5, -2.25, 0, 3.4028235e38}
	assert.Equal(t, vec, decode(encode(vec)))
	assert.Empty(t, decode(nil))
}

func TestDelegates(t *testing.T) {
	svc := newTestCache(t, &countingEmbedder{model: "m1"})

	assert.Equal(t, 2, svc.Dimensions())
	assert.Equal(t, "m1", svc.ModelName())
	require.NoError(t, svc.Ping(context.Background()))
}
