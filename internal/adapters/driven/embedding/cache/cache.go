// Package cache provides an embedding service decorator that persists
// vectors in a bbolt file so re-ingesting unchanged text costs nothing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var log = logger.With("embedcache")

var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.QueryEmbedder    = (*EmbeddingService)(nil)
)

var bucketEmbeddings = []byte("embeddings")

// openTimeout bounds waiting on the file lock held by another process.
const openTimeout = time.Second

// EmbeddingService serves embeddings from a bbolt cache, falling back to inner.
type EmbeddingService struct {
	inner driven.EmbeddingService
	db    *bbolt.DB
}

// New opens (or creates) the cache file at path.
func New(inner driven.EmbeddingService, path string) (*EmbeddingService, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}
	return &EmbeddingService{inner: inner, db: db}, nil
}

// Key derives the cache key for a text embedded with model for a task.
func Key(model string, task driven.EmbeddingTask, text string) []byte {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0, byte(task), 0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

// Embed returns the cached document vector or computes and stores it.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedQuery caches query vectors separately from document vectors.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	key := Key(s.inner.ModelName(), driven.TaskRetrievalQuery, query)
	if vec := s.get(key); vec != nil {
		return vec, nil
	}

	var (
		vec []float32
		err error
	)
	if qe, ok := s.inner.(driven.QueryEmbedder); ok {
		vec, err = qe.EmbedQuery(ctx, query)
	} else {
		vec, err = s.inner.Embed(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	s.put(map[string][]float32{string(key): vec})
	return vec, nil
}

// EmbedBatch looks up every text and only sends misses to inner.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model := s.inner.ModelName()

	out := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))
	var missIdx []int
	var missTexts []string

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for i, t := range texts {
			keys[i] = Key(model, driven.TaskRetrievalDocument, t)
			if v := b.Get(keys[i]); v != nil {
				out[i] = decode(v)
				continue
			}
			missIdx = append(missIdx, i)
			missTexts = append(missTexts, t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read embedding cache: %w", err)
	}
	if len(missTexts) == 0 {
		log.Debug("all %d embeddings served from cache", len(texts))
		return out, nil
	}

	vecs, err := s.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding cache: got %d embeddings for %d inputs", len(vecs), len(missTexts))
	}

	fresh := make(map[string][]float32, len(vecs))
	for j, i := range missIdx {
		out[i] = vecs[j]
		if !isZero(vecs[j]) {
			fresh[string(keys[i])] = vecs[j]
		}
	}
	s.put(fresh)
	log.Debug("embedded %d of %d texts, %d cached", len(missTexts), len(texts), len(texts)-len(missTexts))
	return out, nil
}

func (s *EmbeddingService) get(key []byte) []float32 {
	var vec []float32
	_ = s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketEmbeddings).Get(key); v != nil {
			vec = decode(v)
		}
		return nil
	})
	return vec
}

// put stores vectors; failures only cost a future cache miss.
func (s *EmbeddingService) put(entries map[string][]float32) {
	if len(entries) == 0 {
		return
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for k, vec := range entries {
			if err := b.Put([]byte(k), encode(vec)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("writing embedding cache: %v", err)
	}
}

// Len returns the number of cached vectors.
func (s *EmbeddingService) Len() int {
	n := 0
	_ = s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n
}

// Dimensions returns the inner vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the inner service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the cache file and the inner service.
func (s *EmbeddingService) Close() error {
	dbErr := s.db.Close()
	if err := s.inner.Close(); err != nil {
		return err
	}
	return dbErr
}

func encode(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decode copies out of bbolt's mmap, which is only valid inside the transaction.
func decode(b []byte) []float32 {
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
