package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/normalisers"
	"github.com/custodia-labs/lexrag/internal/postprocessors"
)

const leiTeletrabalho = `Lei n.º 23/2023

Publicada em 25 de maio de 2023.

Artigo 1.º
Objeto
A presente lei estabelece o regime jurídico do teletrabalho.

Artigo 2.º
Âmbito
O regime aplica-se aos contratos de trabalho celebrados nos termos do Decreto-Lei n.º 10/2024.

Artigo 3.º
Retribuição
O trabalhador em teletrabalho mantém a retribuição e os subsídios.
`

const contratoArrendamento = `Contrato de arrendamento urbano celebrado entre as partes.
O senhorio obriga-se a entregar o imóvel e o arrendatário a pagar a renda mensal.
Aplica-se a Lei n.º 6/2006 quanto ao regime do arrendamento.`

func rawText(uri, content string, hints map[string]string) domain.RawDocument {
	raw := domain.RawDocument{
		URI:      uri,
		MIMEType: "text/plain",
		Content:  []byte(content),
	}
	for k, v := range hints {
		raw.SetHint(k, v)
	}
	return raw
}

// fakeEmbedder hashes lowercase words into a small vector. Equal texts give
// equal vectors and shared words raise similarity.
type fakeEmbedder struct {
	mu      sync.Mutex
	dims    int
	err     error
	zeroAt  map[int]bool
	calls   int
	queries []string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dims: 32}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, f.dims)
	v[0] = 0.01
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[1+int(h.Sum32())%(f.dims-1)]++
	}
	return v
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.zeroAt[i] {
			out[i] = make([]float32, f.dims)
			continue
		}
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(query), nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }
func (f *fakeEmbedder) ModelName() string { return "fake-embedding" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return f.err }
func (f *fakeEmbedder) Close() error { return nil }

// fakeLLM records prompts and returns a canned reply.
type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	opts    []driven.GenerateOptions
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Chat(_ context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	return f.reply, f.err
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }
func (f *fakeLLM) Ping(_ context.Context) error { return f.err }
func (f *fakeLLM) Close() error { return nil }

// fakePrompts serves fixed templates.
type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) {
	if s, ok := p[name]; ok {
		return s, nil
	}
	return "", errors.New("unknown prompt: " + name)
}

func (p fakePrompts) Reload() {}

// testStack wires the in-memory adapters with the real normalisers and
// legal pipeline.
type testStack struct {
	docs     *memory.DocumentStore
	search   *memory.SearchEngine
	vectors  *memory.VectorIndex
	embedder *fakeEmbedder
	ingest   *IngestService
}

func newTestStack(t *testing.T, embedder *fakeEmbedder) *testStack {
	t.Helper()

	pipeline, err := postprocessors.BuildPipeline(postprocessors.NewDefaultRegistry(), domain.DefaultPipelineConfig())
	require.NoError(t, err)

	docs := memory.NewDocumentStore()
	s := &testStack{
		docs:     docs,
		search:   memory.NewSearchEngine(docs),
		vectors:  memory.NewVectorIndex(docs),
		embedder: embedder,
	}

	var emb driven.EmbeddingService
	if embedder != nil {
		emb = embedder
	}
	s.ingest = NewIngestService(normalisers.NewDefaultRegistry(), pipeline, docs, s.search, s.vectors, emb, 2)
	return s
}

func (s *testStack) mustIngest(t *testing.T, raw domain.RawDocument) *domain.Document {
	t.Helper()
	res, err := s.ingest.Ingest(context.Background(), &raw)
	require.NoError(t, err)
	return &res.Document
}
