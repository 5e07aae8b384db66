package postprocessors

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// stubProcessor replaces the chunks with its own, or passes them through
// when it has none, and records how many chunks it received.
type stubProcessor struct {
	name     string
	chunks   []domain.Chunk
	err      error
	received int
	calls    int
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	s.calls++
	s.received = len(chunks)
	if s.err != nil {
		return nil, s.err
	}
	if s.chunks != nil {
		return s.chunks, nil
	}
	return chunks, nil
}

func lei() *domain.Document {
	return &domain.Document{
		ID:   "doc-1",
		Type: domain.DocumentTypeLei,
		Content: "Artigo 1.º\nObjeto\nA presente lei altera o Decreto-Lei n.º 10/2024.\n\n" +
			"Artigo 2.º\nEntrada em vigor\nA presente lei entra em vigor no dia seguinte.",
	}
}

func TestPipeline_Process(t *testing.T) {
	created := []domain.Chunk{{ID: "c1", Content: "Artigo 1.º"}}
	rewritten := []domain.Chunk{{ID: "c1"}, {ID: "c2"}}

	tests := []struct {
		name  string
		procs []*stubProcessor
		want  int
	}{
		{"empty pipeline", nil, 0},
		{"creator only", []*stubProcessor{{name: "chunker", chunks: created}}, 1},
		{"creator then passthrough", []*stubProcessor{{name: "chunker", chunks: created}, {name: "tagger"}}, 1},
		{"later processor rewrites", []*stubProcessor{{name: "chunker", chunks: created}, {name: "splitter", chunks: rewritten}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline()
			for _, s := range tt.procs {
				p.Add(s)
			}

			chunks, err := p.Process(context.Background(), lei())
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if len(chunks) != tt.want {
				t.Errorf("got %d chunks, want %d", len(chunks), tt.want)
			}
			if len(tt.procs) > 1 && tt.procs[1].received != len(created) {
				t.Errorf("second processor received %d chunks, want %d", tt.procs[1].received, len(created))
			}
		})
	}
}

func TestPipeline_Process_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestPipeline_Process_StopsOnError(t *testing.T) {
	boom := errors.New("processor failed")
	after := &stubProcessor{name: "tagger"}
	p := NewPipeline(&stubProcessor{name: "chunker", err: boom}, after)

	_, err := p.Process(context.Background(), lei())

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if after.calls != 0 {
		t.Error("processors after a failure must not run")
	}
}

func TestPipeline_Process_Cancelled(t *testing.T) {
	s := &stubProcessor{name: "chunker"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(s).Process(ctx, lei())

	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if s.calls != 0 {
		t.Error("no processor should run on a cancelled context")
	}
}

func TestPipeline_Names(t *testing.T) {
	p := NewPipeline(&stubProcessor{name: "legal_chunker"})
	p.Add(&stubProcessor{name: "law_references"})

	if p.Len() != 2 {
		t.Errorf("Len = %d", p.Len())
	}
	if got, want := p.Names(), []string{"legal_chunker", "law_references"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}

func TestBuildPipeline_Defaults(t *testing.T) {
	p, err := BuildPipeline(NewDefaultRegistry(), domain.DefaultPipelineConfig())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	if got, want := p.Names(), []string{NameLegalChunker, NameLawReferences}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}

	chunks, err := p.Process(context.Background(), lei())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Kind() != domain.ChunkKindArticles {
		t.Errorf("kind = %q, want articles", chunks[0].Kind())
	}
	if chunks[0].DocumentID != "doc-1" {
		t.Errorf("DocumentID = %q", chunks[0].DocumentID)
	}
	if want := []string{"Decreto-Lei n.º 10/2024"}; !reflect.DeepEqual(chunks[0].LawReferences, want) {
		t.Errorf("LawReferences = %v, want %v", chunks[0].LawReferences, want)
	}
}

func TestBuildPipeline_UnknownProcessor(t *testing.T) {
	_, err := BuildPipeline(NewDefaultRegistry(), domain.PipelineConfig{Processors: []string{"stemmer"}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
