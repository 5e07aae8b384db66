// Package postprocessors turns a normalised document into chunks. The
// legal chunker creates them; later processors annotate them.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/logger"
)

var log = logger.With("pipeline")

// Pipeline runs processors in order. The first one receives no chunks and
// creates them; each following one receives the previous output.
type Pipeline struct {
	processors []driven.PostProcessor
}

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// NewPipeline returns a pipeline running processors in the given order.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// BuildPipeline builds every processor cfg names, in order.
func BuildPipeline(r *Registry, cfg domain.PipelineConfig) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range cfg.Processors {
		proc, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		p.Add(proc)
	}
	return p, nil
}

// Process chunks doc. Cancellation is checked before every processor.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := proc.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
		log.Debug("%s: document %s, %d chunks", proc.Name(), doc.ID, len(out))
		chunks = out
	}
	return chunks, nil
}

// Add appends a processor.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// Names returns the processor names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}
