package postprocessors

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/postprocessors/chunker"
	"github.com/custodia-labs/lexrag/internal/postprocessors/lawrefs"
	"github.com/custodia-labs/lexrag/internal/postprocessors/legalchunker"
)

// Built-in processor names.
const (
	NameChunker       = "chunker"
	NameLegalChunker  = "legal_chunker"
	NameLawReferences = "law_references"
)

// RegisterDefaults adds the built-in processors to r. It panics if one of
// the names is already taken, which only a programming error can cause.
func RegisterDefaults(r *Registry) {
	defaults := []struct {
		name, summary string
		build         BuilderFunc
	}{
		{NameChunker, "fixed-size windows with overlap", buildChunker},
		{NameLegalChunker, "article-aware chunks for legislation, plain windows otherwise", buildLegalChunker},
		{NameLawReferences, "tags chunks with the diplomas they cite", buildLawReferences},
	}
	for _, d := range defaults {
		if err := r.Register(d.name, d.summary, d.build); err != nil {
			panic(err)
		}
	}
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	return chunker.New(chunkerOptions(cfg)...), nil
}

func chunkerOptions(cfg map[string]any) []chunker.Option {
	var opts []chunker.Option
	if cfg == nil {
		return opts
	}
	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if _, ok := cfg["overlap"]; ok {
		opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
	}
	return opts
}

// buildLegalChunker creates the article-aware processor from generic config.
// Supported config keys:
//   - max_chunk_size (int): Size bound of article chunks (default: 1000)
//   - min_chunk_size (int): Shortest preamble kept (default: 200)
//   - chunk_size, overlap: plain chunker settings for other document types
func buildLegalChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []legalchunker.Option
	if cfg != nil {
		if size := getIntFromConfig(cfg, "max_chunk_size"); size > 0 {
			opts = append(opts, legalchunker.WithMaxChunkSize(size))
		}
		if _, ok := cfg["min_chunk_size"]; ok {
			opts = append(opts, legalchunker.WithMinChunkSize(getIntFromConfig(cfg, "min_chunk_size")))
		}
	}
	return legalchunker.NewProcessor(
		legalchunker.NewChunker(opts...),
		chunker.New(chunkerOptions(cfg)...),
	), nil
}

func buildLawReferences(_ map[string]any) (driven.PostProcessor, error) {
	return lawrefs.New(), nil
}

// getIntFromConfig reads an integer from a pipeline config section. TOML
// and JSON decoders produce int64 and float64, the settings command writes
// strings. Anything else reads as zero.
func getIntFromConfig(cfg map[string]any, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
