package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

func TestNormaliser_Claims(t *testing.T) {
	n := New()

	assert.Equal(t, []string{"text/plain", "text/*"}, n.SupportedMIMETypes())
	assert.Equal(t, 5, n.Priority())
}

func TestNormalise(t *testing.T) {
	raw := &domain.RawDocument{
		Source:   domain.SourceUpload,
		URI:      "/leis/lei_23-2023.txt",
		MIMEType: "text/plain",
		Content:  []byte("Lei n.º 23/2023\r\nArtigo 1.º\rObjeto"),
		Metadata: map[string]any{domain.HintNumber: "23/2023"},
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Empty(t, doc.ID, "ids are assigned at ingest")
	assert.Equal(t, domain.SourceUpload, doc.Source)
	assert.Equal(t, "lei 23 2023", doc.Title)
	assert.Equal(t, "Lei n.º 23/2023\nArtigo 1.º\nObjeto", doc.Content)
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
	assert.Equal(t, "23/2023", doc.Metadata[domain.HintNumber])
	assert.NotContains(t, doc.Metadata, "format")

	doc.Metadata["extra"] = true
	assert.NotContains(t, raw.Metadata, "extra")
}

func TestNormalise_Errors(t *testing.T) {
	tests := map[string]struct {
		raw  *domain.RawDocument
		want error
	}{
		"nil document": {nil, domain.ErrInvalidInput},
		"binary":       {&domain.RawDocument{URI: "/bin/file", Content: []byte{0xff, 0xfe, 0x00}}, domain.ErrUnsupportedFormat},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), tt.raw)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, result)
		})
	}
}

func TestNormalise_EmptyContentIsKept(t *testing.T) {
	result, err := New().Normalise(context.Background(), &domain.RawDocument{URI: "/vazio.txt"})

	require.NoError(t, err)
	assert.Empty(t, result.Document.Content)
	assert.Equal(t, "vazio", result.Document.Title)
}

func TestNormalise_Title(t *testing.T) {
	tests := map[string]struct{ uri, hint, want string }{
		"file name":    {"/path/to/contrato.txt", "", "contrato"},
		"underscores":  {"/path/decreto_lei_10.txt", "", "decreto lei 10"},
		"dashes":       {"/path/portaria-45.txt", "", "portaria 45"},
		"scraper hint": {"/path/x.txt", "Lei n.º 5/2024", "Lei n.º 5/2024"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			raw := &domain.RawDocument{URI: tt.uri, Content: []byte("conteúdo")}
			raw.SetHint(domain.HintTitle, tt.hint)

			result, err := New().Normalise(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Document.Title)
		})
	}
}
