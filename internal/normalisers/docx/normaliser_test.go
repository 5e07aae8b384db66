package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// createTestDOCX creates a minimal DOCX file in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   documentXML,
		"docProps/core.xml":   coreXML,
	}
	for name, body := range parts {
		if body == "" {
			continue
		}
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func body(paragraphs string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + paragraphs + `</w:body></w:document>`
}

func TestNormaliser_Claims(t *testing.T) {
	n := New()
	assert.Equal(t, []string{MIMEType}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_Success(t *testing.T) {
	content := createTestDOCX(t,
		body(`<w:p><w:r><w:t>CONTRATO DE ARRENDAMENTO</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t xml:space="preserve">Cláusula </w:t></w:r><w:r><w:t>1.ª</w:t></w:r></w:p>`),
		`<?xml version="1.0"?><cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Contrato Lisboa</dc:title></cp:coreProperties>`)

	raw := &domain.RawDocument{Source: domain.SourceUpload, URI: "/c/contrato.docx", MIMEType: MIMEType, Content: content}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	doc := result.Document
	assert.Equal(t, "Contrato Lisboa", doc.Title)
	assert.Equal(t, "CONTRATO DE ARRENDAMENTO\nCláusula 1.ª", doc.Content)
	assert.Equal(t, "docx", doc.Metadata["format"])
	assert.Equal(t, domain.SourceUpload, doc.Source)
}

func TestNormalise_TitleFallbackToFilename(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/c/contrato_prestacao-servicos.docx",
		MIMEType: MIMEType,
		Content:  createTestDOCX(t, body(`<w:p><w:r><w:t>x</w:t></w:r></w:p>`), ""),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "contrato prestacao servicos", result.Document.Title)
}

func TestNormalise_TabsBreaksAndBlankParagraphs(t *testing.T) {
	raw := &domain.RawDocument{
		URI:      "/c/x.docx",
		MIMEType: MIMEType,
		Content: createTestDOCX(t, body(
			`<w:p><w:r><w:t>Primeira</w:t><w:tab/><w:t>Outorgante</w:t></w:r></w:p>`+
				`<w:p/>`+
				`<w:p><w:r><w:t>linha</w:t><w:br/><w:t>quebrada</w:t></w:r></w:p>`), ""),
	}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Primeira\tOutorgante\n\nlinha\nquebrada", result.Document.Content)
}

func TestNormalise_EmptyDocument(t *testing.T) {
	raw := &domain.RawDocument{URI: "/c/x.docx", MIMEType: MIMEType, Content: createTestDOCX(t, "", "")}

	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	assert.Empty(t, result.Document.Content)
}

func TestNormalise_Errors(t *testing.T) {
	tests := map[string]*domain.RawDocument{
		"nil document":   nil,
		"not a zip":      {URI: "/x.docx", MIMEType: MIMEType, Content: []byte("not a zip")},
		"malformed body": {URI: "/c/x.docx", MIMEType: MIMEType, Content: createTestDOCX(t, "<w:document><w:body>", "")},
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			result, err := New().Normalise(context.Background(), raw)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, result)
		})
	}
}
