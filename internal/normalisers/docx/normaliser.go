// Package docx provides a Normaliser for Word documents, the usual format
// of contracts submitted for analysis.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/normalisers/internal/docbuild"
)

// MIMEType is the Office Open XML word processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a DOCX document to a normalised document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", domain.ErrInvalidInput)
	}

	body, err := readPart(archive, "word/document.xml")
	if err != nil {
		return nil, err
	}
	content, err := paragraphs(body)
	if err != nil {
		return nil, fmt.Errorf("parse docx body: %w", domain.ErrInvalidInput)
	}

	return docbuild.Result(raw, docbuild.Title(raw, coreTitle(archive)), content, "docx"), nil
}

// readPart returns the bytes of a named archive member, or nil when absent.
func readPart(archive *zip.Reader, name string) ([]byte, error) {
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, domain.ErrInvalidInput)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, domain.ErrInvalidInput)
		}
		return data, nil
	}
	return nil, nil
}

// paragraphs walks the WordprocessingML tokens: each w:p becomes a line,
// w:tab a tab and w:br a line break. Empty paragraphs are kept as blank
// lines so clause spacing survives.
func paragraphs(body []byte) (string, error) {
	if len(body) == 0 {
		return "", nil
	}

	decoder := xml.NewDecoder(bytes.NewReader(body))
	var (
		out    strings.Builder
		inText bool
		first  = true
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if !first {
					out.WriteString("\n")
				}
				first = false
			case "t":
				inText = true
			case "tab":
				out.WriteString("\t")
			case "br", "cr":
				out.WriteString("\n")
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}

	lines := strings.Split(out.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

type coreProperties struct {
	Title string `xml:"title"`
}

// coreTitle reads dc:title from docProps/core.xml, "" when unset.
func coreTitle(archive *zip.Reader) string {
	data, err := readPart(archive, "docProps/core.xml")
	if err != nil || data == nil {
		return ""
	}
	var core coreProperties
	if xml.Unmarshal(data, &core) != nil {
		return ""
	}
	return core.Title
}
