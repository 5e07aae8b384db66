package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

const (
	uriScheme         = "lexrag://"
	documentsURI      = uriScheme + "documents"
	documentListLimit = 200
	jsonMIME          = "application/json"
)

// documentInfo is a document as served by the resources. Content is only
// filled for a single document.
type documentInfo struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	URI             string `json:"uri"`
	Type            string `json:"type"`
	Number          string `json:"number,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	Content         string `json:"content,omitempty"`
}

func newDocumentInfo(doc *domain.Document) documentInfo {
	return documentInfo{
		ID:              doc.ID,
		Title:           doc.Title,
		URI:             doc.URI,
		Type:            string(doc.Type),
		Number:          doc.Number,
		PublicationDate: doc.PublicationDate,
	}
}

// chunkInfo is a stored chunk as served by the chunks resource.
type chunkInfo struct {
	ID             string   `json:"id"`
	Position       int      `json:"position"`
	Kind           string   `json:"chunk_type"`
	ArticleNumbers []string `json:"article_numbers,omitempty"`
	LawReferences  []string `json:"law_references,omitempty"`
	StartChar      int      `json:"start_char"`
	EndChar        int      `json:"end_char"`
	Content        string   `json:"content"`
}

func newChunkInfo(c *domain.Chunk) chunkInfo {
	info := chunkInfo{
		ID:            c.ID,
		Position:      c.Position,
		Kind:          string(c.Kind()),
		LawReferences: c.LawReferences,
		StartChar:     c.StartChar,
		EndChar:       c.EndChar,
		Content:       c.Content,
	}
	if c.Meta != nil {
		info.ArticleNumbers = c.Meta.ArticleNumbers()
	}
	return info
}

// registerResources adds the document listing, single document and chunk
// resources. They need a document service.
func (s *Server) registerResources() {
	if s.ports.Document == nil {
		return
	}
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "Indexed legal documents, newest first",
		MIMEType:    jsonMIME,
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{documentId}",
		Name:        "document",
		Description: "A legal document with its full text",
		MIMEType:    jsonMIME,
	}, s.handleDocumentResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{documentId}/chunks",
		Name:        "document-chunks",
		Description: "The stored chunks of a legal document in reading order",
		MIMEType:    jsonMIME,
	}, s.handleChunksResource)
}

func (s *Server) handleDocumentsResource(
	ctx context.Context, req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := []documentInfo{}
	if s.ports.Document != nil {
		docs, err := s.ports.Document.List(ctx, "", documentListLimit)
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		for i := range docs {
			infos = append(infos, newDocumentInfo(&docs[i]))
		}
	}
	return jsonResult(req.Params.URI, infos)
}

func (s *Server) handleDocumentResource(
	ctx context.Context, req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, sub := parseDocumentURI(req.Params.URI)
	if s.ports.Document == nil || id == "" || sub != "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, id)
	if err != nil {
		return nil, resourceError(req.Params.URI, "getting document", err)
	}
	info := newDocumentInfo(doc)
	info.Content = doc.Content
	return jsonResult(req.Params.URI, info)
}

func (s *Server) handleChunksResource(
	ctx context.Context, req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id, sub := parseDocumentURI(req.Params.URI)
	if s.ports.Document == nil || id == "" || sub != "chunks" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chunks, err := s.ports.Document.Chunks(ctx, id, "")
	if err != nil {
		return nil, resourceError(req.Params.URI, "listing chunks", err)
	}
	infos := make([]chunkInfo, 0, len(chunks))
	for i := range chunks {
		infos = append(infos, newChunkInfo(&chunks[i]))
	}
	return jsonResult(req.Params.URI, infos)
}

// resourceError maps a missing document to the protocol's not-found error.
func resourceError(uri, op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return mcp.ResourceNotFoundError(uri)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: jsonMIME, Text: string(data)}},
	}, nil
}

// parseDocumentURI splits lexrag://documents/{id}[/{sub}] into its parts.
// Both are empty when uri is not under the documents resource.
func parseDocumentURI(uri string) (id, sub string) {
	rest, ok := strings.CutPrefix(uri, documentsURI+"/")
	if !ok {
		return "", ""
	}
	id, sub, _ = strings.Cut(rest, "/")
	return id, sub
}
