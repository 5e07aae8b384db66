package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
)

var errService = errors.New("service failed")

// runCommand executes the root command with args and returns its output.
// Flags are reset afterwards so tests do not leak state.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCommandWithInput(t, "", args...)
}

// runCommandWithInput is runCommand with input available on stdin.
func runCommandWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(input))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	settings *mockSettingsService
	ingest   *mockIngestService
	document *mockDocumentService
	search   *mockSearchService
	ask      *mockAskService
	scrape   *mockScrapeService
	queue    *mockTaskQueue
	sched    *mockScheduler
}

// setupTestServices installs mocks for every service and returns them
// with a cleanup that restores the previous state.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		settings: &mockSettingsService{settings: domain.DefaultAppSettings()},
		ingest:   &mockIngestService{},
		document: &mockDocumentService{docs: sampleDocuments(), chunks: sampleChunks()},
		search:   &mockSearchService{results: sampleResults()},
		ask:      &mockAskService{},
		scrape:   &mockScrapeService{},
		queue:    &mockTaskQueue{},
		sched:    &mockScheduler{},
	}
	SetServices(&Services{
		Settings:  ts.settings,
		Ingest:    ts.ingest,
		Document:  ts.document,
		Search:    ts.search,
		Ask:       ts.ask,
		Scrape:    ts.scrape,
		Queue:     ts.queue,
		Scheduler: ts.sched,
	})
	t.Cleanup(func() { SetServices(nil) })
	return ts
}

func sampleDocuments() []domain.Document {
	return []domain.Document{
		{
			ID:              "doc-1",
			Source:          domain.SourceDiarioRepublica,
			URI:             "https://diariodarepublica.pt/dr/detalhe/lei/12-2024",
			Title:           "Lei n.º 12/2024",
			Content:         "Artigo 1.º\nObjeto\nA presente lei regula o arrendamento.",
			Type:            domain.DocumentTypeLei,
			Number:          "12/2024",
			PublicationDate: "2024-03-14",
			Metadata:        map[string]any{"summary": "Regula o arrendamento"},
			CreatedAt:       time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			UpdatedAt:       time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		},
	}
}

func sampleChunks() []domain.Chunk {
	return []domain.Chunk{
		{
			ID:         "chunk-1",
			DocumentID: "doc-1",
			Content:    "Artigo 1.º\nObjeto\nA presente lei regula o arrendamento.",
			Position:   0,
			StartChar:  0,
			EndChar:    54,
			Meta:       domain.ArticlesMeta{Numbers: []string{"Artigo 1.º"}},
		},
	}
}

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Document: sampleDocuments()[0],
			Chunk:    sampleChunks()[0],
			Score:    0.87,
		},
	}
}

// mockSettingsService keeps settings in memory.
type mockSettingsService struct {
	settings domain.AppSettings
	keys     map[domain.AIProvider]string
	setErr   error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if key == "retrieval.mode" {
		m.settings.Retrieval.Mode = domain.SearchMode(value)
	}
	return nil
}

func (m *mockSettingsService) SetAPIKey(provider domain.AIProvider, apiKey string) error {
	if apiKey == "" {
		return domain.ErrInvalidInput
	}
	if m.keys == nil {
		m.keys = make(map[domain.AIProvider]string)
	}
	m.keys[provider] = apiKey
	return nil
}

func (m *mockSettingsService) Validate() error                { return nil }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error  { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error        { return nil }

// mockIngestService records ingested documents.
type mockIngestService struct {
	ingested    []domain.RawDocument
	reprocessed []string
	failURI     string
	err         error
}

func (m *mockIngestService) Ingest(_ context.Context, raw *domain.RawDocument) (*driving.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.failURI != "" && raw.URI == m.failURI {
		return nil, domain.ErrEmptyDocument
	}
	m.ingested = append(m.ingested, *raw)
	return &driving.IngestResult{
		Document: domain.Document{ID: "id-" + raw.URI, URI: raw.URI},
		Chunks:   make([]domain.Chunk, 2),
		Embedded: true,
	}, nil
}

func (m *mockIngestService) IngestBatch(_ context.Context, _ []domain.RawDocument) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, nil
}

func (m *mockIngestService) Reprocess(_ context.Context, id string) (*driving.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.reprocessed = append(m.reprocessed, id)
	return &driving.IngestResult{Document: domain.Document{ID: id}, Chunks: make([]domain.Chunk, 3)}, nil
}

// mockDocumentService serves fixed documents.
type mockDocumentService struct {
	docs        []domain.Document
	chunks      []domain.Chunk
	err         error
	deleted     []string
	opened      []string
	lastType    domain.DocumentType
	lastArticle string
}

func (m *mockDocumentService) List(_ context.Context, docType domain.DocumentType, _ int) ([]domain.Document, error) {
	m.lastType = docType
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Chunks(ctx context.Context, id, article string) ([]domain.Chunk, error) {
	m.lastArticle = article
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	return m.chunks, nil
}

func (m *mockDocumentService) GetDetails(ctx context.Context, id string) (*driving.DocumentDetails, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &driving.DocumentDetails{
		Document:      *doc,
		ChunkCount:    len(m.chunks),
		ArticleCount:  1,
		KindCounts:    map[domain.ChunkKind]int{domain.ChunkKindArticles: 1},
		LawReferences: []string{"Lei n.º 6/2006"},
		Metadata:      map[string]string{"summary": "Regula o arrendamento"},
	}, nil
}

func (m *mockDocumentService) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) Open(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.opened = append(m.opened, id)
	return nil
}

// mockSearchService returns fixed results.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

// mockAskService answers from sample results.
type mockAskService struct {
	err          error
	noSources    bool
	lastOpts     driving.AskOptions
	lastAnalysis domain.AnalysisType
}

func (m *mockAskService) Ask(_ context.Context, question string, opts driving.AskOptions) (*domain.Answer, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	answer := &domain.Answer{Query: question, ProcessingTime: 1200 * time.Millisecond}
	if m.noSources {
		return answer, nil
	}
	answer.Sources = sampleResults()
	if opts.UseLLM {
		answer.Text = "Segundo o Artigo 1.º da Lei n.º 12/2024, ..."
		answer.Model = "gemini-1.5-flash"
	}
	return answer, nil
}

func (m *mockAskService) AnalyzeContract(_ context.Context, id string, analysis domain.AnalysisType) (*domain.ContractAnalysis, error) {
	m.lastAnalysis = analysis
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ContractAnalysis{
		DocumentID:   id,
		Type:         analysis,
		Analysis:     "O contrato identifica as partes.",
		RelevantLaws: []string{"Código Civil"},
		Issues:       []string{"Falta cláusula de rescisão"},
		Model:        "gemini-1.5-flash",
	}, nil
}

// mockScrapeService returns a fixed result.
type mockScrapeService struct {
	lastOpts driving.ScrapeOptions
	err      error
}

func (m *mockScrapeService) ScrapeRecent(_ context.Context, opts driving.ScrapeOptions) (*driving.ScrapeResult, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	result := &driving.ScrapeResult{Fetched: 2}
	if opts.Enqueue {
		result.Enqueued = 2
		return result, nil
	}
	result.Report = &domain.IngestReport{Items: []domain.IngestItem{
		{URI: "https://diariodarepublica.pt/dr/detalhe/lei/12-2024", DocumentID: "doc-1", Chunks: 3},
		{URI: "https://diariodarepublica.pt/dr/detalhe/portaria/5-2024", DocumentID: "doc-2", Chunks: 1},
	}}
	return result, nil
}

// mockTaskQueue records enqueued tasks.
type mockTaskQueue struct {
	ingest    []string
	reprocess []string
}

func (m *mockTaskQueue) EnqueueIngest(_ context.Context, raw *domain.RawDocument) error {
	m.ingest = append(m.ingest, raw.URI)
	return nil
}

func (m *mockTaskQueue) EnqueueReprocess(_ context.Context, id string) error {
	m.reprocess = append(m.reprocess, id)
	return nil
}

func (m *mockTaskQueue) Close() error { return nil }

// mockScheduler serves a canned task status.
type mockScheduler struct {
	status    *domain.TaskStatus
	err       error
	lastLimit int
}

func (m *mockScheduler) Start(context.Context) error { return nil }
func (m *mockScheduler) Stop() error                 { return nil }

func (m *mockScheduler) RunNow(_ context.Context, taskID string) (*domain.TaskResult, error) {
	return &domain.TaskResult{TaskID: taskID, Success: true}, nil
}

func (m *mockScheduler) Status(_ context.Context, taskID string, limit int) (*domain.TaskStatus, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if m.status == nil {
		return &domain.TaskStatus{Task: domain.ScheduledTask{ID: taskID, Name: "Scrape"}}, nil
	}
	return m.status, nil
}
