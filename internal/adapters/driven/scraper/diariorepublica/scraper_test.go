package diariorepublica

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

const dayListing = `<html><body>
<div class="dre-document">
  <h2>Lei n.º 12/2024</h2>
  <span class="diploma-numero">n.º 12/2024</span>
  <div class="diploma-sumario">Altera o regime do teletrabalho.</div>
  <a href="/dr/detalhe/lei/12-2024">Ver</a>
</div>
<article class="diploma">
  <h3>Portaria n.º 80/2024</h3>
  <p class="summary">Fixa as taxas.</p>
  <a href="/dr/detalhe/portaria/80-2024">Ver</a>
</article>
</body></html>`

const fragmentPage = `<html><head><title>Lei 12/2024</title><script>var x = 1;</script></head><body>
<div class="Fragmento_Texto diploma-fragmento">A Assembleia da República decreta o seguinte:</div>
<div class="fragmento-full-width">
  <div class="Fragmento_Titulo">Artigo 1.º</div>
  <div class="Fragmento_Epigrafe">Objeto</div>
  <div class="Fragmento_Texto diploma-fragmento"><p>A presente lei altera o regime do teletrabalho.</p></div>
</div>
<div class="fragmento-full-width">
  <div class="Fragmento_Titulo">Artigo 2.º</div>
  <div class="Fragmento_Epigrafe">Entrada em vigor</div>
  <div class="Fragmento_Texto diploma-fragmento"><p>A presente lei entra em vigor no dia seguinte.</p></div>
</div>
</body></html>`

const staticPage = `<html><body>
<nav>Menu</nav>
<div class="diploma-texto"><p>Artigo 1.º</p><p>São fixadas as taxas.</p><style>p{}</style></div>
</body></html>`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(DayPath+"2024-03-14", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(dayListing))
	})
	mux.HandleFunc(DayPath+"2024-03-15", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>Sem publicações.</p></body></html>"))
	})
	mux.HandleFunc("/dr/detalhe/lei/12-2024", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(fragmentPage))
	})
	mux.HandleFunc("/dr/detalhe/portaria/80-2024", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(staticPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestScraper(t *testing.T, baseURL string) *Scraper {
	t.Helper()
	s, err := New(domain.ScraperSettings{BaseURL: baseURL, MaxDocuments: 10})
	require.NoError(t, err)
	return s
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 9, 30, 0, 0, time.UTC)
}

func TestScraper_FetchRange(t *testing.T) {
	srv := newTestServer(t)
	s := newTestScraper(t, srv.URL)

	docs, err := s.FetchRange(context.Background(), day(14), day(15), 0)

	require.NoError(t, err)
	require.Len(t, docs, 2)

	lei := docs[0]
	assert.Equal(t, domain.SourceDiarioRepublica, lei.Source)
	assert.Equal(t, srv.URL+"/dr/detalhe/lei/12-2024", lei.URI)
	assert.Equal(t, "text/plain", lei.MIMEType)
	assert.Equal(t, "Lei n.º 12/2024", lei.Hint(domain.HintTitle))
	assert.Equal(t, "12/2024", lei.Hint(domain.HintNumber))
	assert.Equal(t, "lei", lei.Hint(domain.HintDocumentType))
	assert.Equal(t, "2024-03-14", lei.Hint(domain.HintPublicationDate))
	assert.Equal(t, "Altera o regime do teletrabalho.", lei.Hint(domain.HintSummary))

	text := string(lei.Content)
	assert.True(t, strings.HasPrefix(text, "A Assembleia da República decreta o seguinte:"))
	assert.Contains(t, text, "Artigo 1.º\nObjeto\nA presente lei altera o regime do teletrabalho.")
	assert.Contains(t, text, "Artigo 2.º\nEntrada em vigor")
	assert.NotContains(t, text, "var x")

	portaria := docs[1]
	assert.Equal(t, "80/2024", portaria.Hint(domain.HintNumber))
	assert.Equal(t, "portaria", portaria.Hint(domain.HintDocumentType))
	assert.Equal(t, "Artigo 1.º\nSão fixadas as taxas.", string(portaria.Content))
}

func TestScraper_FetchRange_Max(t *testing.T) {
	srv := newTestServer(t)
	s := newTestScraper(t, srv.URL)

	docs, err := s.FetchRange(context.Background(), day(14), day(15), 1)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Lei n.º 12/2024", docs[0].Hint(domain.HintTitle))
}

func TestScraper_FetchRange_MissingDayIsJoined(t *testing.T) {
	srv := newTestServer(t)
	s := newTestScraper(t, srv.URL)

	docs, err := s.FetchRange(context.Background(), day(13), day(14), 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-03-13")
	assert.Len(t, docs, 2)
}

func TestScraper_FetchRange_Errors(t *testing.T) {
	srv := newTestServer(t)
	s := newTestScraper(t, srv.URL)

	t.Run("reversed range", func(t *testing.T) {
		_, err := s.FetchRange(context.Background(), day(15), day(14), 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		docs, err := s.FetchRange(ctx, day(14), day(15), 0)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, docs)
	})
}

func TestNew(t *testing.T) {
	s, err := New(domain.ScraperSettings{})
	require.NoError(t, err)
	assert.Equal(t, "https://diariodarepublica.pt", s.baseURL.String())
	assert.Equal(t, domain.DefaultAppSettings().Scraper.MaxDocuments, s.maxDocuments)
	assert.NotEmpty(t, s.userAgent)

	s, err = New(domain.ScraperSettings{BaseURL: "http://localhost:8080/"}, WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", s.baseURL.String())
	assert.Equal(t, time.Second, s.timeout)

	_, err = New(domain.ScraperSettings{BaseURL: "not a url"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseListing(t *testing.T) {
	page, err := goquery.NewDocumentFromReader(strings.NewReader(dayListing))
	require.NoError(t, err)
	resolve := func(href string) string { return "https://example.pt" + href }

	var entries []listing
	page.Find(listingSelector).Each(func(_ int, sel *goquery.Selection) {
		entries = append(entries, parseListing(sel, "2024-03-14", resolve))
	})

	require.Len(t, entries, 2)
	assert.Equal(t, listing{
		title:   "Lei n.º 12/2024",
		number:  "12/2024",
		summary: "Altera o regime do teletrabalho.",
		link:    "https://example.pt/dr/detalhe/lei/12-2024",
		date:    "2024-03-14",
	}, entries[0])
	// Number falls back to the title
	assert.Equal(t, "80/2024", entries[1].number)
	assert.Equal(t, "Fixa as taxas.", entries[1].summary)
}

func TestFetchDiploma_WithoutLink(t *testing.T) {
	s := newTestScraper(t, "https://example.pt")

	raw, err := s.fetchDiploma(context.Background(), listing{
		title:   "Aviso n.º 3/2024",
		summary: "Abertura de concurso.",
		date:    "2024-03-14",
	})

	require.NoError(t, err)
	assert.Equal(t, "Aviso n.º 3/2024\n\nAbertura de concurso.", string(raw.Content))
	assert.Equal(t, "aviso", raw.Hint(domain.HintDocumentType))
	assert.True(t, strings.HasPrefix(raw.URI, "https://example.pt"+DayPath+"2024-03-14#"))

	_, err = s.fetchDiploma(context.Background(), listing{date: "2024-03-14"})
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestExtractDiplomaText_BodyFallback(t *testing.T) {
	page, err := goquery.NewDocumentFromReader(strings.NewReader(
		"<html><body><p>Primeiro parágrafo</p><p>Segundo parágrafo</p></body></html>"))
	require.NoError(t, err)

	assert.Equal(t, "Primeiro parágrafo\nSegundo parágrafo", extractDiplomaText(page.Selection))
}
