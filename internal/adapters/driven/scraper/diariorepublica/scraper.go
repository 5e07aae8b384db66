package diariorepublica

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	colly "github.com/gocolly/colly/v2"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/legal"
	"github.com/custodia-labs/lexrag/internal/logger"
	htmlnorm "github.com/custodia-labs/lexrag/internal/normalisers/html"
)

var log = logger.With("scraper")

// Ensure Scraper implements the interface.
var _ driven.Scraper = (*Scraper)(nil)

// DayPath is the listing page of a publication day, followed by YYYY-MM-DD.
const DayPath = "/home/-/dre/dia/"

const (
	listingSelector  = "div.dre-document, article.diploma"
	fragmentSelector = "div.fragmento-full-width"
	introSelector    = "div.Fragmento_Texto.diploma-fragmento"
	defaultTimeout   = 30 * time.Second
)

// contentSelectors locate the diploma body on static pages, in order.
var contentSelectors = []string{
	"div.diploma-texto",
	"div.document-content",
	".Fragmento_Texto",
	"main",
}

var numberPattern = regexp.MustCompile(`\d+/\d{4}`)

// Option configures a Scraper.
type Option func(*Scraper)

// WithTransport sets the HTTP transport used by the collectors.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Scraper) {
		s.transport = rt
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		s.timeout = d
	}
}

// Scraper fetches diplomas published in the Diário da República.
type Scraper struct {
	baseURL      *url.URL
	delay        time.Duration
	userAgent    string
	maxDocuments int
	timeout      time.Duration
	transport    http.RoundTripper
}

// New creates a scraper from settings. Empty fields take the defaults.
func New(settings domain.ScraperSettings, opts ...Option) (*Scraper, error) {
	defaults := domain.DefaultAppSettings().Scraper
	if settings.BaseURL == "" {
		settings.BaseURL = defaults.BaseURL
	}
	if settings.UserAgent == "" {
		settings.UserAgent = defaults.UserAgent
	}
	if settings.MaxDocuments <= 0 {
		settings.MaxDocuments = defaults.MaxDocuments
	}
	if settings.Delay < 0 {
		settings.Delay = 0
	}

	base, err := url.Parse(strings.TrimRight(settings.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: scraper base url %q", domain.ErrInvalidInput, settings.BaseURL)
	}

	s := &Scraper{
		baseURL:      base,
		delay:        settings.Delay,
		userAgent:    settings.UserAgent,
		maxDocuments: settings.MaxDocuments,
		timeout:      defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// listing is one diploma entry on a day page.
type listing struct {
	title   string
	number  string
	summary string
	link    string
	date    string
}

// FetchRange visits each day from from to to and fetches the full text of
// every listed diploma, stopping after max documents. Failures of single
// days or diplomas are joined into the returned error alongside the
// documents that were fetched.
func (s *Scraper) FetchRange(ctx context.Context, from, to time.Time, max int) ([]domain.RawDocument, error) {
	if max <= 0 {
		max = s.maxDocuments
	}
	start := truncateDay(from)
	end := truncateDay(to)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range ends before it starts", domain.ErrInvalidInput)
	}

	var (
		docs []domain.RawDocument
		errs []error
	)
	for day := start; !day.After(end) && len(docs) < max; day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return docs, err
		}

		date := day.Format(time.DateOnly)
		entries, err := s.listDay(ctx, date)
		if err != nil {
			log.Warn("listing %s: %v", date, err)
			errs = append(errs, fmt.Errorf("list %s: %w", date, err))
			continue
		}
		log.Debug("%s: %d diplomas listed", date, len(entries))

		for _, entry := range entries {
			if len(docs) >= max {
				break
			}
			if err := ctx.Err(); err != nil {
				return docs, err
			}
			raw, err := s.fetchDiploma(ctx, entry)
			if err != nil {
				log.Warn("diploma %q: %v", entry.title, err)
				errs = append(errs, fmt.Errorf("fetch %s: %w", entry.title, err))
				continue
			}
			docs = append(docs, *raw)
		}
	}

	log.Info("Fetched %d diplomas between %s and %s", len(docs), start.Format(time.DateOnly), end.Format(time.DateOnly))
	return docs, errors.Join(errs...)
}

// newCollector builds a synchronous collector bound to ctx.
func (s *Scraper) newCollector(ctx context.Context) (*colly.Collector, error) {
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)
	if s.transport != nil {
		c.WithTransport(s.transport)
	}
	if s.delay > 0 {
		if err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: 1,
			Delay:       s.delay,
		}); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		r.Headers.Set("Accept-Language", "pt-PT,pt;q=0.9")
	})
	return c, nil
}

// visit runs one request and returns the first transport or HTTP error.
func visit(c *colly.Collector, target string) error {
	var (
		mu       sync.Mutex
		firstErr error
	)
	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = fmt.Errorf("%s (status %d): %w", r.Request.URL, r.StatusCode, err)
		}
	})
	if err := c.Visit(target); err != nil {
		return err
	}
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	return firstErr
}

// listDay parses the diploma listing of one publication day.
func (s *Scraper) listDay(ctx context.Context, date string) ([]listing, error) {
	c, err := s.newCollector(ctx)
	if err != nil {
		return nil, err
	}

	var entries []listing
	c.OnHTML(listingSelector, func(e *colly.HTMLElement) {
		entries = append(entries, parseListing(e.DOM, date, e.Request.AbsoluteURL))
	})

	if err := visit(c, s.baseURL.String()+DayPath+date); err != nil {
		return nil, err
	}
	return entries, nil
}

// parseListing reads title, number, summary and link from a listing entry.
func parseListing(sel *goquery.Selection, date string, resolve func(string) string) listing {
	entry := listing{
		title:   strings.TrimSpace(sel.Find("h2, h3").First().Text()),
		summary: strings.TrimSpace(sel.Find("div.diploma-sumario, p.summary").First().Text()),
		date:    date,
	}

	entry.number = numberPattern.FindString(sel.Find("span.diploma-numero").First().Text())
	if entry.number == "" {
		entry.number = legal.ExtractDocumentNumber(entry.title)
	}

	if href, ok := sel.Find("a[href]").First().Attr("href"); ok && href != "" {
		entry.link = resolve(href)
	}
	return entry
}

// fetchDiploma downloads a diploma page and turns it into a raw document.
// Entries without a link are kept with their summary as content.
func (s *Scraper) fetchDiploma(ctx context.Context, entry listing) (*domain.RawDocument, error) {
	text := ""
	uri := entry.link

	if entry.link != "" {
		c, err := s.newCollector(ctx)
		if err != nil {
			return nil, err
		}
		c.OnHTML("html", func(e *colly.HTMLElement) {
			text = extractDiplomaText(e.DOM)
		})
		if err := visit(c, entry.link); err != nil {
			return nil, err
		}
	} else {
		uri = s.baseURL.String() + DayPath + entry.date + "#" + url.PathEscape(entry.title)
	}

	if strings.TrimSpace(text) == "" {
		text = strings.TrimSpace(strings.Join([]string{entry.title, entry.summary}, "\n\n"))
	}
	if text == "" {
		return nil, domain.ErrEmptyDocument
	}

	raw := &domain.RawDocument{
		Source:   domain.SourceDiarioRepublica,
		URI:      uri,
		MIMEType: "text/plain",
		Content:  []byte(text),
		Metadata: map[string]any{
			"source_url": s.baseURL.String(),
			"scraped_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	raw.SetHint(domain.HintTitle, entry.title)
	raw.SetHint(domain.HintPublicationDate, entry.date)
	raw.SetHint(domain.HintSummary, entry.summary)

	docType := legal.DetectDocumentType(entry.title)
	if docType != domain.DocumentTypeOther {
		raw.SetHint(domain.HintDocumentType, string(docType))
	}
	if entry.number != "" && legal.ValidateDocumentNumber(docType, entry.number) {
		raw.SetHint(domain.HintNumber, entry.number)
	}
	return raw, nil
}

// extractDiplomaText returns the diploma body. Article fragments are
// rendered as heading, epigraph and text lines; other layouts fall back to
// the first matching content block, then the whole body.
func extractDiplomaText(page *goquery.Selection) string {
	if fragments := page.Find(fragmentSelector); fragments.Length() > 0 {
		var parts []string
		page.Find(introSelector).Each(func(_ int, intro *goquery.Selection) {
			if intro.ParentsFiltered(fragmentSelector).Length() == 0 {
				if text := htmlnorm.ExtractText(intro); text != "" {
					parts = append(parts, text)
				}
			}
		})
		fragments.Each(func(_ int, frag *goquery.Selection) {
			var lines []string
			for _, sel := range []string{".Fragmento_Titulo", ".Fragmento_Epigrafe", ".Fragmento_Texto"} {
				if text := htmlnorm.ExtractText(frag.Find(sel).First()); text != "" {
					lines = append(lines, text)
				}
			}
			if len(lines) > 0 {
				parts = append(parts, strings.Join(lines, "\n"))
			}
		})
		return strings.Join(parts, "\n\n")
	}

	for _, sel := range contentSelectors {
		if block := page.Find(sel).First(); block.Length() > 0 {
			if text := htmlnorm.ExtractText(block); text != "" {
				return text
			}
		}
	}
	return htmlnorm.ExtractText(page.Find("body"))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
