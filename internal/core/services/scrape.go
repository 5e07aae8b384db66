package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Ensure ScrapeService implements the interface.
var _ driving.ScrapeService = (*ScrapeService)(nil)

// ScrapeService pulls recently published diplomas into the index.
type ScrapeService struct {
	scraper  driven.Scraper
	ingest   driving.IngestService
	queue    driven.TaskQueue
	settings domain.ScraperSettings
	now      func() time.Time
}

// NewScrapeService creates a scrape service.
// The queue is optional; without it documents are always ingested inline.
func NewScrapeService(
	scraper driven.Scraper,
	ingest driving.IngestService,
	queue driven.TaskQueue,
	settings domain.ScraperSettings,
) *ScrapeService {
	defaults := domain.DefaultAppSettings().Scraper
	if settings.Days <= 0 {
		settings.Days = defaults.Days
	}
	if settings.MaxDocuments <= 0 {
		settings.MaxDocuments = defaults.MaxDocuments
	}
	return &ScrapeService{
		scraper:  scraper,
		ingest:   ingest,
		queue:    queue,
		settings: settings,
		now:      time.Now,
	}
}

// ScrapeRecent fetches diplomas published in the last days and ingests or
// enqueues them.
func (s *ScrapeService) ScrapeRecent(ctx context.Context, opts driving.ScrapeOptions) (*driving.ScrapeResult, error) {
	logger.Section("Scrape")
	if s.scraper == nil {
		return nil, fmt.Errorf("%w: no scraper configured", domain.ErrInvalidInput)
	}
	if opts.Enqueue && s.queue == nil {
		return nil, domain.ErrQueueUnavailable
	}

	days := opts.Days
	if days <= 0 {
		days = s.settings.Days
	}
	limit := opts.MaxDocuments
	if limit <= 0 {
		limit = s.settings.MaxDocuments
	}

	to := s.now()
	from := to.AddDate(0, 0, -days)
	logger.Info("Fetching diplomas from %s to %s (max %d)", from.Format(time.DateOnly), to.Format(time.DateOnly), limit)

	raws, err := s.scraper.FetchRange(ctx, from, to, limit)
	if err != nil && len(raws) == 0 {
		return nil, fmt.Errorf("fetch diplomas: %w", err)
	}
	if err != nil {
		logger.Warn("Scrape incomplete, continuing with %d diplomas: %v", len(raws), err)
	}
	for i := range raws {
		if raws[i].Source == "" {
			raws[i].Source = domain.SourceDiarioRepublica
		}
	}

	result := &driving.ScrapeResult{Fetched: len(raws)}
	if len(raws) == 0 {
		return result, nil
	}

	if opts.Enqueue {
		var errs []error
		for i := range raws {
			if qErr := s.queue.EnqueueIngest(ctx, &raws[i]); qErr != nil {
				errs = append(errs, fmt.Errorf("%s: %w", raws[i].URI, qErr))
				continue
			}
			result.Enqueued++
		}
		logger.Info("Enqueued %d/%d diplomas", result.Enqueued, len(raws))
		return result, errors.Join(errs...)
	}

	report, err := s.ingest.IngestBatch(ctx, raws)
	result.Report = report
	return result, err
}
