package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/custodia-labs/lexrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/lexrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/lexrag/internal/adapters/driven/queue"
	"github.com/custodia-labs/lexrag/internal/adapters/driven/scraper/diariorepublica"
	"github.com/custodia-labs/lexrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/lexrag/internal/adapters/driven/storage/mongodb"
	"github.com/custodia-labs/lexrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lexrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/services"
	"github.com/custodia-labs/lexrag/internal/logger"
	"github.com/custodia-labs/lexrag/internal/normalisers"
	"github.com/custodia-labs/lexrag/internal/postprocessors"
)

// storage groups the ports served by one backend.
type storage struct {
	docs      driven.DocumentStore
	search    driven.SearchEngine
	vectors   driven.VectorIndex
	scheduler driven.SchedulerStore
	closer    io.Closer
}

// buildServices wires adapters and services from the stored settings.
func buildServices(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	dir := opts.ConfigDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, nil, err
		}
		dir = d
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*cli.Services, func(), error) {
		cleanup()
		return nil, nil, err
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return fail(fmt.Errorf("failed to open config: %w", err))
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fail(fmt.Errorf("failed to load settings: %w", err))
	}

	dataDir := filepath.Join(dir, "data")
	store, err := openStorage(ctx, settings.Storage, dataDir)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = store.closer.Close() })

	aiResult := ai.Initialise(settings, dataDir)
	closers = append(closers, aiResult.Close)

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return fail(fmt.Errorf("failed to open prompts: %w", err))
	}

	pipeline, err := buildPipeline(settings.Chunking)
	if err != nil {
		return fail(err)
	}

	ingestService := services.NewIngestService(
		normalisers.NewDefaultRegistry(),
		pipeline,
		store.docs,
		store.search,
		store.vectors,
		aiResult.EmbeddingService,
		settings.Ingest.Workers,
	)
	searchService := services.NewSearchService(
		store.docs, store.search, store.vectors, aiResult.EmbeddingService, settings.Retrieval)

	var taskQueue driven.TaskQueue
	switch client, err := queue.New(settings.Queue); {
	case err == nil:
		taskQueue = client
		closers = append(closers, func() { _ = client.Close() })
	case !errors.Is(err, domain.ErrQueueUnavailable):
		return fail(fmt.Errorf("failed to create queue client: %w", err))
	}

	scraper, err := diariorepublica.New(settings.Scraper)
	if err != nil {
		return fail(fmt.Errorf("failed to create scraper: %w", err))
	}
	scrapeService := services.NewScrapeService(scraper, ingestService, taskQueue, settings.Scraper)

	svc := &cli.Services{
		Settings:  settingsService,
		Ingest:    ingestService,
		Document:  services.NewDocumentService(store.docs, store.search, store.vectors),
		Search:    searchService,
		Ask:       services.NewAskService(searchService, store.docs, aiResult.LLMService, prompts, settings.Retrieval.TopK),
		Scrape:    scrapeService,
		Scheduler: services.NewScheduler(store.scheduler, scrapeService, settings.Scraper),
		Queue:     taskQueue,
	}

	logger.Debug("services ready (storage %s, data %s)", settings.Storage.Backend, dataDir)
	return svc, cleanup, nil
}

// openStorage opens the configured backend. MongoDB has no scheduler
// collection, so task history stays in SQLite alongside it.
func openStorage(ctx context.Context, cfg domain.StorageSettings, dataDir string) (*storage, error) {
	switch cfg.Backend {
	case domain.StorageMemory:
		docs := memory.NewDocumentStore()
		return &storage{
			docs:      docs,
			search:    memory.NewSearchEngine(docs),
			vectors:   memory.NewVectorIndex(docs),
			scheduler: memory.NewSchedulerStore(),
			closer:    multiCloser{},
		}, nil

	case domain.StorageMongo:
		mongo, err := mongodb.NewStore(ctx, mongodb.Config{
			URI:                 cfg.MongoURI,
			Database:            cfg.Database,
			DocumentsCollection: cfg.DocumentsCollection,
			VectorsCollection:   cfg.VectorsCollection,
			VectorIndexName:     cfg.VectorIndex,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open mongodb: %w", err)
		}
		local, err := sqlite.NewStore(dataDir)
		if err != nil {
			_ = mongo.Close()
			return nil, fmt.Errorf("failed to open scheduler store: %w", err)
		}
		return &storage{
			docs:      mongo.DocumentStore(),
			search:    mongo.SearchEngine(),
			vectors:   mongo.VectorIndex(),
			scheduler: local.SchedulerStore(),
			closer:    multiCloser{mongo, local},
		}, nil

	default:
		db, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return &storage{
			docs:      db.DocumentStore(),
			search:    db.SearchEngine(),
			vectors:   db.VectorIndex(),
			scheduler: db.SchedulerStore(),
			closer:    db,
		}, nil
	}
}

// buildPipeline chains the article-aware chunker with law reference tagging.
func buildPipeline(chunking domain.ChunkingSettings) (*postprocessors.Pipeline, error) {
	p, err := postprocessors.BuildPipeline(postprocessors.NewDefaultRegistry(), domain.PipelineConfigFor(chunking))
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return p, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
