package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/custodia-labs/lexrag/internal/core/domain"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
	"github.com/custodia-labs/lexrag/internal/core/ports/driving"
	"github.com/custodia-labs/lexrag/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyKeep is how many results are kept per task.
const historyKeep = 100

// taskCounts is what a task run reports about the items it handled.
type taskCounts struct {
	processed int
	failed    int
}

type taskFunc func(ctx context.Context) (taskCounts, error)

type taskDef struct {
	name     string
	schedule string
	run      taskFunc
}

// Scheduler runs the periodic scrape on a cron schedule and records
// every run in the scheduler store.
type Scheduler struct {
	store driven.SchedulerStore
	cron  *gocron.Scheduler
	tasks map[string]taskDef
	now   func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	jobs    map[string]*gocron.Job
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler for the built-in tasks.
// A nil scrape service or an empty schedule disables the scrape task.
func NewScheduler(
	store driven.SchedulerStore,
	scrape driving.ScrapeService,
	settings domain.ScraperSettings,
) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.TagsUnique()
	cron.SingletonModeAll()

	s := &Scheduler{
		store: store,
		cron:  cron,
		tasks: make(map[string]taskDef),
		jobs:  make(map[string]*gocron.Job),
		now:   time.Now,
	}

	if scrape != nil {
		s.tasks[domain.TaskIDScrapeRecent] = taskDef{
			name:     "Scrape Diário da República",
			schedule: settings.Schedule,
			run: func(ctx context.Context) (taskCounts, error) {
				res, err := scrape.ScrapeRecent(ctx, driving.ScrapeOptions{})
				if res == nil {
					return taskCounts{}, err
				}
				switch {
				case res.Enqueued > 0:
					return taskCounts{processed: res.Enqueued}, err
				case res.Report != nil:
					return taskCounts{processed: res.Report.Succeeded(), failed: res.Report.Failed()}, err
				default:
					return taskCounts{processed: res.Fetched}, err
				}
			},
		}
	}
	return s
}

// Start registers the cron jobs and blocks until ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for id, def := range s.tasks {
		if err := s.ensureTask(ctx, id, def); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("initialise task %s: %w", id, err)
		}
		if def.schedule == "" {
			logger.Info("Task %s has no schedule, run it with RunNow", id)
			continue
		}
		job, err := s.cron.Cron(def.schedule).Tag(id).Do(func() {
			if _, err := s.execute(runCtx, id); err != nil {
				logger.Warn("scheduler: %s: %v", id, err)
			}
		})
		if err != nil {
			s.cron.Clear()
			s.mu.Unlock()
			return fmt.Errorf("%w: schedule %q for %s: %v", domain.ErrInvalidInput, def.schedule, id, err)
		}
		s.jobs[id] = job
	}

	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.cron.StartAsync()
	s.mu.Unlock()

	s.saveNextRuns(ctx)
	logger.Info("Scheduler started with %d job(s)", len(s.jobs))

	select {
	case <-ctx.Done():
		s.shutdown()
		return ctx.Err()
	case <-stopCh:
		return nil
	}
}

// Stop halts the cron jobs and waits for running tasks to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	close(s.stopCh)
	s.mu.Unlock()

	s.shutdown()
	return nil
}

func (s *Scheduler) shutdown() {
	s.mu.Lock()
	if s.running {
		s.running = false
		s.cron.Stop()
		s.cron.Clear()
		s.jobs = make(map[string]*gocron.Job)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// RunNow runs a task immediately and records its result.
func (s *Scheduler) RunNow(ctx context.Context, taskID string) (*domain.TaskResult, error) {
	def, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	if err := s.ensureTask(ctx, taskID, def); err != nil {
		return nil, fmt.Errorf("initialise task %s: %w", taskID, err)
	}
	return s.execute(ctx, taskID)
}

// Status returns a task's stored state and up to limit recent runs.
// A task that never ran reports its name and schedule only.
func (s *Scheduler) Status(ctx context.Context, taskID string, limit int) (*domain.TaskStatus, error) {
	def, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}

	status := &domain.TaskStatus{
		Task: domain.ScheduledTask{ID: taskID, Name: def.name, Schedule: def.schedule},
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task != nil {
		status.Task = *task
	}

	status.Recent, err = s.store.GetTaskHistory(ctx, taskID, limit)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// ensureTask creates the task in the store or refreshes its schedule.
func (s *Scheduler) ensureTask(ctx context.Context, id string, def taskDef) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		task = &domain.ScheduledTask{ID: id}
	}
	task.Name = def.name
	task.Schedule = def.schedule
	return s.store.SaveTask(ctx, task)
}

// saveNextRuns stores the next activation of each registered job.
func (s *Scheduler) saveNextRuns(ctx context.Context) {
	s.mu.Lock()
	next := make(map[string]time.Time, len(s.jobs))
	for id, job := range s.jobs {
		next[id] = job.NextRun()
	}
	s.mu.Unlock()

	for id, at := range next {
		task, err := s.store.GetTask(ctx, id)
		if err != nil || task == nil {
			continue
		}
		task.NextRun = at
		if err := s.store.SaveTask(ctx, task); err != nil {
			logger.Warn("scheduler: failed to save task %s: %v", id, err)
		}
	}
}

// execute runs a task, updates its state and records the result.
// The returned error is the task's own failure.
func (s *Scheduler) execute(ctx context.Context, taskID string) (*domain.TaskResult, error) {
	s.wg.Add(1)
	defer s.wg.Done()

	def := s.tasks[taskID]
	result := &domain.TaskResult{
		TaskID:    taskID,
		StartedAt: s.now(),
	}

	logger.Debug("scheduler: running %s", taskID)
	counts, runErr := def.run(ctx)
	result.EndedAt = s.now()
	result.ItemsProcessed = counts.processed
	result.ItemsFailed = counts.failed
	result.Success = runErr == nil
	if runErr != nil {
		result.Error = runErr.Error()
	}

	task, err := s.store.GetTask(ctx, taskID)
	if err != nil || task == nil {
		task = &domain.ScheduledTask{ID: taskID, Name: def.name, Schedule: def.schedule}
	}
	task.LastRun = result.StartedAt
	if runErr != nil {
		task.LastError = runErr.Error()
	} else {
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	}
	s.mu.Lock()
	if job, ok := s.jobs[taskID]; ok {
		task.NextRun = job.NextRun()
	}
	s.mu.Unlock()

	if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
		logger.Warn("scheduler: failed to save task %s: %v", taskID, saveErr)
	}
	if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", taskID, recordErr)
	}
	if pruneErr := s.store.PruneHistory(ctx, historyKeep); pruneErr != nil {
		logger.Warn("scheduler: failed to prune history: %v", pruneErr)
	}

	logger.Info("Task %s finished in %s (%d items, %d failed)",
		taskID, result.Duration().Round(time.Millisecond), counts.processed, counts.failed)
	return result, runErr
}
