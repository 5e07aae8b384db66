package domain

import "time"

// TaskIDScrapeRecent is the daily Diário da República scrape.
const TaskIDScrapeRecent = "scrape-recent"

// ScheduledTask is the stored state of a recurring job. An empty Schedule
// means the task only runs on demand.
type ScheduledTask struct {
	ID       string
	Name     string
	Schedule string // cron expression

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time
	LastError   string // cleared by the next successful run
}

// Manual reports whether the task has no cron schedule.
func (t ScheduledTask) Manual() bool {
	return t.Schedule == ""
}

// TaskResult records one run of a task. ItemsProcessed counts diplomas
// indexed; ItemsFailed counts diplomas fetched but not indexed.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	ItemsProcessed int
	ItemsFailed    int
}

// Duration returns how long the run took.
func (r TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// TaskStatus is a task's stored state with its most recent runs.
type TaskStatus struct {
	Task   ScheduledTask
	Recent []TaskResult // newest first
}

// LastResult returns the newest run, or nil if the task never ran.
func (s TaskStatus) LastResult() *TaskResult {
	if len(s.Recent) == 0 {
		return nil
	}
	return &s.Recent[0]
}
