package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pjoubert/linkvigil/internal/domain"
	"github.com/pjoubert/linkvigil/internal/logger"
)

// Task pairs a record with the stagger delay it must wait out before
// its request starts.
type Task struct {
	Record     *domain.BookmarkRecord
	StartDelay time.Duration
}

// WorkFunc processes a single record. Implementations absorb their own
// per-record failures; a WorkFunc never reports an error because one
// bad bookmark must not abort the batch.
type WorkFunc func(ctx context.Context, rec *domain.BookmarkRecord)

// Plan converts a flat batch into staggered tasks. Records sharing a
// domain are ranked in encounter order and the n-th one waits
// n × perTask before starting, spreading load on any single host while
// different hosts proceed in parallel. The stagger is a scheduling hint
// only: nothing prevents two same-host requests from overlapping when
// latency exceeds the interval.
func Plan(records []*domain.BookmarkRecord, perTask time.Duration) []Task {
	tasks := make([]Task, 0, len(records))
	ranks := make(map[string]int, len(records))

	for _, rec := range records {
		rank := ranks[rec.Domain]
		ranks[rec.Domain] = rank + 1

		tasks = append(tasks, Task{
			Record:     rec,
			StartDelay: time.Duration(rank) * perTask,
		})
	}

	return tasks
}

// Runner executes a planned task set as one concurrent group.
type Runner struct {
	logger      logger.Logger
	maxInFlight int
}

// NewRunner creates a Runner. maxInFlight bounds concurrent tasks;
// 0 means unbounded (every task gets its own goroutine immediately).
func NewRunner(log logger.Logger, maxInFlight int) *Runner {
	return &Runner{
		logger:      log,
		maxInFlight: maxInFlight,
	}
}

// Run dispatches every task, waits for the whole group, and returns the
// processed records sorted ascending by ID. Each record is owned
// exclusively by its task for the task's lifetime, so work needs no
// locking. Run returns early only when ctx is cancelled; records whose
// tasks already completed keep their results.
func (r *Runner) Run(ctx context.Context, tasks []Task, work WorkFunc) ([]*domain.BookmarkRecord, error) {
	g, ctx := errgroup.WithContext(ctx)
	if r.maxInFlight > 0 {
		g.SetLimit(r.maxInFlight)
	}

	results := make([]*domain.BookmarkRecord, len(tasks))

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			if task.StartDelay > 0 {
				timer := time.NewTimer(task.StartDelay)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				}
			}

			work(ctx, task.Record)
			results[i] = task.Record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Warn("task group interrupted", logger.Error(err))
		return nil, err
	}

	completed := results[:0]
	for _, rec := range results {
		if rec != nil {
			completed = append(completed, rec)
		}
	}

	domain.SortByID(completed)
	return completed, nil
}
