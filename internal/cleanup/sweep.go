// Package cleanup retries hosting provider project deletions that failed
// while a project was being deleted.
package cleanup

import (
	"context"
	"fmt"

	"github.com/sitecraft-ai/sitecraft-backend/internal/logging"
)

const defaultBatch = 50

// Queue is the pending deletion set.
type Queue interface {
	Push(ctx context.Context, name string) error
	Pop(ctx context.Context, n int) ([]string, error)
}

// Deleter removes a hosting project. Deleting a missing project succeeds.
type Deleter interface {
	DeleteProject(ctx context.Context, name string) error
}

// Report summarizes one sweep.
type Report struct {
	Deleted  int
	Requeued int
}

type Sweeper struct {
	queue   Queue
	deleter Deleter
	batch   int
}

func NewSweeper(queue Queue, deleter Deleter) *Sweeper {
	return &Sweeper{queue: queue, deleter: deleter, batch: defaultBatch}
}

// Sweep drains the queue once. Names that fail again are pushed back after
// the queue is empty so a single pass never retries the same name twice.
func (s *Sweeper) Sweep(ctx context.Context) (Report, error) {
	logger := logging.FromContext(ctx, "cleanup")

	var report Report
	var failed []string
	for {
		names, err := s.queue.Pop(ctx, s.batch)
		if err != nil {
			return report, s.requeue(ctx, failed, &report, err)
		}
		if len(names) == 0 {
			break
		}
		for _, name := range names {
			if err := s.deleter.DeleteProject(ctx, name); err != nil {
				logger.Warn().Err(err).Str("hosting_project", name).Msg("hosting delete failed")
				failed = append(failed, name)
				continue
			}
			report.Deleted++
		}
		if ctx.Err() != nil {
			break
		}
	}

	return report, s.requeue(ctx, failed, &report, ctx.Err())
}

func (s *Sweeper) requeue(ctx context.Context, names []string, report *Report, cause error) error {
	// Push even when ctx is done so failed names are not lost.
	pushCtx := context.WithoutCancel(ctx)
	for _, name := range names {
		if err := s.queue.Push(pushCtx, name); err != nil {
			return fmt.Errorf("requeue %s: %w", name, err)
		}
		report.Requeued++
	}
	return cause
}
