// Package worker runs the periodic index sync loop.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/worklens/internal/domain"
)

// Syncer runs one index cycle for one project.
type Syncer interface {
	SyncProject(ctx context.Context, organization, project string) (domain.SyncStats, error)
}

// Project identifies one upstream project to keep indexed.
type Project struct {
	Organization string
	Project      string
}

// Worker ticks on a fixed interval and syncs each configured project in
// turn. Projects run sequentially so one upstream rate limit budget is
// never split across concurrent cycles.
type Worker struct {
	syncer   Syncer
	projects []Project
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a Worker. interval must be positive.
func New(syncer Syncer, projects []Project, interval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		syncer:   syncer,
		projects: projects,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the sync loop in a goroutine and returns immediately.
// The first cycle runs after one full interval, so a restart storm does
// not hammer the upstream. Calling Start twice is a no-op.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the loop to exit and waits for an in-flight cycle to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.logger.Info("Index worker started",
		zap.Duration("interval", w.interval),
		zap.Int("projects", len(w.projects)))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Index worker stopped", zap.Error(ctx.Err()))
			return
		case <-w.stopCh:
			w.logger.Info("Index worker stopped")
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

// syncAll runs one cycle per project. A failing project is logged and
// skipped; the remaining projects still sync.
func (w *Worker) syncAll(ctx context.Context) {
	for _, p := range w.projects {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		stats, err := w.syncer.SyncProject(ctx, p.Organization, p.Project)
		if err != nil {
			w.logger.Error("Project sync failed",
				zap.String("organization", p.Organization),
				zap.String("project", p.Project),
				zap.Error(err))
			continue
		}

		w.logger.Info("Project sync completed",
			zap.String("organization", stats.Organization),
			zap.String("project", stats.Project),
			zap.Int("pull_requests_indexed", stats.PullRequestsIndexed),
			zap.Int("work_items_indexed", stats.WorkItemsIndexed),
			zap.Int("documents_deleted", stats.DocumentsDeleted),
			zap.Int("errors", len(stats.Errors)),
			zap.Duration("duration", stats.Duration))
	}
}
