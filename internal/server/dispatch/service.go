// Package dispatch assigns backlog tasks to workers and reconciles their
// completion reports.
//
// Tasks are not removed from the backlog on assignment: several workers may
// hold and compute the same task concurrently, and the first accepted "ok"
// result finalizes it. That is what makes the engine tolerate unreliable,
// crash-prone or malicious workers. Per-worker issued sets only guarantee
// the same task is never handed to the same worker twice.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/taskhive/taskhive/internal/common"
	"github.com/taskhive/taskhive/internal/logging"
	"github.com/taskhive/taskhive/internal/server/metrics"
	"github.com/taskhive/taskhive/internal/server/projects"
)

// Status is a worker's verdict on an issued task.
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusRefused Status = "refused"
)

// Task is an issued unit of work: the blob ID and its payload.
type Task struct {
	ID      uint64
	Payload []byte
}

// Metrics is the slice of the recorder the distributor needs.
type Metrics interface {
	ChangeSeries(project, name string, delta float64) error
}

type Service struct {
	repo     projects.Repository
	metrics  Metrics
	logger   logging.Logger
	maxTasks int

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	issued *issuedTracker
}

// NewService builds a distributor over the given project repository.
// maxTasks caps how many tasks a single GetTasks call may hand out;
// zero or negative means no cap.
func NewService(repo projects.Repository, m Metrics, logger logging.Logger, maxTasks int) *Service {
	return &Service{
		repo:     repo,
		metrics:  m,
		logger:   logger.With("module", "dispatch"),
		maxTasks: maxTasks,
		locks:    make(map[string]*sync.Mutex),
		issued:   newIssuedTracker(),
	}
}

// projectLock returns the mutex serializing compound read-then-write
// sequences for one project. Lock order is always project before the
// issued tracker's internal mutex.
func (s *Service) projectLock(project string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[project]
	if !ok {
		l = &sync.Mutex{}
		s.locks[project] = l
	}
	return l
}

func (s *Service) changeSeries(ctx context.Context, project, name string, delta float64) {
	if err := s.metrics.ChangeSeries(project, name, delta); err != nil {
		s.logger.Error(ctx, "metrics update failed", "project", project, "series", name, "error", err)
	}
}

// GetTasks hands the worker up to maxCount backlog tasks it does not
// already hold, in backlog order. The worker's first contact with the
// project bumps totalWorkers; going from zero held tasks to some bumps
// activeWorkers.
func (s *Service) GetTasks(ctx context.Context, project, worker string, maxCount int) ([]Task, error) {

	lock := s.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	backlog, err := s.repo.Backlog(ctx, project)
	if err != nil {
		return nil, err
	}

	if first := s.issued.touch(worker, project); first {
		s.changeSeries(ctx, project, metrics.SeriesTotalWorkers, 1)
	}

	held := s.issued.snapshot(worker, project)
	if len(held) == 0 {
		s.changeSeries(ctx, project, metrics.SeriesActiveWorkers, 1)
	}

	limit := maxCount
	if limit < 0 {
		limit = 0
	}
	if s.maxTasks > 0 && limit > s.maxTasks {
		limit = s.maxTasks
	}

	tasks := make([]Task, 0, limit)
	issuedIDs := make([]uint64, 0, limit)

	for _, id := range backlog {
		if len(tasks) >= limit {
			break
		}
		if _, ok := held[id]; ok {
			continue
		}

		blob, err := s.repo.GetBlob(ctx, project, id)
		if err != nil {
			// backlog and blob store disagree
			return nil, fmt.Errorf("%w: backlog references missing blob %d", common.ErrInternal, id)
		}

		tasks = append(tasks, Task{ID: id, Payload: blob.Payload})
		issuedIDs = append(issuedIDs, id)
	}

	s.issued.add(worker, project, issuedIDs)

	s.logger.Debug(ctx, "tasks issued", "project", project, "worker", worker, "count", len(tasks))

	return tasks, nil
}

// SendTask reconciles one task report against the backlog.
//
//   - "ok": the task leaves the backlog permanently; each result becomes a
//     new blob in the project. If a racing worker already finalized the
//     task, the report still succeeds but stores and credits nothing
//     (first ok wins).
//   - "error": the task is removed from this worker's issued set only and
//     stays assignable to anyone, including this worker.
//   - "refused": counted, no state change.
func (s *Service) SendTask(ctx context.Context, project string, taskID uint64, results, metadatas [][]byte, worker string, status Status) error {

	lock := s.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.repo.GetBlob(ctx, project, taskID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: task %d", common.ErrNotFound, taskID)
		}
		return err
	}

	if !s.issued.contains(worker, project, taskID) {
		return fmt.Errorf("%w: task %d was not issued to worker %q", common.ErrState, taskID, worker)
	}

	switch status {
	case StatusOK:
		finalized, err := s.repo.CompleteTask(ctx, project, taskID)
		if err != nil {
			return err
		}
		if !finalized {
			// a racing worker got here first
			s.logger.Debug(ctx, "duplicate ok result dropped", "project", project, "task", taskID, "worker", worker)
			return nil
		}

		for i, result := range results {
			var meta []byte
			if i < len(metadatas) {
				meta = metadatas[i]
			}
			if _, err := s.repo.CreateBlob(ctx, project, result, meta); err != nil {
				return fmt.Errorf("storing result %d of task %d: %w", i, taskID, err)
			}
		}

		s.changeSeries(ctx, project, metrics.SeriesTasksCompleted, 1)

	case StatusError:
		s.issued.remove(worker, project, taskID)
		s.changeSeries(ctx, project, metrics.SeriesTasksFailed, 1)

	case StatusRefused:
		s.changeSeries(ctx, project, metrics.SeriesTasksRefused, 1)

	default:
		return fmt.Errorf("%w: invalid status %q", common.ErrValidation, status)
	}

	return nil
}

// WorkerLoggedIn restores the activeWorkers presence signal for every
// project the worker has bookkeeping for.
func (s *Service) WorkerLoggedIn(ctx context.Context, username string) {
	for _, project := range s.issued.projectsOf(username) {
		s.changeSeries(ctx, project, metrics.SeriesActiveWorkers, 1)
	}
}

// WorkerLoggedOut drops the activeWorkers presence signal for every
// project the worker has bookkeeping for. This is a presence signal, not a
// task-count signal: the worker's issued tasks stay issued.
func (s *Service) WorkerLoggedOut(ctx context.Context, username string) {
	for _, project := range s.issued.projectsOf(username) {
		s.changeSeries(ctx, project, metrics.SeriesActiveWorkers, -1)
	}
}
