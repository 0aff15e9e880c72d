package dispatch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/common"
	"github.com/taskhive/taskhive/internal/logging"
	"github.com/taskhive/taskhive/internal/server/metrics"
	"github.com/taskhive/taskhive/internal/server/projects"
)

type fakeMetrics struct {
	mu     sync.Mutex
	totals map[string]float64 // "project/series" → cumulative delta
}

func (f *fakeMetrics) ChangeSeries(project, name string, delta float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.totals == nil {
		f.totals = make(map[string]float64)
	}
	f.totals[project+"/"+name] += delta
	return nil
}

func (f *fakeMetrics) total(project, name string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals[project+"/"+name]
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestDispatch builds a distributor over a project "P" with n plain
// tasks already in the backlog.
func newTestDispatch(t *testing.T, n int) (*Service, *projects.MemoryRepository, *fakeMetrics) {
	t.Helper()
	ctx := context.Background()

	repo := projects.NewMemoryRepository()
	require.NoError(t, repo.CreateProject(ctx, "P", "d"))
	for i := 0; i < n; i++ {
		id, err := repo.CreateBlob(ctx, "P", []byte{byte(i)}, nil)
		require.NoError(t, err)
		require.NoError(t, repo.MarkTask(ctx, "P", id))
	}

	m := &fakeMetrics{}
	return NewService(repo, m, testLogger(), 0), repo, m
}

func taskIDs(tasks []Task) []uint64 {
	ids := make([]uint64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

func TestGetTasks_UnknownProject(t *testing.T) {
	svc, _, _ := newTestDispatch(t, 0)

	_, err := svc.GetTasks(context.Background(), "missing", "bob", 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetTasks_BacklogOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestDispatch(t, 3)

	tasks, err := svc.GetTasks(ctx, "P", "bob", 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, taskIDs(tasks))
	assert.Equal(t, []byte{0}, tasks[0].Payload)

	tasks, err = svc.GetTasks(ctx, "P", "bob", 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, taskIDs(tasks))
}

func TestGetTasks_NeverReissuesToSameWorker(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestDispatch(t, 3)

	seen := make(map[uint64]bool)
	for i := 0; i < 5; i++ {
		tasks, err := svc.GetTasks(ctx, "P", "bob", 10)
		require.NoError(t, err)
		for _, task := range tasks {
			assert.False(t, seen[task.ID], "task %d issued twice to the same worker", task.ID)
			seen[task.ID] = true
		}
	}
	assert.Len(t, seen, 3)
}

func TestGetTasks_SameTaskToManyWorkers(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestDispatch(t, 1)

	a, err := svc.GetTasks(ctx, "P", "alice", 1)
	require.NoError(t, err)
	b, err := svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)

	// assignment is replicated, not exclusive
	assert.Equal(t, taskIDs(a), taskIDs(b))
}

func TestGetTasks_WorkerCounters(t *testing.T) {
	ctx := context.Background()
	svc, _, m := newTestDispatch(t, 2)

	_, err := svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)
	assert.Equal(t, float64(1), m.total("P", metrics.SeriesTotalWorkers))
	assert.Equal(t, float64(1), m.total("P", metrics.SeriesActiveWorkers))

	// second call: already known, already holding a task
	_, err = svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)
	assert.Equal(t, float64(1), m.total("P", metrics.SeriesTotalWorkers))
	assert.Equal(t, float64(1), m.total("P", metrics.SeriesActiveWorkers))

	_, err = svc.GetTasks(ctx, "P", "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, float64(2), m.total("P", metrics.SeriesTotalWorkers))
}

func TestGetTasks_MaxTasksCap(t *testing.T) {
	ctx := context.Background()
	repo := projects.NewMemoryRepository()
	require.NoError(t, repo.CreateProject(ctx, "P", "d"))
	for i := 0; i < 5; i++ {
		id, err := repo.CreateBlob(ctx, "P", []byte("x"), nil)
		require.NoError(t, err)
		require.NoError(t, repo.MarkTask(ctx, "P", id))
	}

	svc := NewService(repo, &fakeMetrics{}, testLogger(), 2)

	tasks, err := svc.GetTasks(ctx, "P", "bob", 100)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	tasks, err = svc.GetTasks(ctx, "P", "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSendTask_OK(t *testing.T) {
	ctx := context.Background()
	svc, repo, m := newTestDispatch(t, 1)

	tasks, err := svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)
	id := tasks[0].ID

	err = svc.SendTask(ctx, "P", id, [][]byte{[]byte("r1"), []byte("r2")}, [][]byte{[]byte("m1")}, "bob", StatusOK)
	require.NoError(t, err)

	// the task left the backlog for good
	backlog, err := repo.Backlog(ctx, "P")
	require.NoError(t, err)
	assert.Empty(t, backlog)

	later, err := svc.GetTasks(ctx, "P", "carol", 10)
	require.NoError(t, err)
	assert.Empty(t, later)

	// every result became a blob; missing metadata is nil-padded
	r1, err := repo.GetBlob(ctx, "P", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), r1.Payload)
	assert.Equal(t, []byte("m1"), r1.Metadata)

	r2, err := repo.GetBlob(ctx, "P", 2)
	require.NoError(t, err)
	assert.Equal(t, []byte("r2"), r2.Payload)
	assert.Nil(t, r2.Metadata)

	assert.Equal(t, float64(1), m.total("P", metrics.SeriesTasksCompleted))
}

func TestSendTask_FirstOKWins(t *testing.T) {
	ctx := context.Background()
	svc, repo, m := newTestDispatch(t, 1)

	_, err := svc.GetTasks(ctx, "P", "alice", 1)
	require.NoError(t, err)
	_, err = svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)

	require.NoError(t, svc.SendTask(ctx, "P", 0, [][]byte{[]byte("first")}, nil, "alice", StatusOK))
	require.NoError(t, svc.SendTask(ctx, "P", 0, [][]byte{[]byte("second")}, nil, "bob", StatusOK))

	// only the first result was stored and credited
	_, err = repo.GetBlob(ctx, "P", 1)
	assert.NoError(t, err)
	_, err = repo.GetBlob(ctx, "P", 2)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, float64(1), m.total("P", metrics.SeriesTasksCompleted))
}

func TestSendTask_Error_Reeligible(t *testing.T) {
	ctx := context.Background()
	svc, _, m := newTestDispatch(t, 1)

	_, err := svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)

	require.NoError(t, svc.SendTask(ctx, "P", 0, nil, nil, "bob", StatusError))
	assert.Equal(t, float64(1), m.total("P", metrics.SeriesTasksFailed))

	// immediately assignable again, to the same worker too
	tasks, err := svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, taskIDs(tasks))
}

func TestSendTask_Refused(t *testing.T) {
	ctx := context.Background()
	svc, repo, m := newTestDispatch(t, 1)

	_, err := svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)

	require.NoError(t, svc.SendTask(ctx, "P", 0, nil, nil, "bob", StatusRefused))
	assert.Equal(t, float64(1), m.total("P", metrics.SeriesTasksRefused))

	// no backlog mutation, and the worker still holds the task
	backlog, err := repo.Backlog(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, backlog)

	tasks, err := svc.GetTasks(ctx, "P", "bob", 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSendTask_Failures(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestDispatch(t, 1)

	_, err := svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		project string
		taskID  uint64
		worker  string
		status  Status
		wantErr error
	}{
		{name: "unknown project", project: "missing", taskID: 0, worker: "bob", status: StatusOK, wantErr: common.ErrNotFound},
		{name: "unknown task", project: "P", taskID: 99, worker: "bob", status: StatusOK, wantErr: common.ErrNotFound},
		{name: "not issued to worker", project: "P", taskID: 0, worker: "mallory", status: StatusOK, wantErr: common.ErrState},
		{name: "bad status", project: "P", taskID: 0, worker: "bob", status: Status("done"), wantErr: common.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SendTask(ctx, tt.project, tt.taskID, nil, nil, tt.worker, tt.status)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPresence(t *testing.T) {
	ctx := context.Background()
	svc, _, m := newTestDispatch(t, 1)

	// bob has bookkeeping for P even after erroring his only task away
	_, err := svc.GetTasks(ctx, "P", "bob", 1)
	require.NoError(t, err)
	require.NoError(t, svc.SendTask(ctx, "P", 0, nil, nil, "bob", StatusError))

	before := m.total("P", metrics.SeriesActiveWorkers)
	svc.WorkerLoggedOut(ctx, "bob")
	assert.Equal(t, before-1, m.total("P", metrics.SeriesActiveWorkers))

	svc.WorkerLoggedIn(ctx, "bob")
	assert.Equal(t, before, m.total("P", metrics.SeriesActiveWorkers))

	// a worker with no bookkeeping is a no-op
	svc.WorkerLoggedOut(ctx, "stranger")
	assert.Equal(t, before, m.total("P", metrics.SeriesActiveWorkers))
}

func TestGetTasks_ConcurrentWorkers(t *testing.T) {
	ctx := context.Background()
	svc, _, m := newTestDispatch(t, 10)

	var wg sync.WaitGroup
	workers := []string{"w1", "w2", "w3", "w4"}
	for _, w := range workers {
		wg.Add(1)
		go func(worker string) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				_, err := svc.GetTasks(ctx, "P", worker, 2)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	// each worker was counted exactly once
	assert.Equal(t, float64(len(workers)), m.total("P", metrics.SeriesTotalWorkers))
}
