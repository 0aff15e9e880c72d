// Package metrics records per-project operational time series: worker
// presence gauges, task outcome counters, and customer-defined custom
// series. The same deltas are mirrored into Prometheus for scraping.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskhive/taskhive/internal/common"
)

// Graph kinds accepted by GetGraphs.
const (
	KindAll    = "all"
	KindSystem = "system"
	KindCustom = "custom"
)

type bundle struct {
	mu          sync.Mutex
	description string
	system      map[string]Series
	custom      map[string]Series
}

// Recorder owns every project's metrics bundle. Appends are serialized per
// bundle, which keeps each series' timestamps non-decreasing.
type Recorder struct {
	mu      sync.RWMutex
	bundles map[string]*bundle

	registry       *prometheus.Registry
	tasksCompleted *prometheus.CounterVec
	tasksFailed    *prometheus.CounterVec
	tasksRefused   *prometheus.CounterVec
	activeWorkers  *prometheus.GaugeVec
	totalWorkers   *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		bundles:  make(map[string]*bundle),
		registry: prometheus.NewRegistry(),
		tasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhive_tasks_completed_total",
			Help: "Tasks finalized with status ok.",
		}, []string{"project"}),
		tasksFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhive_tasks_failed_total",
			Help: "Task reports with status error.",
		}, []string{"project"}),
		tasksRefused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhive_tasks_refused_total",
			Help: "Task reports with status refused.",
		}, []string{"project"}),
		activeWorkers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "taskhive_active_workers",
			Help: "Workers currently holding or recently holding tasks.",
		}, []string{"project"}),
		totalWorkers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "taskhive_total_workers",
			Help: "Workers that ever requested tasks for the project.",
		}, []string{"project"}),
	}

	r.registry.MustRegister(r.tasksCompleted, r.tasksFailed, r.tasksRefused, r.activeWorkers, r.totalWorkers)

	return r
}

// Registry exposes the Prometheus registry for the /metrics endpoint.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Register creates the project's bundle with every standard series seeded
// with a single (now, 0) sample. Registering the same project twice is a
// no-op.
func (r *Recorder) Register(project, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bundles[project]; ok {
		return
	}

	now := time.Now().Unix()
	system := make(map[string]Series, len(standardSeries))
	for _, name := range standardSeries {
		system[name] = Series{{Timestamp: now, Value: 0}}
	}

	r.bundles[project] = &bundle{
		description: description,
		system:      system,
		custom:      make(map[string]Series),
	}
}

func (r *Recorder) bundle(project string) (*bundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bundles[project]
	if !ok {
		return nil, common.ErrNotFound
	}
	return b, nil
}

// ChangeSeries appends (now, lastValue+delta) to the named series. The
// series must be a standard one or a previously declared custom one.
func (r *Recorder) ChangeSeries(project, name string, delta float64) error {
	b, err := r.bundle(project)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	target := b.system
	series, ok := target[name]
	if !ok {
		target = b.custom
		if series, ok = target[name]; !ok {
			return fmt.Errorf("%w: series %q", common.ErrNotFound, name)
		}
	}

	now := time.Now().Unix()
	if n := len(series); n > 0 && series[n-1].Timestamp > now {
		// the wall clock went backwards; keep the series ordered
		now = series[n-1].Timestamp
	}

	target[name] = append(series, Sample{Timestamp: now, Value: series.last() + delta})

	r.mirror(project, name, delta)
	return nil
}

// mirror forwards standard-series deltas to Prometheus.
func (r *Recorder) mirror(project, name string, delta float64) {
	switch name {
	case SeriesTasksCompleted:
		r.tasksCompleted.WithLabelValues(project).Add(delta)
	case SeriesTasksFailed:
		r.tasksFailed.WithLabelValues(project).Add(delta)
	case SeriesTasksRefused:
		r.tasksRefused.WithLabelValues(project).Add(delta)
	case SeriesActiveWorkers:
		r.activeWorkers.WithLabelValues(project).Add(delta)
	case SeriesTotalWorkers:
		r.totalWorkers.WithLabelValues(project).Add(delta)
	}
}

// UpdateCustomGraphs replaces the project's custom series wholesale.
// Last writer wins; there is no merging with the previous set.
func (r *Recorder) UpdateCustomGraphs(project string, series map[string]Series) error {
	b, err := r.bundle(project)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	custom := make(map[string]Series, len(series))
	for name, s := range series {
		cp := make(Series, len(s))
		copy(cp, s)
		custom[name] = cp
	}
	b.custom = custom

	return nil
}

// GetGraphs returns the requested series, downsampled to precision-sized
// buckets, along with the project description. Kind selects the system
// series, the custom ones, or both (the default).
func (r *Recorder) GetGraphs(project string, precision int64, kind string) (map[string]Series, string, error) {
	b, err := r.bundle(project)
	if err != nil {
		return nil, "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]Series)

	switch kind {
	case "", KindAll:
		for name, s := range b.system {
			out[name] = s.Downsample(precision)
		}
		for name, s := range b.custom {
			out[name] = s.Downsample(precision)
		}
	case KindSystem:
		for name, s := range b.system {
			out[name] = s.Downsample(precision)
		}
	case KindCustom:
		for name, s := range b.custom {
			out[name] = s.Downsample(precision)
		}
	default:
		return nil, "", fmt.Errorf("%w: unknown graph kind %q", common.ErrValidation, kind)
	}

	return out, b.description, nil
}
