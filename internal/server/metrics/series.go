package metrics

// Sample is one point of a cumulative counter series.
type Sample struct {
	Timestamp int64
	Value     float64
}

// Series is an append-only sequence of samples with non-decreasing
// timestamps.
type Series []Sample

// Standard per-project series, pre-declared when a project registers.
const (
	SeriesActiveWorkers  = "activeWorkers"
	SeriesTotalWorkers   = "totalWorkers"
	SeriesTasksCompleted = "tasksCompleted"
	SeriesTasksFailed    = "tasksFailed"
	SeriesTasksRefused   = "tasksRefused"
)

var standardSeries = []string{
	SeriesActiveWorkers,
	SeriesTotalWorkers,
	SeriesTasksCompleted,
	SeriesTasksFailed,
	SeriesTasksRefused,
}

// Downsample coalesces samples whose timestamps fall into the same
// precision-sized bucket, keeping the last sample per bucket. The returned
// sample carries the bucket start (timestamp - timestamp mod precision) as
// its timestamp. A precision of 1 or less returns a copy of the raw series.
func (s Series) Downsample(precision int64) Series {
	if precision <= 1 {
		out := make(Series, len(s))
		copy(out, s)
		return out
	}

	out := make(Series, 0, len(s))
	for _, sample := range s {
		bucket := sample.Timestamp - sample.Timestamp%precision
		if n := len(out); n > 0 && out[n-1].Timestamp == bucket {
			out[n-1].Value = sample.Value
			continue
		}
		out = append(out, Sample{Timestamp: bucket, Value: sample.Value})
	}

	return out
}

// last returns the most recent value, or 0 for an empty series.
func (s Series) last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Value
}
