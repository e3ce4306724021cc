// Package window provides the fixed-capacity trailing window used by the
// sequential aggregation stage.
//
// The window is a circular buffer over per-row metric vectors. It is not
// synchronized: the aggregation stage is single-threaded by design, running
// only after the worker-pool barrier.
package window

import "github.com/anemolab/anemo/internal/model"

// Window holds the most recent values, evicting the oldest once capacity
// is exceeded.
type Window struct {
	data     [][model.MetricCount]float64
	head     int // next write position
	count    int
	capacity int
}

// New creates a window with the given capacity.
func New(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		data:     make([][model.MetricCount]float64, capacity),
		capacity: capacity,
	}
}

// Push appends a value vector, evicting the oldest when full.
func (w *Window) Push(values [model.MetricCount]float64) {
	w.data[w.head] = values
	w.head = (w.head + 1) % w.capacity
	if w.count < w.capacity {
		w.count++
	}
}

// Len returns the current number of entries.
func (w *Window) Len() int {
	return w.count
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return w.capacity
}

// Means returns the arithmetic mean of the current contents per metric.
// The sum is recomputed over the contents in oldest-to-newest order on
// every call, so a window holding identical contents always produces
// identical floating-point results, regardless of how it got there.
func (w *Window) Means() [model.MetricCount]float64 {
	var means [model.MetricCount]float64
	if w.count == 0 {
		return means
	}

	start := w.head - w.count
	if start < 0 {
		start += w.capacity
	}

	var sums [model.MetricCount]float64
	for i := 0; i < w.count; i++ {
		idx := (start + i) % w.capacity
		for _, m := range model.Metrics {
			sums[m] += w.data[idx][m]
		}
	}

	n := float64(w.count)
	for _, m := range model.Metrics {
		means[m] = sums[m] / n
	}
	return means
}
