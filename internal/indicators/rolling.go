package indicators

import "math"

// RollingWindow is a fixed-capacity circular buffer of float64 samples with
// streaming summary statistics. All strategies in this engine are tick
// driven, so the window is push-based rather than slice-based.
type RollingWindow struct {
	values []float64
	head   int
	size   int
	sum    float64
	sumSq  float64
}

// NewRollingWindow creates a rolling window holding at most capacity samples.
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingWindow{
		values: make([]float64, capacity),
	}
}

// Push appends a sample, evicting the oldest once the window is full.
func (w *RollingWindow) Push(value float64) {
	if w.size == len(w.values) {
		oldest := w.values[w.head]
		w.sum -= oldest
		w.sumSq -= oldest * oldest
	} else {
		w.size++
	}
	w.values[w.head] = value
	w.head = (w.head + 1) % len(w.values)
	w.sum += value
	w.sumSq += value * value
}

// Len returns the number of samples currently held.
func (w *RollingWindow) Len() int {
	return w.size
}

// Full reports whether the window has reached capacity.
func (w *RollingWindow) Full() bool {
	return w.size == len(w.values)
}

// Reset discards all samples.
func (w *RollingWindow) Reset() {
	w.head = 0
	w.size = 0
	w.sum = 0
	w.sumSq = 0
}

// Mean returns the arithmetic mean of the window, or 0 when empty.
func (w *RollingWindow) Mean() float64 {
	if w.size == 0 {
		return 0
	}
	return w.sum / float64(w.size)
}

// StdDev returns the sample standard deviation of the window. At least two
// samples are required; otherwise 0.
func (w *RollingWindow) StdDev() float64 {
	if w.size < 2 {
		return 0
	}
	n := float64(w.size)
	variance := (w.sumSq - w.sum*w.sum/n) / (n - 1)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// ZScore returns (value - mean) / stddev, or 0 when the deviation is zero.
func (w *RollingWindow) ZScore(value float64) float64 {
	sd := w.StdDev()
	if sd == 0 {
		return 0
	}
	return (value - w.Mean()) / sd
}

// At returns the i-th oldest sample. i must be in [0, Len).
func (w *RollingWindow) At(i int) float64 {
	idx := (w.head - w.size + i + len(w.values)) % len(w.values)
	return w.values[idx]
}

// Last returns the most recent sample, or 0 when empty.
func (w *RollingWindow) Last() float64 {
	if w.size == 0 {
		return 0
	}
	return w.At(w.size - 1)
}

// Min returns the smallest sample in the window, or 0 when empty.
func (w *RollingWindow) Min() float64 {
	if w.size == 0 {
		return 0
	}
	min := w.At(0)
	for i := 1; i < w.size; i++ {
		if v := w.At(i); v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest sample in the window, or 0 when empty.
func (w *RollingWindow) Max() float64 {
	if w.size == 0 {
		return 0
	}
	max := w.At(0)
	for i := 1; i < w.size; i++ {
		if v := w.At(i); v > max {
			max = v
		}
	}
	return max
}

// SumRange sums samples [from, to) in oldest-first order.
func (w *RollingWindow) SumRange(from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > w.size {
		to = w.size
	}
	sum := 0.0
	for i := from; i < to; i++ {
		sum += w.At(i)
	}
	return sum
}

// Autocorrelation returns the lag-k autocorrelation of the window contents.
// Returns 0 when fewer than k+2 samples are present or variance is zero.
func (w *RollingWindow) Autocorrelation(lag int) float64 {
	if lag < 1 || w.size < lag+2 {
		return 0
	}
	mean := w.Mean()
	num := 0.0
	den := 0.0
	for i := 0; i < w.size; i++ {
		d := w.At(i) - mean
		den += d * d
	}
	if den == 0 {
		return 0
	}
	for i := lag; i < w.size; i++ {
		num += (w.At(i) - mean) * (w.At(i-lag) - mean)
	}
	return num / den
}
