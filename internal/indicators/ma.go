package indicators

// SMA is a streaming simple moving average over a fixed period.
type SMA struct {
	window *RollingWindow
}

// NewSMA creates a new simple moving average with the given period.
func NewSMA(period int) *SMA {
	return &SMA{window: NewRollingWindow(period)}
}

// Update pushes a new price and returns the current average.
func (s *SMA) Update(price float64) float64 {
	s.window.Push(price)
	return s.window.Mean()
}

// Value returns the current average without mutating state.
func (s *SMA) Value() float64 {
	return s.window.Mean()
}

// Ready reports whether a full period of samples has been seen.
func (s *SMA) Ready() bool {
	return s.window.Full()
}

// Reset discards all accumulated samples.
func (s *SMA) Reset() {
	s.window.Reset()
}

// EMA is a streaming exponential moving average. The first Update seeds the
// average with the raw price, matching the common convention.
type EMA struct {
	multiplier  float64
	value       float64
	initialized bool
	samples     int
	period      int
}

// NewEMA creates a new exponential moving average with the given period.
func NewEMA(period int) *EMA {
	if period < 1 {
		period = 1
	}
	return &EMA{
		multiplier: 2.0 / (float64(period) + 1.0),
		period:     period,
	}
}

// Update folds a new price into the average and returns it.
func (e *EMA) Update(price float64) float64 {
	if !e.initialized {
		e.value = price
		e.initialized = true
	} else {
		e.value = (price-e.value)*e.multiplier + e.value
	}
	e.samples++
	return e.value
}

// Value returns the current average.
func (e *EMA) Value() float64 {
	return e.value
}

// Ready reports whether at least one full period of samples has been seen.
func (e *EMA) Ready() bool {
	return e.samples >= e.period
}

// Reset discards the accumulated average.
func (e *EMA) Reset() {
	e.value = 0
	e.initialized = false
	e.samples = 0
}
