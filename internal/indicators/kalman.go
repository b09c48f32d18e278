package indicators

// KalmanFilter is a scalar recursive estimator blending a prior estimate and
// a new measurement weighted by their relative uncertainties. Used by the
// mean reversion strategy as an adaptive substitute for the simple rolling
// mean: the process variance is a small fixed constant while the measurement
// variance tracks the current price variance.
type KalmanFilter struct {
	processVariance float64
	estimate        float64
	errorCovariance float64
	initialized     bool
}

// NewKalmanFilter creates a scalar Kalman filter with the given process
// variance.
func NewKalmanFilter(processVariance float64) *KalmanFilter {
	return &KalmanFilter{
		processVariance: processVariance,
		errorCovariance: 1.0,
	}
}

// Update folds a new measurement with its variance into the estimate and
// returns the posterior estimate.
func (k *KalmanFilter) Update(measurement, measurementVariance float64) float64 {
	if !k.initialized {
		k.estimate = measurement
		k.initialized = true
		return k.estimate
	}

	// Predict: the state is modeled as a random walk.
	priorCovariance := k.errorCovariance + k.processVariance

	// Guard against a degenerate measurement variance.
	if measurementVariance <= 0 {
		measurementVariance = k.processVariance
	}

	gain := priorCovariance / (priorCovariance + measurementVariance)
	k.estimate += gain * (measurement - k.estimate)
	k.errorCovariance = (1 - gain) * priorCovariance
	return k.estimate
}

// Value returns the current estimate.
func (k *KalmanFilter) Value() float64 {
	return k.estimate
}

// Initialized reports whether at least one measurement has been folded in.
func (k *KalmanFilter) Initialized() bool {
	return k.initialized
}

// Reset returns the filter to its pre-measurement state.
func (k *KalmanFilter) Reset() {
	k.estimate = 0
	k.errorCovariance = 1.0
	k.initialized = false
}
