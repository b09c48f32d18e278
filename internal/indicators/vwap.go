package indicators

// VWAP is a rolling volume-weighted average price over a fixed number of
// trades.
type VWAP struct {
	prices  *RollingWindow
	volumes *RollingWindow
	pv      *RollingWindow
}

// NewVWAP creates a rolling VWAP over the given number of trade samples.
func NewVWAP(period int) *VWAP {
	return &VWAP{
		prices:  NewRollingWindow(period),
		volumes: NewRollingWindow(period),
		pv:      NewRollingWindow(period),
	}
}

// Update records a trade and returns the updated VWAP.
func (v *VWAP) Update(price, volume float64) float64 {
	v.prices.Push(price)
	v.volumes.Push(volume)
	v.pv.Push(price * volume)
	return v.Value()
}

// Value returns the current VWAP. Falls back to the mean trade price when no
// volume has been observed.
func (v *VWAP) Value() float64 {
	totalVolume := v.volumes.SumRange(0, v.volumes.Len())
	if totalVolume == 0 {
		return v.prices.Mean()
	}
	return v.pv.SumRange(0, v.pv.Len()) / totalVolume
}

// Ready reports whether the sample window is full.
func (v *VWAP) Ready() bool {
	return v.prices.Full()
}

// Reset discards all accumulated samples.
func (v *VWAP) Reset() {
	v.prices.Reset()
	v.volumes.Reset()
	v.pv.Reset()
}
