package metrics

// Noop discards every recording. Useful in tests and when metrics are
// disabled.
type Noop struct{}

func (Noop) CounterInc(string, ...string)                {}
func (Noop) HistogramObserve(string, float64, ...string) {}
func (Noop) GaugeSet(string, float64)                    {}
