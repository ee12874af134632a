package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prom is the Prometheus-backed Recorder.
type Prom struct {
	reg      *prometheus.Registry
	counters map[string]*prometheus.CounterVec
	hists    map[string]*prometheus.HistogramVec
	gauges   map[string]prometheus.Gauge
}

// NewProm builds a registry with the evaluation metrics pre-declared.
func NewProm() *Prom {
	p := &Prom{
		reg:      prometheus.NewRegistry(),
		counters: make(map[string]*prometheus.CounterVec),
		hists:    make(map[string]*prometheus.HistogramVec),
		gauges:   make(map[string]prometheus.Gauge),
	}

	p.counters[EvaluationsTotal] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: EvaluationsTotal,
		Help: "Total number of evaluations",
	}, []string{"algorithm", "pipeline", "status"})

	p.counters[ParityFailuresTotal] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: ParityFailuresTotal,
		Help: "Total parity failures",
	}, []string{"algorithm"})

	p.counters[UpgradesRejected] = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: UpgradesRejected,
		Help: "WebSocket upgrades refused by the rate limiter",
	}, []string{})

	p.hists[EvaluationDuration] = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    EvaluationDuration,
		Help:    "Evaluation duration (s)",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"algorithm", "pipeline"})

	p.gauges[ActiveEvaluations] = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: ActiveEvaluations,
		Help: "Currently running evaluations",
	})

	for _, c := range p.counters {
		p.reg.MustRegister(c)
	}
	for _, h := range p.hists {
		p.reg.MustRegister(h)
	}
	for _, g := range p.gauges {
		p.reg.MustRegister(g)
	}
	return p
}

func (p *Prom) CounterInc(name string, labels ...string) {
	if c, ok := p.counters[name]; ok {
		c.WithLabelValues(labels...).Inc()
	}
}

func (p *Prom) HistogramObserve(name string, value float64, labels ...string) {
	if h, ok := p.hists[name]; ok {
		h.WithLabelValues(labels...).Observe(value)
	}
}

func (p *Prom) GaugeSet(name string, value float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(value)
	}
}

// Handler serves the registry in Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}
