// Package stats keeps playback and render metrics in a private Prometheus
// registry. Nothing is served over the network; the registry is gathered
// once at exit and summarized in the log.
package stats

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/vcompare/internal/events"
	"github.com/gogpu/vcompare/internal/pacing"
)

const namespace = "vcompare"

// Collector records player metrics. Its methods are safe for concurrent use.
type Collector struct {
	reg *prometheus.Registry

	framesAdmitted *prometheus.CounterVec
	framesDropped  *prometheus.CounterVec
	decodeErrors   *prometheus.CounterVec
	frozen         *prometheus.GaugeVec
	ticks          prometheus.Counter
	tickSeconds    prometheus.Histogram
	targetErrors   *prometheus.CounterVec
	reconfigures   *prometheus.CounterVec
	playbackPaused prometheus.Gauge
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		framesAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "frames_admitted_total",
			Help:      "Frames admitted by the pacer and uploaded",
		}, []string{"instance"}),
		framesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "frames_dropped_total",
			Help:      "Frames decoded in the background but overwritten before display",
		}, []string{"instance"}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "decode_errors_total",
			Help:      "Decode failures that froze an instance",
		}, []string{"instance"}),
		frozen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "instance_frozen",
			Help:      "1 when the instance shows its last frame permanently",
		}, []string{"instance"}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "ticks_total",
			Help:      "Render loop ticks",
		}),
		tickSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "tick_seconds",
			Help:      "Time spent in one tick, decode and upload included",
			Buckets:   []float64{.001, .002, .004, .008, .016, .033, .066, .1, .25},
		}),
		targetErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "target_errors_total",
			Help:      "Per-tick render target errors that were skipped",
		}, []string{"kind"}),
		reconfigures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "target_reconfigures_total",
			Help:      "Render target reconfigurations",
		}, []string{"reason"}),
		playbackPaused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "paused",
			Help:      "1 while playback is paused",
		}),
	}
	c.reg.MustRegister(
		c.framesAdmitted, c.framesDropped, c.decodeErrors, c.frozen,
		c.ticks, c.tickSeconds, c.targetErrors, c.reconfigures, c.playbackPaused,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func label(instance int) string { return strconv.Itoa(instance) }

// FrameAdmitted counts an admitted frame.
func (c *Collector) FrameAdmitted(instance int) {
	c.framesAdmitted.WithLabelValues(label(instance)).Inc()
}

// TickObserved records one tick.
func (c *Collector) TickObserved(d time.Duration) {
	c.ticks.Inc()
	c.tickSeconds.Observe(d.Seconds())
}

// Attach subscribes the collector to lifecycle events. It returns a
// function that detaches it.
func (c *Collector) Attach(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.InstanceFrozen) {
			c.frozen.WithLabelValues(label(e.Index)).Set(1)
			if e.Err != nil {
				c.decodeErrors.WithLabelValues(label(e.Index)).Inc()
			}
		}),
		bus.Subscribe(func(e events.FrameDropped) {
			c.framesDropped.WithLabelValues(label(e.Index)).Inc()
		}),
		bus.Subscribe(func(e events.TickSkipped) {
			c.targetErrors.WithLabelValues(e.Kind).Inc()
		}),
		bus.Subscribe(func(e events.TargetReconfigured) {
			c.reconfigures.WithLabelValues(e.Reason).Inc()
		}),
		bus.Subscribe(func(e events.PlaybackToggled) {
			v := 0.0
			if e.To == pacing.Paused {
				v = 1
			}
			c.playbackPaused.Set(v)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Sample is one gathered metric value.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Summary gathers every metric with a non-zero value, sorted by name.
// Histograms are reported as their sample count and sum.
func (c *Collector) Summary() ([]Sample, error) {
	families, err := c.reg.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var pairs []string
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
			}
			labels := strings.Join(pairs, ",")

			switch {
			case m.GetCounter() != nil:
				out = append(out, Sample{mf.GetName(), labels, m.GetCounter().GetValue()})
			case m.GetGauge() != nil:
				out = append(out, Sample{mf.GetName(), labels, m.GetGauge().GetValue()})
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				out = append(out,
					Sample{mf.GetName() + "_count", labels, float64(h.GetSampleCount())},
					Sample{mf.GetName() + "_sum", labels, h.GetSampleSum()})
			}
		}
	}
	filtered := out[:0]
	for _, s := range out {
		if s.Value != 0 {
			filtered = append(filtered, s)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Name != filtered[j].Name {
			return filtered[i].Name < filtered[j].Name
		}
		return filtered[i].Labels < filtered[j].Labels
	})
	return filtered, nil
}

// LogSummary writes the summary at info level, one record per sample.
func (c *Collector) LogSummary(logger *slog.Logger) {
	samples, err := c.Summary()
	if err != nil {
		logger.Warn("gather metrics failed", "error", err)
		return
	}
	for _, s := range samples {
		logger.Info("metric", "name", s.Name, "labels", s.Labels, "value", s.Value)
	}
}
