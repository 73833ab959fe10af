// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metermanaged exports managed pool events as metrics.
package metermanaged

import (
	"time"

	"github.com/luxfi/metric"
	"github.com/pkg/errors"

	"github.com/luxfi/intern/managed"
)

var _ managed.Observer = (*Observer)(nil)

// Observer records managed pool events.
type Observer struct {
	hits      metric.Counter
	misses    metric.Counter
	removed   metric.CounterVec
	len       metric.Gauge
	sweeps    metric.CounterVec
	sweepTime metric.CounterVec
}

// New creates an observer and registers its metrics under namespace. The
// observer is usable even if registration fails.
func New(namespace string, registry metric.Registry) (*Observer, error) {
	lookups := metric.NewCounterVec(metric.CounterOpts{
		Namespace: namespace,
		Name:      "lookups",
		Help:      "Number of interning lookups by result",
	}, []string{"result"})
	o := &Observer{
		hits:   lookups.WithLabelValues("hit"),
		misses: lookups.WithLabelValues("miss"),
		removed: metric.NewCounterVec(metric.CounterOpts{
			Namespace: namespace,
			Name:      "removed",
			Help:      "Number of entries removed from the managed pool by reason",
		}, []string{"reason"}),
		len: metric.NewGauge(metric.GaugeOpts{
			Namespace: namespace,
			Name:      "len",
			Help:      "Number of entries in the managed pool",
		}),
		sweeps: metric.NewCounterVec(metric.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps",
			Help:      "Number of cleanup passes by mode",
		}, []string{"mode"}),
		sweepTime: metric.NewCounterVec(metric.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_time",
			Help:      "Time spent in cleanup passes by mode (ns)",
		}, []string{"mode"}),
	}

	errs := &metric.Errs{}
	for _, m := range []any{lookups, o.removed, o.len, o.sweeps, o.sweepTime} {
		errs.Add(registry.Register(metric.AsCollector(m)))
	}
	return o, errors.Wrap(errs.Err, "register interning metrics")
}

func (o *Observer) Hit() {
	o.hits.Inc()
}

func (o *Observer) Miss() {
	o.misses.Inc()
}

func (o *Observer) Removed(reason managed.Reason, n int) {
	o.removed.WithLabelValues(reason.String()).Add(float64(n))
}

func (o *Observer) Len(n int) {
	o.len.Set(float64(n))
}

func (o *Observer) Swept(scheduled bool, d time.Duration) {
	mode := "immediate"
	if scheduled {
		mode = "scheduled"
	}
	o.sweeps.WithLabelValues(mode).Inc()
	o.sweepTime.WithLabelValues(mode).Add(float64(d))
}
