// Copyright (C) 2023-2026, Frost Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/frostlabs/snowgo/ids"
	"github.com/frostlabs/snowgo/utils/logging"
	"github.com/frostlabs/snowgo/utils/timer/mockable"
	"github.com/frostlabs/snowgo/utils/wrappers"
)

// millisecondsBuckets is the set of histogram buckets used when reporting
// decision latencies.
var millisecondsBuckets = []float64{
	10, 100, 1000, // instant
	3000, 10000, 30000, // fast
	60000, 120000, 300000, // slow
	600000, 1800000, 3600000, // download issues
}

var _ Latency = (*latency)(nil)

// Latency reports commonly used consensus latency metrics.
type Latency interface {
	// Issued marks the item as having been issued.
	Issued(id ids.ID)

	// Accepted marks the item as having been accepted.
	Accepted(id ids.ID)

	// Rejected marks the item as having been rejected.
	Rejected(id ids.ID)

	// MeasureAndGetOldestDuration returns the amount of time the oldest item
	// has been processing.
	MeasureAndGetOldestDuration() time.Duration

	// NumProcessing returns the number of currently processing items.
	NumProcessing() int
}

type latency struct {
	log logging.Logger

	// clock gives access to the current wall clock time
	clock mockable.Clock

	// processing keeps track of the time each item was issued into consensus
	processing map[ids.ID]time.Time

	// numProcessing keeps track of the number of items processing
	numProcessing prometheus.Gauge

	// latAccepted tracks the number of milliseconds that an item was
	// processing before being accepted
	latAccepted prometheus.Histogram

	// latRejected tracks the number of milliseconds that an item was
	// processing before being rejected
	latRejected prometheus.Histogram
}

func NewLatency(namespace string, reg prometheus.Registerer, log logging.Logger) (Latency, error) {
	l := &latency{
		log:        log,
		processing: make(map[ids.ID]time.Time),
		numProcessing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "processing",
			Help:      "Number of currently processing items",
		}),
		latAccepted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "accepted",
			Help:      "Latency of accepting from the time the item was issued in milliseconds",
			Buckets:   millisecondsBuckets,
		}),
		latRejected: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rejected",
			Help:      "Latency of rejecting from the time the item was issued in milliseconds",
			Buckets:   millisecondsBuckets,
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		reg.Register(l.numProcessing),
		reg.Register(l.latAccepted),
		reg.Register(l.latRejected),
	)
	return l, errs.Err
}

func (l *latency) Issued(id ids.ID) {
	l.processing[id] = l.clock.Time()
	l.numProcessing.Inc()
}

func (l *latency) Accepted(id ids.ID) {
	start, ok := l.processing[id]
	if !ok {
		l.log.Debug("unable to measure latency",
			zap.Stringer("id", id),
			zap.String("status", "accepted"),
		)
		return
	}
	delete(l.processing, id)

	duration := l.clock.Time().Sub(start)
	l.latAccepted.Observe(float64(duration.Milliseconds()))
	l.numProcessing.Dec()
}

func (l *latency) Rejected(id ids.ID) {
	start, ok := l.processing[id]
	if !ok {
		l.log.Debug("unable to measure latency",
			zap.Stringer("id", id),
			zap.String("status", "rejected"),
		)
		return
	}
	delete(l.processing, id)

	duration := l.clock.Time().Sub(start)
	l.latRejected.Observe(float64(duration.Milliseconds()))
	l.numProcessing.Dec()
}

func (l *latency) MeasureAndGetOldestDuration() time.Duration {
	now := l.clock.Time()
	oldest := time.Duration(0)
	for _, start := range l.processing {
		if duration := now.Sub(start); duration > oldest {
			oldest = duration
		}
	}
	return oldest
}

func (l *latency) NumProcessing() int {
	return len(l.processing)
}
