// Package metrics exposes listen delivery counters to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/llehouerou/nowplaying/internal/track"
)

const namespace = "nowplaying"

var (
	ObservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "observations_total",
		Help:      "Player reports received, by player and status",
	}, []string{"player", "status"})

	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deliveries_total",
		Help:      "Requests sent to listen services",
	}, []string{"service", "op", "result"}) // op=now_playing/submit/batch, result=success/error

	DeliverySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "delivery_seconds",
		Help:      "Listen service request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "op"})

	BatchListensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_listens_total",
		Help:      "Pending listens resubmitted in batches",
	}, []string{"service", "result"})
)

// RecordObservation counts one player report.
func RecordObservation(player string, status track.Status) {
	if player == "" {
		player = "unknown"
	}
	ObservationsTotal.WithLabelValues(player, status.String()).Inc()
}

// Service is a listen service client; both the ListenBrainz and the Last.fm
// clients satisfy it.
type Service interface {
	Name() string
	NowPlaying(ctx context.Context, t track.PlayingTrack) error
	Submit(ctx context.Context, t track.PlayingTrack) error
	SubmitBatch(ctx context.Context, tracks []track.PlayingTrack) error
}

// instrumented wraps a Service to capture metrics.
type instrumented struct {
	inner Service
}

// Instrument returns a Service recording every request made through inner.
func Instrument(inner Service) Service {
	return &instrumented{inner: inner}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	name := i.inner.Name()
	DeliveriesTotal.WithLabelValues(name, op, result(err)).Inc()
	DeliverySeconds.WithLabelValues(name, op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) Name() string {
	return i.inner.Name()
}

func (i *instrumented) NowPlaying(ctx context.Context, t track.PlayingTrack) (err error) {
	start := time.Now()
	defer func() { i.observe("now_playing", start, err) }()
	return i.inner.NowPlaying(ctx, t)
}

func (i *instrumented) Submit(ctx context.Context, t track.PlayingTrack) (err error) {
	start := time.Now()
	defer func() { i.observe("submit", start, err) }()
	return i.inner.Submit(ctx, t)
}

func (i *instrumented) SubmitBatch(ctx context.Context, tracks []track.PlayingTrack) (err error) {
	start := time.Now()
	defer func() {
		i.observe("batch", start, err)
		BatchListensTotal.WithLabelValues(i.inner.Name(), result(err)).Add(float64(len(tracks)))
	}()
	return i.inner.SubmitBatch(ctx, tracks)
}
