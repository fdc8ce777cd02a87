package exporter

import (
	"context"
	"log/slog"
	"time"

	"sbmodem-exporter/lib/scrapers/sb8200"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/exporter")

// RefreshDaemon polls the modem on a fixed cadence and publishes each
// result to the snapshot store. It is the only writer of the store and
// the only caller of the modem client.
type RefreshDaemon struct {
	client   *sb8200.Client
	store    *SnapshotStore
	interval time.Duration

	cycleResults *prometheus.CounterVec
	fetchSeconds *prometheus.HistogramVec
	parseResults *prometheus.CounterVec
}

func NewRefreshDaemon(client *sb8200.Client, store *SnapshotStore, interval time.Duration) *RefreshDaemon {
	return &RefreshDaemon{
		client:   client,
		store:    store,
		interval: interval,
		cycleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sb8200_refresh_cycles_total",
			Help: "Refresh cycles run against the modem, by outcome.",
		}, []string{"result"}),
		fetchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sb8200_fetch_duration_seconds",
			Help:    "Time spent fetching one page from the modem, login included.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}, []string{"target"}),
		parseResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sb8200_parse_results_total",
			Help: "Page parse attempts, by target and outcome.",
		}, []string{"target", "result"}),
	}
}

func (d *RefreshDaemon) Describe(ch chan<- *prometheus.Desc) {
	d.cycleResults.Describe(ch)
	d.fetchSeconds.Describe(ch)
	d.parseResults.Describe(ch)
}

func (d *RefreshDaemon) Collect(ch chan<- prometheus.Metric) {
	d.cycleResults.Collect(ch)
	d.fetchSeconds.Collect(ch)
	d.parseResults.Collect(ch)
}

func (d *RefreshDaemon) Start(ctx context.Context) {
	go d.run(ctx)
}

// run schedules each cycle relative to the previous cycle's completion,
// so a slow modem stretches the cadence instead of stacking cycles.
func (d *RefreshDaemon) run(ctx context.Context) {
	for {
		d.RunCycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.interval):
		}
	}
}

// RunCycle performs one fetch+parse+publish pass. It never returns an
// error; every outcome, good or bad, lands in the store.
func (d *RefreshDaemon) RunCycle(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "refresh_daemon:RunCycle")
	defer span.End()

	prev := d.store.Read()
	started := time.Now()

	fail := func(err error) {
		kind := sb8200.Classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh cycle failed")
		span.SetAttributes(attribute.String("failure_kind", string(kind)))
		slog.WarnContext(ctx, "refresh cycle failed", "kind", kind, "err", err)

		d.cycleResults.WithLabelValues(string(kind)).Inc()
		d.store.Publish(&Snapshot{
			Connection:      prev.Connection,
			ProductInfo:     prev.ProductInfo,
			LastSuccessAt:   prev.LastSuccessAt,
			LastAttemptAt:   started,
			LastFailure:     kind,
			RefreshDuration: time.Since(started),
		})
	}

	connection, err := d.fetchAndParseConnection(ctx)
	if err != nil {
		fail(err)
		return
	}
	info, err := d.fetchAndParseProductInfo(ctx)
	if err != nil {
		fail(err)
		return
	}

	d.cycleResults.WithLabelValues("success").Inc()
	d.store.Publish(&Snapshot{
		Connection:      connection,
		ProductInfo:     info,
		LastSuccessAt:   time.Now(),
		LastAttemptAt:   started,
		LastFailure:     sb8200.FailureNone,
		RefreshDuration: time.Since(started),
	})
	slog.DebugContext(ctx, "refresh cycle ok",
		"duration", time.Since(started),
		"downstream_channels", len(connection.Downstream),
		"upstream_channels", len(connection.Upstream))
}

func (d *RefreshDaemon) fetchAndParseConnection(ctx context.Context) (*sb8200.ConnectionStatus, error) {
	target := sb8200.PageConnectionStatus.Target()
	fetchStart := time.Now()
	html, err := d.client.FetchPage(ctx, sb8200.PageConnectionStatus)
	d.fetchSeconds.WithLabelValues(target).Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		return nil, err
	}

	connection, err := sb8200.ParseConnectionStatus(html)
	if err != nil {
		d.parseResults.WithLabelValues(target, "error").Inc()
		return nil, err
	}
	for _, section := range connection.Partial {
		d.parseResults.WithLabelValues(target, "partial:"+section).Inc()
	}
	if len(connection.Partial) == 0 {
		d.parseResults.WithLabelValues(target, "success").Inc()
	}
	return connection, nil
}

func (d *RefreshDaemon) fetchAndParseProductInfo(ctx context.Context) (*sb8200.ProductInfo, error) {
	target := sb8200.PageProductInfo.Target()
	fetchStart := time.Now()
	html, err := d.client.FetchPage(ctx, sb8200.PageProductInfo)
	d.fetchSeconds.WithLabelValues(target).Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		return nil, err
	}

	info, err := sb8200.ParseProductInfo(html)
	if err != nil {
		d.parseResults.WithLabelValues(target, "error").Inc()
		return nil, err
	}
	for _, section := range info.Partial {
		d.parseResults.WithLabelValues(target, "partial:"+section).Inc()
	}
	if len(info.Partial) == 0 {
		d.parseResults.WithLabelValues(target, "success").Inc()
	}
	return info, nil
}
