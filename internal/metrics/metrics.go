package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kalshi_tennis"

// Metrics holds the collectors shared by the cache service and the trader.
type Metrics struct {
	registry *prometheus.Registry

	// Cache
	CachePolls       *prometheus.CounterVec
	CacheListings    prometheus.Gauge
	CacheSnapshotAge prometheus.Gauge
	CacheFetchTime   prometheus.Histogram

	// Pipeline
	DiscoveryRejections *prometheus.CounterVec
	Analyses            *prometheus.CounterVec

	// Trading
	Trades          *prometheus.CounterVec
	TradeRejections *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
}

// New creates a metrics set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		CachePolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_polls_total",
				Help:      "Cache fetch attempts by result",
			},
			[]string{"result"},
		),
		CacheListings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_listings",
			Help:      "Listings in the current snapshot",
		}),
		CacheSnapshotAge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_snapshot_age_seconds",
			Help:      "Age of the served snapshot",
		}),
		CacheFetchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_fetch_duration_seconds",
			Help:      "Duration of a full upstream fetch",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9), // 250ms to ~64s
		}),

		DiscoveryRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_rejections_total",
				Help:      "Listings rejected by the discovery filter, by layer",
			},
			[]string{"layer"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Listing analyses by outcome",
			},
			[]string{"outcome"},
		),

		Trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_total",
				Help:      "Trades placed, by mode and side",
			},
			[]string{"mode", "side"},
		),
		TradeRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trade_rejections_total",
				Help:      "Trade attempts blocked by a safety check",
			},
			[]string{"reason"},
		),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of one scan-and-trade cycle",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}

	registry.MustRegister(
		m.CachePolls, m.CacheListings, m.CacheSnapshotAge, m.CacheFetchTime,
		m.DiscoveryRejections, m.Analyses,
		m.Trades, m.TradeRejections, m.ScanDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePoll records one cache fetch.
func (m *Metrics) ObservePoll(ok bool, listings int, d time.Duration) {
	if m == nil {
		return
	}
	m.CacheFetchTime.Observe(d.Seconds())
	if !ok {
		m.CachePolls.WithLabelValues("error").Inc()
		return
	}
	m.CachePolls.WithLabelValues("ok").Inc()
	m.CacheListings.Set(float64(listings))
}

// SetSnapshotAge records the age of the served snapshot.
func (m *Metrics) SetSnapshotAge(age time.Duration) {
	if m == nil {
		return
	}
	m.CacheSnapshotAge.Set(age.Seconds())
}

// ObserveRejection records a discovery rejection. reason is "layer:detail".
func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	layer, _, _ := strings.Cut(reason, ":")
	m.DiscoveryRejections.WithLabelValues(layer).Inc()
}

// ObserveAnalysis records an analysis outcome (tradable, dead_zone, unresolved, ...).
func (m *Metrics) ObserveAnalysis(outcome string) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(outcome).Inc()
}

// ObserveTrade records a placed trade.
func (m *Metrics) ObserveTrade(dryRun bool, side string) {
	if m == nil {
		return
	}
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	m.Trades.WithLabelValues(mode, side).Inc()
}

// ObserveTradeRejection records a blocked trade attempt.
func (m *Metrics) ObserveTradeRejection(reason string) {
	if m == nil {
		return
	}
	m.TradeRejections.WithLabelValues(reason).Inc()
}

// ObserveScan records one scan duration.
func (m *Metrics) ObserveScan(d time.Duration) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(d.Seconds())
}

// Serve runs a standalone metrics listener until ctx is done.
func (m *Metrics) Serve(ctx context.Context, port int, path string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", "addr", srv.Addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
