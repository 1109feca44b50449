package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	partsDownloaded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "litdl",
		Name:      "parts_downloaded_total",
		Help:      "Total number of parts written to disk by book kind",
	}, []string{"kind"})
	partsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "litdl",
		Name:      "parts_failed_total",
		Help:      "Total number of part downloads that failed by book kind",
	}, []string{"kind"})
	fetchRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "litdl",
		Name:      "fetch_retries_total",
		Help:      "Total number of fetch retries by reason",
	}, []string{"reason"})
	booksProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "litdl",
		Name:      "books_processed_total",
		Help:      "Total number of books processed by outcome",
	}, []string{"outcome"})
	bookDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "litdl",
		Name:      "book_duration_seconds",
		Help:      "Histogram of per-book processing time by kind",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"kind"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(partsDownloaded, partsFailed, fetchRetries, booksProcessed, bookDuration)
	})
}

func IncPartDownloaded(kind string) { partsDownloaded.WithLabelValues(kind).Inc() }
func IncPartFailed(kind string)     { partsFailed.WithLabelValues(kind).Inc() }
func IncFetchRetry(reason string)   { fetchRetries.WithLabelValues(reason).Inc() }
func IncBookProcessed(outcome string) {
	booksProcessed.WithLabelValues(outcome).Inc()
}
func ObserveBookDuration(kind string, d time.Duration) {
	bookDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables it.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	Register()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
