// Package metrics exposes the Prometheus metrics registered by the client
// packages. The metrics themselves live next to the code that updates them
// (client, pagination, cache) and register with Registry through
// promauto.With(Registry).
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Prefix is shared by every metric of this module.
const Prefix = "rpc_"

// Registry is the registerer the client, pagination and cache metrics are
// registered with. They register when their package initializes, so
// reassigning Registry later does not move them.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Handler serves the gathered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Serve exposes Handler on addr under /metrics until ctx ends.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Sample is one counter or gauge value summed over its label sets.
type Sample struct {
	Name  string
	Value float64
}

// Snapshot sums counters and gauges whose names start with prefix.
// Histograms report their sample count. Samples come back sorted by name.
func Snapshot(g prometheus.Gatherer, prefix string) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	totals := map[string]float64{}
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				totals[name] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				totals[name] += m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				totals[name] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	out := make([]Sample, 0, len(totals))
	for name, v := range totals {
		out = append(out, Sample{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - rpc_requests_total{procedure, status} (Counter): Requests by procedure and HTTP status
//   - rpc_request_duration_seconds{procedure} (Histogram): Call duration, retries included
//   - rpc_errors_total{class} (Counter): Transport errors by class (network, gateway, http)
//
// Retry Metrics (pkg/client):
//   - rpc_retries_total{error_class} (Counter): Retry attempts by error class
//   - rpc_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - rpc_retry_exhausted_total{error_class} (Counter): Calls that exhausted max retries
//
// Pagination Metrics (pkg/pagination):
//   - rpc_page_loads_total{endpoint, outcome} (Counter): Loads by outcome (loaded or error kind)
//   - rpc_page_load_duration_seconds{endpoint} (Histogram): Page load duration
//   - rpc_page_loads_in_flight{endpoint} (Gauge): Loads in the loading state
//
// Cache Metrics (pkg/cache):
//   - rpc_cache_hits_total{procedure} (Counter): Cache hits
//   - rpc_cache_misses_total{procedure} (Counter): Cache misses
//   - rpc_cache_written_bytes_total (Counter): Bytes written to Redis
//   - rpc_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(rpc_cache_hits_total[5m])) /
//   (sum(rate(rpc_cache_hits_total[5m])) + sum(rate(rpc_cache_misses_total[5m])))
//
//   # Failed page loads by kind
//   sum by (outcome) (rate(rpc_page_loads_total{outcome!="loaded"}[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(rpc_request_duration_seconds_bucket[5m]))
