// Package metrics exposes the cache's STATS counters as Prometheus
// gauges over HTTP, a secondary view of the same numbers the STATS
// opcode reports to clients over the binary protocol.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/gibsoncached/gibsoncached/internal/engine"
)

// Registry holds the gauges kept in sync with engine counters.
type Registry struct {
	totalItems       prometheus.Gauge
	totalConnections prometheus.Gauge
	totalRequests    prometheus.Gauge
	memoryUsed       prometheus.Gauge
	memoryPeak       prometheus.Gauge
	poolUsed         prometheus.Gauge
	poolCapacity     prometheus.Gauge
}

// NewRegistry constructs and registers every gauge against a private
// prometheus.Registry, so gibsoncached never pollutes the default
// registry a host process might also use.
func NewRegistry() (*Registry, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Registry{
		totalItems:       factory.NewGauge(prometheus.GaugeOpts{Name: "gibsoncached_items_total", Help: "Number of live items in the index."}),
		totalConnections: factory.NewGauge(prometheus.GaugeOpts{Name: "gibsoncached_connections_total", Help: "Total connections accepted since start."}),
		totalRequests:    factory.NewGauge(prometheus.GaugeOpts{Name: "gibsoncached_requests_total", Help: "Total requests dispatched since start."}),
		memoryUsed:       factory.NewGauge(prometheus.GaugeOpts{Name: "gibsoncached_memory_used_bytes", Help: "Bytes currently accounted as in use."}),
		memoryPeak:       factory.NewGauge(prometheus.GaugeOpts{Name: "gibsoncached_memory_peak_bytes", Help: "Peak bytes accounted as in use."}),
		poolUsed:         factory.NewGauge(prometheus.GaugeOpts{Name: "gibsoncached_item_pool_used", Help: "Item pool objects currently checked out."}),
		poolCapacity:     factory.NewGauge(prometheus.GaugeOpts{Name: "gibsoncached_item_pool_capacity", Help: "Item pool objects available for reuse."}),
	}
	return r, reg
}

// Refresh pulls the current values out of eng's STATS snapshot and
// updates every gauge. It is cheap enough to call on every scrape.
func (r *Registry) Refresh(eng *engine.Engine) {
	byKey := make(map[string]string)
	for _, p := range eng.StatsSnapshot() {
		byKey[p.Key] = p.Value
	}

	setInt(r.totalItems, byKey["total_items"])
	setInt(r.totalConnections, byKey["total_connections"])
	setInt(r.totalRequests, byKey["total_requests"])
	setInt(r.memoryUsed, byKey["memory_used"])
	setInt(r.memoryPeak, byKey["memory_peak"])
	setInt(r.poolUsed, byKey["item_pool_current_used"])
	setInt(r.poolCapacity, byKey["item_pool_current_capacity"])
}

func setInt(g prometheus.Gauge, s string) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		g.Set(float64(v))
	}
}

// Serve starts an HTTP server on addr exposing /metrics, refreshing the
// registry's gauges just before every scrape. It blocks until ctx is
// canceled.
func Serve(ctx context.Context, addr string, r *Registry, reg *prometheus.Registry, eng *engine.Engine) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", refreshingHandler(r, reg, eng))

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("metrics server shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func refreshingHandler(r *Registry, reg *prometheus.Registry, eng *engine.Engine) http.Handler {
	next := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.Refresh(eng)
		next.ServeHTTP(w, req)
	})
}
