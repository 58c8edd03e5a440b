// Package metrics provides the Prometheus registry and HTTP handler for the
// offline cache service. All metrics are defined in their respective packages
// (cache, network, sw) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the service.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics registered with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every metric in Gatherer in the Prometheus exposition
// format. Scrapes of the handler itself are counted on Registry.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(Registry, promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
}

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - nwbus_cache_hits_total{backend} (Counter): Region lookups answered by a stored entry
//   - nwbus_cache_misses_total{backend} (Counter): Region lookups with no stored entry
//   - nwbus_cache_written_bytes_total{backend} (Counter): Bytes written to cache regions
//   - nwbus_cache_errors_total{operation} (Counter): Storage operation errors
//
// Network Metrics (pkg/network):
//   - nwbus_network_requests_total{host, status} (Counter): Requests by host and HTTP status
//   - nwbus_network_request_duration_seconds{host} (Histogram): Request duration by host
//   - nwbus_network_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Lifecycle Metrics (pkg/sw):
//   - nwbus_sw_installs_total{result} (Counter): Install steps by result (success, failure)
//   - nwbus_sw_install_duration_seconds (Histogram): Install step duration
//   - nwbus_sw_activations_total{result} (Counter): Activate steps by result
//   - nwbus_sw_regions_deleted_total (Counter): Stale regions removed on activate
//   - nwbus_sw_fetches_total{source} (Counter): Intercepted requests by source (cache, network)
//   - nwbus_sw_skip_waiting_total (Counter): Accepted skip-waiting messages
//
// Example Prometheus Queries:
//
//   # Offline Hit Rate
//   sum(rate(nwbus_sw_fetches_total{source="cache"}[5m])) /
//   sum(rate(nwbus_sw_fetches_total[5m]))
//
//   # Failed Installs
//   increase(nwbus_sw_installs_total{result="failure"}[1h]) > 0
//
//   # Origin Error Rate
//   rate(nwbus_network_errors_total[5m])
//
//   # P95 Install Duration
//   histogram_quantile(0.95, rate(nwbus_sw_install_duration_seconds_bucket[1h]))
