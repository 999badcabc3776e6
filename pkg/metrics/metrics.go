// Package metrics documents the Prometheus metrics restar records.
// Metrics are defined next to the code that updates them (client,
// ratelimit, batch) and registered on the default registry via promauto.
package metrics

import (
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Gatherer collects the metrics promauto registered on the default registry.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// Prefixes of the metric families owned by restar.
var Prefixes = []string{"github_", "restar_"}

// WriteText writes restar's metric families in the Prometheus text format.
func WriteText(w io.Writer) error {
	families, err := Gatherer.Gather()
	if err != nil {
		return err
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if !owned(mf.GetName()) {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func owned(name string) bool {
	for _, p := range Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - github_requests_total{method, status} (Counter): requests by method and HTTP status ("network_error" when none)
//   - github_request_duration_seconds{method} (Histogram): request latency
//   - github_errors_total{class} (Counter): errors by class (client, server, rate_limit, network)
//
// Rate Limit Metrics (pkg/ratelimit):
//   - github_rate_limit_remaining{resource} (Gauge): requests left in the window
//   - github_rate_limit_exhausted_total{resource} (Counter): responses seen with nothing left
//
// Submission Metrics (pkg/batch):
//   - restar_star_outcomes_total{result} (Counter): star requests by result (succeeded, rejected, transport_failed)
//   - restar_star_groups_total (Counter): groups processed
//   - restar_star_in_flight (Gauge): star requests currently in flight
//
// Example Prometheus Queries:
//
//   # Star failure ratio
//   sum(restar_star_outcomes_total{result!="succeeded"}) / sum(restar_star_outcomes_total)
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(github_request_duration_seconds_bucket[5m]))
