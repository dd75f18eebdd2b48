package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

const metricName = "aero_livekit_token_server_events_total"

// PrometheusHandler exposes Metrics in Prometheus' text exposition format as a
// single counter with an `event` label.
func PrometheusHandler(m *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			http.Error(w, "metrics not configured", http.StatusInternalServerError)
			return
		}

		snap := m.Snapshot()
		keys := make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		escaper := strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n")

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = fmt.Fprintln(w, "# HELP "+metricName+" Token server event counters.")
		_, _ = fmt.Fprintln(w, "# TYPE "+metricName+" counter")
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "%s{event=\"%s\"} %d\n", metricName, escaper.Replace(k), snap[k])
		}
	})
}
