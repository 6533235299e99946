package health

import (
	"encoding/json"
	"net/http"
)

// HTTPHandler serves the aggregated health report as JSON, answering 503
// when any component is unhealthy.
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := c.Check(r.Context())

		status := http.StatusOK
		for _, state := range results {
			if state != StatusOK {
				status = http.StatusServiceUnavailable
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(results)
	}
}
