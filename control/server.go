// File: control/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Optional HTTP exposition of metrics and debug probes. The server runs on
// its own goroutine and never touches the bridge's task machinery.

package control

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the debug router: Prometheus exposition on /metrics and a
// JSON dump of all registered probes on /debug/state.
func Handler(probes *DebugProbes) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/debug/state", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(probes.DumpState()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return r
}

// Serve starts the debug endpoint on addr. It blocks; callers run it on a
// dedicated goroutine.
func Serve(addr string, probes *DebugProbes) error {
	return http.ListenAndServe(addr, Handler(probes))
}
