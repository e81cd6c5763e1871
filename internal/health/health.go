package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ccastromar/aos-research-team/internal/runtime"
)

// readyTimeout bounds the endpoint ping done by a readiness probe.
const readyTimeout = 3 * time.Second

func LiveHandler(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports ready once the definitions are loaded and the default
// completion endpoint answers a ping.
func ReadyHandler(rt *runtime.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rt.ConfigLoaded() {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "config not loaded"})
			return
		}
		if rt.LLM != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := rt.LLM.Ping(ctx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, map[string]string{
					"status": "llm unreachable",
					"error":  err.Error(),
				})
				return
			}
		}
		writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
