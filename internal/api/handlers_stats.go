package api

import (
	"net/http"

	"github.com/dgallion1/gedgraph/internal/graph"
)

func (s *Server) handleStoreStats(w http.ResponseWriter, r *http.Request) {
	store, ok := s.orchestrator.Store().(*graph.InstrumentedStore)
	if !ok || store.Saves == nil {
		jsonError(w, "store stats unavailable", http.StatusServiceUnavailable)
		return
	}

	out := map[string]any{
		"backend":     store.Backend,
		"saves":       store.Saves.Snapshot(),
		"loads":       store.Loads.Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	}
	if b, ok := store.Store.(interface{ BreakerState() string }); ok {
		out["breaker"] = b.BreakerState()
	}
	writeJSON(w, http.StatusOK, out)
}
