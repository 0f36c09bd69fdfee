package handlers

import (
	"net/http"

	"github.com/wikirecon/reconcile/internal/monitoring"
)

type MonitoringHandler struct {
	monitor *monitoring.Monitor
}

func NewMonitoringHandler(monitor *monitoring.Monitor) *MonitoringHandler {
	return &MonitoringHandler{monitor: monitor}
}

// Monitoring serves GET /monitoring: rolling request/query rates over the
// last minute, hour, and day.
func (h *MonitoringHandler) Monitoring(w http.ResponseWriter, r *http.Request) {
	rates, err := h.monitor.GetRates(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, map[string]interface{}{"stats": rates})
}
