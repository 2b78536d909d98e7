package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const HealthPath = "/health"

type health struct {
	Status  string `json:"status"`
	Context string `json:"context"`
}

// HealthRoutes serves GET /health.
type HealthRoutes struct {
	context string
}

func NewHealthRoutes(contextName string) *HealthRoutes {
	return &HealthRoutes{context: contextName}
}

func (h *HealthRoutes) Mount(r chi.Router) {
	r.Get(HealthPath, h.serve)
}

func (h *HealthRoutes) serve(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	_ = json.NewEncoder(w).Encode(health{Status: "ok", Context: h.context})
}
