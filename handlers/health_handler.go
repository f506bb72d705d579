package handlers

import (
	"net/http"
	"time"

	"github.com/stylecart/api-gateway/config"
	"github.com/stylecart/api-gateway/identity"
	"github.com/stylecart/api-gateway/utils"
)

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Success   bool              `json:"success"`
	Gateway   string            `json:"gateway"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Cache     identity.Stats    `json:"cache"`
}

// HealthHandler reports gateway liveness, the configured upstream base URLs
// and identity cache counters.
type HealthHandler struct {
	services config.ServicesConfig
	cache    *identity.Cache
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(services config.ServicesConfig, cache *identity.Cache) *HealthHandler {
	return &HealthHandler{services: services, cache: cache}
}

// HandleHealth handles GET /health.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Success:   true,
		Gateway:   "api-gateway",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  h.services.Map(),
		Cache:     h.cache.Stats(),
	})
}
