package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"bondflow/internal/application/ports"
	"bondflow/internal/application/usecases"
)

// PricingHandler serves current pricing reads and on-demand resolution.
type PricingHandler struct {
	registry ports.RegistryPort
	storage  ports.StoragePort
	cache    ports.CachePort
	resolver *usecases.Resolver
	logger   *slog.Logger
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(registry ports.RegistryPort, storage ports.StoragePort, cache ports.CachePort, resolver *usecases.Resolver, logger *slog.Logger) *PricingHandler {
	return &PricingHandler{
		registry: registry,
		storage:  storage,
		cache:    cache,
		resolver: resolver,
		logger:   logger,
	}
}

// Handle routes /pricing/{id} and /pricing/{id}/resolve.
func (h *PricingHandler) Handle(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/pricing/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Missing instrument id", http.StatusBadRequest)
		return
	}
	instrumentID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.getCurrent(w, r, instrumentID)
	case len(parts) == 2 && parts[1] == "resolve" && r.Method == http.MethodPost:
		h.resolve(w, r, instrumentID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getCurrent reads from the cache first and falls back to storage.
func (h *PricingHandler) getCurrent(w http.ResponseWriter, r *http.Request, instrumentID string) {
	ctx := r.Context()

	if h.cache != nil {
		cached, err := h.cache.GetPriceResult(ctx, instrumentID)
		if err != nil {
			h.logger.Warn("pricing cache read failed", "instrument", instrumentID, "error", err)
		} else if cached != nil {
			writeJSON(w, cached)
			return
		}
	}

	rec, err := h.storage.GetCurrentPricing(ctx, instrumentID)
	if err != nil {
		h.logger.Error("current pricing read failed", "instrument", instrumentID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}

// resolve runs the full tier chain for one instrument on demand.
func (h *PricingHandler) resolve(w http.ResponseWriter, r *http.Request, instrumentID string) {
	ctx := r.Context()

	inst, err := h.registry.GetInstrument(ctx, instrumentID)
	if err != nil {
		h.logger.Error("instrument lookup failed", "instrument", instrumentID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if inst == nil {
		http.Error(w, "Unknown instrument", http.StatusNotFound)
		return
	}

	result, err := h.resolver.ResolveAndStore(ctx, *inst)
	if err != nil {
		h.logger.Error("resolution failed", "instrument", instrumentID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
