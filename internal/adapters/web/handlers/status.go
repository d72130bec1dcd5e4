package handlers

import (
	"log/slog"
	"net/http"

	"bondflow/internal/application/usecases"
)

// StatusHandler reports scan cycle state.
type StatusHandler struct {
	runner *usecases.CycleRunner
	logger *slog.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(runner *usecases.CycleRunner, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		runner: runner,
		logger: logger,
	}
}

// Handle handles status requests
func (h *StatusHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, map[string]any{
		"cycle_running": h.runner.Running(),
		"last_cycle":    h.runner.LastStats(),
	})
}
