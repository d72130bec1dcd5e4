package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bondflow/internal/application/ports"
	"bondflow/internal/application/usecases"
	"bondflow/internal/curve"
)

// JobsHandler triggers the snapshot, backfill and curve-load jobs over
// HTTP, for the scheduler and for operators.
type JobsHandler struct {
	registry    ports.RegistryPort
	snapshotter *usecases.Snapshotter
	backfiller  *usecases.Backfiller
	curves      *curve.Store
	logger      *slog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(registry ports.RegistryPort, snapshotter *usecases.Snapshotter, backfiller *usecases.Backfiller, curves *curve.Store, logger *slog.Logger) *JobsHandler {
	return &JobsHandler{
		registry:    registry,
		snapshotter: snapshotter,
		backfiller:  backfiller,
		curves:      curves,
		logger:      logger,
	}
}

// Handle routes /jobs/snapshot, /jobs/backfill and /jobs/curves.
func (h *JobsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/jobs/snapshot":
		h.snapshot(w, r)
	case "/jobs/backfill":
		h.backfill(w, r)
	case "/jobs/curves":
		h.curveSeries(w, r)
	default:
		http.Error(w, "Unknown job", http.StatusNotFound)
	}
}

// curveSeries loads one calendar year of benchmark yield history so
// backfills can derive spreads for that year.
func (h *JobsHandler) curveSeries(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1990 || year > time.Now().Year() {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}

	saved, err := h.curves.SaveDailySeries(r.Context(), year)
	if err != nil {
		h.logger.Error("curve series load failed", "year", year, "error", err)
		http.Error(w, "Upstream failure", http.StatusBadGateway)
		return
	}
	writeJSON(w, map[string]any{"year": year, "points_saved": saved})
}

func (h *JobsHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	stats := h.snapshotter.RunDailySnapshot(r.Context())
	writeJSON(w, stats)
}

func (h *JobsHandler) backfill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	instrumentID := q.Get("instrument")
	if instrumentID == "" {
		http.Error(w, "Missing instrument parameter", http.StatusBadRequest)
		return
	}

	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		http.Error(w, "Invalid from date", http.StatusBadRequest)
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		http.Error(w, "Invalid to date", http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "Range end before start", http.StatusBadRequest)
		return
	}

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

	stats := h.backfiller.Backfill(ctx, *inst, from, to)
	writeJSON(w, stats)
}
