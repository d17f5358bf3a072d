package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
	maxBatchSize       = 256
)

// DetectHandler serves the detection and observation endpoints.
type DetectHandler struct {
	service ports.DetectionService
	logger  *slog.Logger
}

// NewDetectHandler creates the handler.
func NewDetectHandler(service ports.DetectionService, logger *slog.Logger) *DetectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectHandler{service: service, logger: logger}
}

// HandleDetect serves POST /api/detect: one observation in, one verdict out.
func (h *DetectHandler) HandleDetect(w http.ResponseWriter, r *http.Request) {
	var obs domain.NetworkObservation
	if !decodeBody(w, r, &obs) {
		return
	}

	verdict, err := h.service.Detect(r.Context(), obs)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidObservation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("detection failed", "bssid", obs.BSSID, "error", err)
		respondError(w, http.StatusInternalServerError, "detection failed")
		return
	}
	respondJSON(w, http.StatusOK, verdict)
}

// HandleScanBatch serves POST /api/scan: a batch of observations, verdicts
// in matching order. Partially invalid batches return 200 with per-entry
// results plus an errors field.
func (h *DetectHandler) HandleScanBatch(w http.ResponseWriter, r *http.Request) {
	var observations []domain.NetworkObservation
	if !decodeBody(w, r, &observations) {
		return
	}
	if len(observations) == 0 {
		respondError(w, http.StatusBadRequest, "empty batch")
		return
	}
	if len(observations) > maxBatchSize {
		respondError(w, http.StatusBadRequest, "batch exceeds "+strconv.Itoa(maxBatchSize)+" observations")
		return
	}

	verdicts, err := h.service.DetectBatch(r.Context(), observations)
	response := map[string]any{"verdicts": verdicts, "count": len(verdicts)}
	if err != nil {
		response["errors"] = err.Error()
	}
	respondJSON(w, http.StatusOK, response)
}

// HandleNetworks serves GET /api/networks: the most recently seen networks.
func (h *DetectHandler) HandleNetworks(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	records, err := h.service.RecentObservations(r.Context(), limit)
	if err != nil {
		h.logger.Error("list networks failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list networks")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"networks": records, "count": len(records)})
}

// HandleStats serves GET /api/stats.
func (h *DetectHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to collect stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
