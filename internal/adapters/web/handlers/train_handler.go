package handlers

import (
	"log/slog"
	"net/http"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

// TrainHandler serves the retraining endpoint.
type TrainHandler struct {
	service ports.DetectionService
	logger  *slog.Logger
}

// NewTrainHandler creates the handler.
func NewTrainHandler(service ports.DetectionService, logger *slog.Logger) *TrainHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrainHandler{service: service, logger: logger}
}

// HandleTrain serves POST /api/train: labeled observations in, a training
// report out. Retraining hot-swaps the served model on success.
func (h *TrainHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	var samples []domain.LabeledObservation
	if !decodeBody(w, r, &samples) {
		return
	}
	if len(samples) == 0 {
		respondError(w, http.StatusBadRequest, "empty training set")
		return
	}

	report, err := h.service.Train(r.Context(), samples)
	if err != nil {
		h.logger.Error("training failed", "samples", len(samples), "error", err)
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, report)
}
