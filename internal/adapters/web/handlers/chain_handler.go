package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/afraa786/wichain/internal/core/ports"
)

const defaultTailSize = 10

// ChainHandler serves the ledger read endpoints.
type ChainHandler struct {
	ledger ports.LedgerService
	logger *slog.Logger
}

// NewChainHandler creates the handler.
func NewChainHandler(ledger ports.LedgerService, logger *slog.Logger) *ChainHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChainHandler{ledger: ledger, logger: logger}
}

// HandleChain serves GET /api/blockchain: the full chain, genesis first.
func (h *ChainHandler) HandleChain(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.ledger.Chain(r.Context())
	if err != nil {
		h.logger.Error("chain read failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read chain")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"blocks": blocks, "length": len(blocks)})
}

// HandleLatest serves GET /api/blockchain/latest: the newest blocks.
func (h *ChainHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	n := defaultTailSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		n = parsed
	}

	blocks, err := h.ledger.Tail(r.Context(), n)
	if err != nil {
		h.logger.Error("chain tail read failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read chain tail")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"blocks": blocks, "length": len(blocks)})
}

// HandleVerify serves GET /api/blockchain/verify: a full integrity pass.
func (h *ChainHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	status, err := h.ledger.Verify(r.Context())
	if err != nil {
		h.logger.Error("chain verification failed", "error", err)
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	respondJSON(w, http.StatusOK, status)
}
