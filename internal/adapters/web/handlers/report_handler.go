package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

// ReportWriter renders an audit report to a writer.
type ReportWriter interface {
	WriteReport(ctx context.Context, w io.Writer) error
}

// ReportHandler serves the PDF audit report.
type ReportHandler struct {
	exporter ReportWriter
	logger   *slog.Logger
}

// NewReportHandler creates the handler.
func NewReportHandler(exporter ReportWriter, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{exporter: exporter, logger: logger}
}

// HandleReport serves GET /api/report as a PDF attachment.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="wichain-audit.pdf"`)

	if err := h.exporter.WriteReport(r.Context(), w); err != nil {
		h.logger.Error("report generation failed", "error", err)
		// Headers are already out; the truncated body is the best we can do.
	}
}
