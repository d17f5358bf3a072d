// Package reporting renders audit artifacts for operators.
package reporting

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/afraa786/wichain/internal/core/domain"
	"github.com/afraa786/wichain/internal/core/ports"
)

const recentBlocksInReport = 15

// PDFExporter renders a chain audit report: verification outcome, network
// statistics and the most recent ledger entries.
type PDFExporter struct {
	ledger ports.LedgerService
	stats  func(ctx context.Context) (domain.NetworkStats, error)
}

// NewPDFExporter creates the exporter. statsFn typically comes from the
// detection service.
func NewPDFExporter(ledger ports.LedgerService, statsFn func(ctx context.Context) (domain.NetworkStats, error)) *PDFExporter {
	return &PDFExporter{ledger: ledger, stats: statsFn}
}

// WriteReport renders the audit report to w.
func (e *PDFExporter) WriteReport(ctx context.Context, w io.Writer) error {
	status, err := e.ledger.Verify(ctx)
	if err != nil {
		return fmt.Errorf("verify chain: %w", err)
	}
	stats, err := e.stats(ctx)
	if err != nil {
		return fmt.Errorf("collect stats: %w", err)
	}
	recent, err := e.ledger.Tail(ctx, recentBlocksInReport)
	if err != nil {
		return fmt.Errorf("read recent blocks: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("WiChain Ledger Audit", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "WiChain Ledger Audit Report")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(10)

	e.writeIntegrityBanner(pdf, status)
	e.writeStats(pdf, stats)
	e.writeRecentBlocks(pdf, recent)

	return pdf.Output(w)
}

func (e *PDFExporter) writeIntegrityBanner(pdf *gofpdf.Fpdf, status domain.ChainStatus) {
	pdf.SetFont("Helvetica", "B", 12)
	if status.Valid {
		pdf.SetFillColor(220, 245, 220)
		pdf.CellFormat(0, 10, fmt.Sprintf("CHAIN INTACT - %d blocks verified", status.Blocks), "1", 1, "C", true, 0, "")
	} else {
		pdf.SetFillColor(250, 220, 220)
		pdf.CellFormat(0, 10, fmt.Sprintf("CHAIN BROKEN at block %d: %s", status.FailedIndex, status.Reason), "1", 1, "C", true, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) writeStats(pdf *gofpdf.Fpdf, stats domain.NetworkStats) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Network Overview")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 10)
	rows := [][2]string{
		{"Networks observed", fmt.Sprintf("%d", stats.TotalNetworks)},
		{"Flagged as spoofed", fmt.Sprintf("%d", stats.SpoofNetworks)},
		{"Legitimate", fmt.Sprintf("%d", stats.LegitimateNetworks)},
		{"Spoof rate", fmt.Sprintf("%.1f%%", stats.SpoofPercentage)},
	}
	for _, row := range rows {
		pdf.CellFormat(60, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
}

func (e *PDFExporter) writeRecentBlocks(pdf *gofpdf.Fpdf, blocks []domain.Block) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Recent Ledger Entries")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(15, 7, "Index", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 7, "Timestamp", "1", 0, "C", false, 0, "")
	pdf.CellFormat(120, 7, "Hash", "1", 1, "C", false, 0, "")

	pdf.SetFont("Courier", "", 8)
	for _, b := range blocks {
		pdf.CellFormat(15, 6, fmt.Sprintf("%d", b.Index), "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 6, b.TimestampString(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(120, 6, b.Hash, "1", 1, "L", false, 0, "")
	}
	if len(blocks) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 6, "No ledger entries yet.")
		pdf.Ln(7)
	}
}
