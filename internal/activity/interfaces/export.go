package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	activity "dnspulse/internal/activity/domain"
)

// reportRow is one per-second aggregate of the density curve.
type reportRow struct {
	OffsetSeconds int
	MeanDensity   float64
	MaxDensity    float64
}

func buildReportRows(snapshot activity.Snapshot, cfg activity.Config) []reportRow {
	perSecond := int(time.Second / cfg.Resolution)
	if perSecond <= 0 {
		perSecond = 1
	}

	var rows []reportRow
	for start := 0; start < len(snapshot.Samples); start += perSecond {
		end := start + perSecond
		if end > len(snapshot.Samples) {
			end = len(snapshot.Samples)
		}
		row := reportRow{OffsetSeconds: start / perSecond}
		for _, v := range snapshot.Samples[start:end] {
			row.MeanDensity += v
			if v > row.MaxDensity {
				row.MaxDensity = v
			}
		}
		row.MeanDensity /= float64(end - start)
		rows = append(rows, row)
	}
	return rows
}

// BuildActivityPDF renders a minimal PDF for an activity snapshot.
func BuildActivityPDF(snapshot activity.Snapshot, cfg activity.Config) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "DNS Activity Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", snapshot.At.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Window: %ds", int(cfg.Window/time.Second)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Resolution: %dms", cfg.Resolution.Milliseconds()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Peak: %.4f", snapshot.Peak))
	pdf.Ln(5)
	if snapshot.Empty {
		pdf.Cell(0, 6, "No activity in the window")
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Per-second density table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Offset (s)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Mean density", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Max density", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range buildReportRows(snapshot, cfg) {
		pdf.CellFormat(40, 6, fmt.Sprintf("%d", row.OffsetSeconds), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.5f", row.MeanDensity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.5f", row.MaxDensity), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildActivityXLSX renders a minimal XLSX for an activity snapshot.
func BuildActivityXLSX(snapshot activity.Snapshot, cfg activity.Config) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	samplesSheet := "samples"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(samplesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "DNS Activity Report")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", snapshot.At.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Window (ms)")
	_ = f.SetCellValue(summarySheet, "B4", cfg.Window.Milliseconds())
	_ = f.SetCellValue(summarySheet, "A5", "Resolution (ms)")
	_ = f.SetCellValue(summarySheet, "B5", cfg.Resolution.Milliseconds())
	_ = f.SetCellValue(summarySheet, "A6", "Peak")
	_ = f.SetCellValue(summarySheet, "B6", snapshot.Peak)
	_ = f.SetCellValue(summarySheet, "A7", "Empty")
	_ = f.SetCellValue(summarySheet, "B7", snapshot.Empty)

	_ = f.SetCellValue(samplesSheet, "A1", "Offset (ms)")
	_ = f.SetCellValue(samplesSheet, "B1", "Density")
	for i, v := range snapshot.Samples {
		row := i + 2
		_ = f.SetCellValue(samplesSheet, fmt.Sprintf("A%d", row), int64(i)*cfg.Resolution.Milliseconds())
		_ = f.SetCellValue(samplesSheet, fmt.Sprintf("B%d", row), v)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
