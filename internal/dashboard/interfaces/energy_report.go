package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	dashboard "github.com/IsmaelPl01/netolight/internal/dashboard/domain"
)

// EnergyReport is one exportable period.
type EnergyReport struct {
	Title  string
	Period string
	Total  analytics.StateSummary
	Points []analytics.PointwiseSummary
}

// BuildEnergyReportPDF renders a minimal PDF for an energy report.
func BuildEnergyReportPDF(report EnergyReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, report.Title)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s", report.Period))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Devices: %d", report.Total.NDevices))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Consumption (kWh): %.3f", dashboard.ConsumptionKWh(report.Total)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Savings (%%): %.2f",
		dashboard.SavingsPercent(report.Total, dashboard.FullPowerBaselineWatts)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("CO2 avoided (t): %.1f",
		dashboard.CO2SavedTons(report.Total, dashboard.FullPowerBaselineWatts)))
	pdf.Ln(8)

	// Points table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "Bucket", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Devices", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Energy (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "On-time (h)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, p := range report.Points {
		pdf.CellFormat(40, 6, p.Bucket.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", p.NDevices), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f", p.EnergyIn/1000), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", p.OnTimeSeconds/3600), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildEnergyReportXLSX renders a minimal XLSX for an energy report.
func BuildEnergyReportXLSX(report EnergyReport) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	pointsSheet := "points"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(pointsSheet)

	_ = f.SetCellValue(summarySheet, "A1", report.Title)
	_ = f.SetCellValue(summarySheet, "A3", "Period")
	_ = f.SetCellValue(summarySheet, "B3", report.Period)
	_ = f.SetCellValue(summarySheet, "A4", "Devices")
	_ = f.SetCellValue(summarySheet, "B4", report.Total.NDevices)
	_ = f.SetCellValue(summarySheet, "A5", "Consumption (kWh)")
	_ = f.SetCellValue(summarySheet, "B5", dashboard.ConsumptionKWh(report.Total))
	_ = f.SetCellValue(summarySheet, "A6", "Savings (%)")
	_ = f.SetCellValue(summarySheet, "B6",
		dashboard.SavingsPercent(report.Total, dashboard.FullPowerBaselineWatts))
	_ = f.SetCellValue(summarySheet, "A7", "CO2 avoided (t)")
	_ = f.SetCellValue(summarySheet, "B7",
		dashboard.CO2SavedTons(report.Total, dashboard.FullPowerBaselineWatts))
	_ = f.SetCellValue(summarySheet, "A8", "On-time (h)")
	_ = f.SetCellValue(summarySheet, "B8", report.Total.OnTimeSeconds/3600)

	_ = f.SetCellValue(pointsSheet, "A1", "Bucket")
	_ = f.SetCellValue(pointsSheet, "B1", "Devices")
	_ = f.SetCellValue(pointsSheet, "C1", "Energy (kWh)")
	_ = f.SetCellValue(pointsSheet, "D1", "On-time (h)")
	for i, p := range report.Points {
		row := i + 2
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("A%d", row), p.Bucket.Format("2006-01-02 15:04"))
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("B%d", row), p.NDevices)
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("C%d", row), p.EnergyIn/1000)
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("D%d", row), p.OnTimeSeconds/3600)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
