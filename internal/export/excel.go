package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/HumbledDS/job-market-pipeline/internal/model"
)

// WriteXLSX writes a single workbook with a summary sheet plus one sheet
// per analytic view and returns its path.
func (e *Exporter) WriteXLSX(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	tables, err := e.tables(ctx)
	if err != nil {
		return "", err
	}
	stats, err := e.source.Stats(ctx)
	if err != nil {
		return "", fmt.Errorf("reading dataset stats: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("creating header style: %w", err)
	}
	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return "", fmt.Errorf("creating label style: %w", err)
	}

	const summarySheet = "Summary"
	f.SetSheetName("Sheet1", summarySheet)
	if err := writeSummarySheet(f, summarySheet, stats, headerStyle, labelStyle); err != nil {
		return "", err
	}

	for _, t := range tables {
		f.NewSheet(t.sheet)
		if err := writeViewSheet(f, t, headerStyle); err != nil {
			return "", err
		}
	}

	path := filepath.Join(e.outDir, fmt.Sprintf("job_market_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}

	e.logger.Info("wrote xlsx export", "path", path, "sheets", len(tables)+1)
	return path, nil
}

func writeSummarySheet(f *excelize.File, sheet string, stats model.DatasetStats, headerStyle, labelStyle int) error {
	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "B", 30)

	f.SetCellValue(sheet, "A1", "Job Market Report")
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)
	f.MergeCell(sheet, "A1", "B1")

	lines := []struct {
		label string
		value any
	}{
		{"Generated:", time.Now().Format("2006-01-02 15:04:05")},
		{"Total Jobs:", stats.TotalJobs},
		{"Unique Companies:", stats.UniqueCompanies},
		{"Unique Locations:", stats.UniqueLocations},
		{"Avg Max Salary:", fmt.Sprintf("%.2f", stats.AvgMaxSalary)},
		{"Earliest Posting:", stats.EarliestPosting},
		{"Latest Posting:", stats.LatestPosting},
	}
	for i, line := range lines {
		row := i + 3
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), line.label)
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), line.value)
	}
	return nil
}

func writeViewSheet(f *excelize.File, t table, headerStyle int) error {
	for col, h := range t.header {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(t.sheet, cell, h)
		f.SetCellStyle(t.sheet, cell, cell, headerStyle)
	}
	f.SetColWidth(t.sheet, "A", string(rune('A'+len(t.header)-1)), 18)

	for i, row := range t.rows {
		for col, v := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+col)), i+2)
			f.SetCellValue(t.sheet, cell, v)
		}
	}

	if len(t.rows) > 0 {
		last := string(rune('A' + len(t.header) - 1))
		if err := f.AutoFilter(t.sheet, fmt.Sprintf("A1:%s%d", last, len(t.rows)+1), nil); err != nil {
			return fmt.Errorf("enabling filter on %s: %w", t.sheet, err)
		}
	}

	// Freeze the header row.
	return f.SetPanes(t.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
