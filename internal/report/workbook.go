// Package report renders a trust's dashboard view as an XLSX workbook: the
// summary table of all ventilating trusts plus the three smoothed line charts
// for the selected trust.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/couchcryptid/nhs-trust-dashboard/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	SeriesSheet  = "Series"
)

var summaryHeaders = []string{"NHS Trust", "Max hospital cases", "Max new admissions", "Max mechanical ventilation"}

var seriesHeaders = []string{"Date", "New admissions", "Hospital cases", "Mechanical ventilation"}

// chartSpecs describes the three charts, in display order. Column is the
// series sheet column holding the values.
var chartSpecs = []struct {
	column string
	title  string
	yLabel string
	anchor string
}{
	{"B", "New Hospital Admissions", "Daily patients", "F2"},
	{"C", "Hospital COVID-19 +ve inpatient numbers", "Daily total inpatient numbers", "F20"},
	{"D", "COVID related inpatients requiring mechanical ventilation", "Daily patients", "F38"},
}

// Write renders the workbook for one trust to w.
func Write(w io.Writer, summary []domain.TrustSummary, chart domain.TrustChart, fetchedAt time.Time) error {
	f, err := Build(summary, chart, fetchedAt)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build assembles the workbook in memory. The caller must Close it.
func Build(summary []domain.TrustSummary, chart domain.TrustChart, fetchedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := build(f, summary, chart, fetchedAt); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func build(f *excelize.File, summary []domain.TrustSummary, chart domain.TrustChart, fetchedAt time.Time) error {
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SeriesSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummary(f, summary, headerStyle); err != nil {
		return err
	}
	if err := writeSeries(f, chart, headerStyle); err != nil {
		return err
	}
	if err := addCharts(f, chart); err != nil {
		return err
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "COVID-19 NHS Trust Patient Numbers",
		Subject:     chart.Trust,
		Description: fmt.Sprintf("%s rolling average; data current as of %s", chart.Window, chart.LatestDate.Format(domain.DateLayout)),
		Created:     fetchedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("set doc props: %w", err)
	}

	idx, err := f.GetSheetIndex(SeriesSheet)
	if err != nil {
		return fmt.Errorf("get sheet index: %w", err)
	}
	f.SetActiveSheet(idx)
	return nil
}

func writeSummary(f *excelize.File, summary []domain.TrustSummary, headerStyle int) error {
	if err := writeHeader(f, SummarySheet, summaryHeaders, headerStyle); err != nil {
		return err
	}
	for i, s := range summary {
		row := i + 2
		values := []any{s.Trust, countCell(s.HospitalCases), countCell(s.NewAdmissions), countCell(s.MechVentCases)}
		if err := writeRow(f, SummarySheet, row, values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 55); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return f.SetColWidth(SummarySheet, "B", "D", 24)
}

func writeSeries(f *excelize.File, chart domain.TrustChart, headerStyle int) error {
	if err := writeHeader(f, SeriesSheet, seriesHeaders, headerStyle); err != nil {
		return err
	}
	for i, d := range chart.Dates {
		values := []any{
			d.Format(domain.DateLayout),
			pointCell(chart.NewAdmissions[i]),
			pointCell(chart.HospitalCases[i]),
			pointCell(chart.MechVentCases[i]),
		}
		if err := writeRow(f, SeriesSheet, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(SeriesSheet, "A", "D", 22)
}

func addCharts(f *excelize.File, chart domain.TrustChart) error {
	last := len(chart.Dates) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", SeriesSheet, last)
	yAxisSuffix := fmt.Sprintf(" (%d-day average)", chart.Window.Days())

	for _, spec := range chartSpecs {
		c := &excelize.Chart{
			Type: excelize.Line,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$%s$1", SeriesSheet, spec.column),
				Categories: categories,
				Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", SeriesSheet, spec.column, spec.column, last),
			}},
			Title:        []excelize.RichTextRun{{Text: spec.title}},
			Legend:       excelize.ChartLegend{Position: "none"},
			XAxis:        excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Date"}}},
			YAxis:        excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: spec.yLabel + yAxisSuffix}}, MajorGridLines: true},
			Dimension:    excelize.ChartDimension{Width: 720, Height: 320},
			ShowBlanksAs: "gap",
		}
		if err := f.AddChart(SeriesSheet, spec.anchor, c); err != nil {
			return fmt.Errorf("add chart %q: %w", spec.title, err)
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// writeRow writes values starting at column A. Nil values leave the cell blank.
func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

func countCell(c domain.Count) any {
	if !c.Reported {
		return nil
	}
	return c.Value
}

func pointCell(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
