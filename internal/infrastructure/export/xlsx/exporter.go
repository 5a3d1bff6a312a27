package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

const sheet = "Issues"

var headers = []string{
	"ID",
	"Type",
	"Latitude",
	"Longitude",
	"Timestamp",
	"Extraction Error",
	"Image URL",
	"Created At",
}

var columnWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "A", 8},
	{"B", "B", 22},
	{"C", "D", 14},
	{"E", "E", 20},
	{"F", "F", 16},
	{"G", "G", 60},
	{"H", "H", 20},
}

type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// Issues renders one row per issue. Missing coordinates and timestamps are
// left as empty cells.
func (e *Exporter) Issues(issues []domain.Issue) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := writeRow(f, sheet, 1, header); err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return nil, fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, issue := range issues {
		values := []any{
			issue.ID,
			issue.IssueTypeName,
			floatOrEmpty(issue.Latitude),
			floatOrEmpty(issue.Longitude),
			"",
			yesNo(issue.ExtractionError),
			issue.ImageURL,
			issue.CreatedAt.UTC().Format(domain.TimestampLayout),
		}
		if issue.Timestamp != nil {
			values[4] = issue.Timestamp.UTC().Format(domain.TimestampLayout)
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return nil, err
		}
	}

	for _, w := range columnWidths {
		if err := f.SetColWidth(sheet, w.from, w.to, w.width); err != nil {
			return nil, fmt.Errorf("set width %s:%s: %w", w.from, w.to, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func floatOrEmpty(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
