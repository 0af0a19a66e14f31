package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	WorkbookSheet = "Liquidacion"
)

// WorkbookRenderer writes the same layout as the PDF into a single sheet.
type WorkbookRenderer struct {
	log *zap.Logger
}

func NewWorkbookRenderer(log *zap.Logger) *WorkbookRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkbookRenderer{log: log}
}

func (r *WorkbookRenderer) ContentType() string { return ContentTypeXLSX }

func (r *WorkbookRenderer) Extension() string { return ".xlsx" }

type workbookStyles struct {
	label   int
	title   int
	header  int
	cell    int
	totals  int
	summary int
	accent  int
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "BFBFBF", Style: 1},
		{Type: "top", Color: "BFBFBF", Style: 1},
		{Type: "right", Color: "BFBFBF", Style: 1},
		{Type: "bottom", Color: "BFBFBF", Style: 1},
	}

	var st workbookStyles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.label, &excelize.Style{Font: &excelize.Font{Bold: true, Color: "203864"}}},
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 12, Color: "203864"}}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
			Border:    border,
		}},
		{&st.cell, &excelize.Style{Border: border, Alignment: &excelize.Alignment{Horizontal: "right"}}},
		{&st.totals, &excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"E7E6E6"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "right"},
			Border:    border,
		}},
		{&st.summary, &excelize.Style{Border: border}},
		{&st.accent, &excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
			Border: border,
		}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

func (r *WorkbookRenderer) Render(in Input) ([]byte, error) {
	layout, err := BuildLayout(in)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), WorkbookSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	sheet := WorkbookSheet

	_ = f.SetDocProps(&excelize.DocProperties{
		Creator: "liquidation-export",
		Title:   "Liquidación " + FormatIdentifier(in.Identifier),
	})

	st, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}

	set := func(col, row int, v any, style int) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
		if style != 0 {
			_ = f.SetCellStyle(sheet, cell, cell, style)
		}
	}

	row := 1
	for _, info := range layout.Info {
		set(1, row, info.Label, st.label)
		set(2, row, info.Value, 0)
		row++
	}
	row++

	set(1, row, DetailTitle, st.title)
	row++
	for i, h := range layout.DetailHeader {
		set(i+1, row, h, st.header)
	}
	row++
	for _, cells := range layout.DetailRows {
		for i, v := range cells {
			set(i+1, row, v, st.cell)
		}
		row++
	}
	for i, v := range layout.TotalsRow {
		set(i+1, row, v, st.totals)
	}
	row += 2

	set(1, row, SummaryTitle, st.title)
	row++
	for i, s := range layout.Summary {
		style := st.summary
		if i == 0 || i == 3 {
			style = st.accent
		}
		set(1, row, s.Label, style)
		set(2, row, s.Value, style)
		row++
	}
	row++
	set(1, row, layout.Footer, 0)

	for i, w := range detailWidthsIn {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w*14)
	}
	_ = f.SetColWidth(sheet, "A", "A", 34)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	r.log.Debug("workbook rendered",
		zap.String("identifier", string(in.Identifier)),
		zap.String("campaign", in.Campaign.String()),
		zap.Int("rows", len(layout.DetailRows)),
	)

	return buf.Bytes(), nil
}
