package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"liquidation-export/internal/domain"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

const (
	ContentTypePDF = "application/pdf"

	mmPerInch = 25.4

	marginTop    = 12.0
	marginBottom = 15.0

	infoRowHeight    = 6.5
	tableRowHeight   = 6.0
	summaryRowHeight = 7.0

	logoWidth = 45.0
	logoGap   = 6.0
	headerGap = 4.0
)

var (
	labelColor       = mustHex("#203864")
	headerFillColor  = mustHex("#4472C4")
	totalsFillColor  = mustHex("#E7E6E6")
	summaryHighlight = mustHex("#FFC000")
	borderColor      = mustHex("#BFBFBF")
	white            = rgb{255, 255, 255}
	black            = rgb{0, 0, 0}

	detailWidthsIn  = []float64{1.6, 1.0, 1.0, 1.0, 1.2, 1.2, 1.2}
	summaryWidthsIn = []float64{5.5, 2.5}
)

type rgb struct {
	r, g, b int
}

func mustHex(s string) rgb {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		panic(fmt.Sprintf("invalid color %q", s))
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}

func inches(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = v * mmPerInch
	}
	return out
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

type PDFOption func(*PDFRenderer)

func WithLogo(logo *Logo, required bool) PDFOption {
	return func(r *PDFRenderer) {
		r.logo = logo
		r.logoRequired = required
	}
}

func WithCompression(enabled bool) PDFOption {
	return func(r *PDFRenderer) {
		r.compress = enabled
	}
}

// PDFRenderer draws a liquidation as a landscape A4 document.
type PDFRenderer struct {
	log          *zap.Logger
	logo         *Logo
	logoRequired bool
	compress     bool
}

func NewPDFRenderer(log *zap.Logger, opts ...PDFOption) *PDFRenderer {
	if log == nil {
		log = zap.NewNop()
	}
	r := &PDFRenderer{log: log, compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *PDFRenderer) ContentType() string { return ContentTypePDF }

func (r *PDFRenderer) Extension() string { return ".pdf" }

func (r *PDFRenderer) Render(in Input) ([]byte, error) {
	layout, err := BuildLayout(in)
	if err != nil {
		return nil, err
	}

	logo, err := r.loadLogo()
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Liquidación "+FormatIdentifier(in.Identifier), true)
	pdf.SetCreator("liquidation-export", true)

	detailWidths := inches(detailWidthsIn)
	pageWidth, _ := pdf.GetPageSize()
	side := (pageWidth - sum(detailWidths)) / 2
	pdf.SetMargins(side, marginTop, side)
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-marginBottom + 3)
		pdf.SetFont("Helvetica", "I", 8)
		setText(pdf, black)
		pdf.CellFormat(0, 5, tr(layout.Footer), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	var logoHeight float64
	if logo != nil {
		data, imageType, _ := logo.Load()
		logoHeight = logo.HeightFor(logoWidth)
		pdf.RegisterImageOptionsReader("logo", fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}, bytes.NewReader(data))
		pdf.ImageOptions("logo", side, marginTop, logoWidth, logoHeight, false, fpdf.ImageOptions{ImageType: imageType}, 0, "")
	}

	box := placeHeader(side, logoHeight, len(layout.Info))
	pdf.SetY(marginTop)
	drawInfo(pdf, tr, layout.Info, box.InfoX)
	pdf.SetY(box.BodyY)

	drawTitle(pdf, tr, DetailTitle)
	drawDetailHeader(pdf, tr, layout.DetailHeader, detailWidths)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range layout.DetailRows {
		if pageBreakNeeded(pdf, tableRowHeight) {
			pdf.AddPage()
			drawDetailHeader(pdf, tr, layout.DetailHeader, detailWidths)
			pdf.SetFont("Helvetica", "", 8)
		}
		setText(pdf, black)
		for i, cell := range row {
			align := "R"
			if i < 2 {
				align = "C"
			}
			pdf.CellFormat(detailWidths[i], tableRowHeight, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if pageBreakNeeded(pdf, tableRowHeight) {
		pdf.AddPage()
		drawDetailHeader(pdf, tr, layout.DetailHeader, detailWidths)
	}
	pdf.SetFont("Helvetica", "B", 8)
	setFill(pdf, totalsFillColor)
	setText(pdf, black)
	for i, cell := range layout.TotalsRow {
		pdf.CellFormat(detailWidths[i], tableRowHeight, tr(cell), "1", 0, "R", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.Ln(6)

	summaryWidths := inches(summaryWidthsIn)
	if pageBreakNeeded(pdf, 10+summaryRowHeight*float64(len(layout.Summary))) {
		pdf.AddPage()
	}
	drawTitle(pdf, tr, SummaryTitle)
	for i, row := range layout.Summary {
		highlight := i == 0 || i == 3
		style := ""
		if highlight || i == len(layout.Summary)-1 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		setFill(pdf, summaryHighlight)
		setText(pdf, black)
		pdf.CellFormat(summaryWidths[0], summaryRowHeight, tr(row.Label), "1", 0, "L", highlight, 0, "")
		pdf.CellFormat(summaryWidths[1], summaryRowHeight, tr(row.Value), "1", 1, "R", highlight, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("draw pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	r.log.Debug("pdf rendered",
		zap.String("identifier", string(in.Identifier)),
		zap.String("campaign", in.Campaign.String()),
		zap.Int("rows", len(layout.DetailRows)),
		zap.Int("pages", pdf.PageNo()),
		zap.Int("bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

// loadLogo returns nil when the document is drawn without a logo.
func (r *PDFRenderer) loadLogo() (*Logo, error) {
	if r.logo == nil {
		if r.logoRequired {
			return nil, &domain.RenderError{Field: "logo", Message: "not configured"}
		}
		return nil, nil
	}

	if _, _, err := r.logo.Load(); err != nil {
		if r.logoRequired {
			return nil, &domain.RenderError{Field: "logo", Message: err.Error()}
		}
		r.log.Warn("logo unavailable, rendering without it", zap.String("path", r.logo.Path()), zap.Error(err))
		return nil, nil
	}
	return r.logo, nil
}

// headerBox positions the info rows next to the logo.
type headerBox struct {
	InfoX float64
	// BodyY is the first Y below both the logo and the info rows.
	BodyY float64
}

// placeHeader lays out the header; logoHeight is zero without a logo.
func placeHeader(side, logoHeight float64, infoRows int) headerBox {
	box := headerBox{InfoX: side}
	if logoHeight > 0 {
		box.InfoX = side + logoWidth + logoGap
	}
	bottom := max(marginTop+float64(infoRows)*infoRowHeight, marginTop+logoHeight)
	box.BodyY = bottom + headerGap
	return box
}

func drawInfo(pdf *fpdf.Fpdf, tr func(string) string, rows []InfoRow, x float64) {
	for _, row := range rows {
		pdf.SetX(x)
		pdf.SetFont("Helvetica", "B", 10)
		setText(pdf, labelColor)
		pdf.CellFormat(40, infoRowHeight, tr(row.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		setText(pdf, black)
		pdf.CellFormat(0, infoRowHeight, tr(row.Value), "", 1, "L", false, 0, "")
	}
}

func drawTitle(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	setText(pdf, labelColor)
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
}

func drawDetailHeader(pdf *fpdf.Fpdf, tr func(string) string, header []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 8)
	setFill(pdf, headerFillColor)
	setText(pdf, white)
	pdf.SetDrawColor(borderColor.r, borderColor.g, borderColor.b)
	for i, h := range header {
		pdf.CellFormat(widths[i], tableRowHeight+1, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func pageBreakNeeded(pdf *fpdf.Fpdf, h float64) bool {
	_, pageHeight := pdf.GetPageSize()
	return pdf.GetY()+h > pageHeight-marginBottom
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

func setFill(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetFillColor(c.r, c.g, c.b)
}
