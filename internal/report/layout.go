package report

import (
	"slices"
	"strings"
	"time"

	"liquidation-export/internal/domain"
)

// AddressPlaceholder is what the search UI submits when no address was
// typed; it counts as no address at all.
const AddressPlaceholder = "No especificada"

const (
	DetailTitle  = "DETALLE DE DEUDA"
	SummaryTitle = "RESUMEN DE TOTALES"
	TotalLabel   = "TOTAL:"
)

type Input struct {
	SubjectName string
	Identifier  domain.Identifier
	Campaign    domain.Campaign

	Rows    []domain.AggregatedRow
	Totals  domain.CampaignTotals
	Summary domain.SummaryFigures

	Address string
	// PaymentDate is printed verbatim; empty means the generation date.
	PaymentDate string
	GeneratedAt time.Time
}

type InfoRow struct {
	Label string
	Value string
}

// Layout is the renderer-independent content of a liquidation document.
type Layout struct {
	Info []InfoRow

	DetailHeader []string
	DetailRows   [][]string
	TotalsRow    []string

	Summary []InfoRow

	Footer string
}

type DetailColumn struct {
	Header string
	Value  func(r domain.AggregatedRow) string
	Total  func(t domain.CampaignTotals) string
}

var detailColumns = []DetailColumn{
	{
		Header: "CUSSP",
		Value:  func(r domain.AggregatedRow) string { return r.AccountCode },
		Total:  func(domain.CampaignTotals) string { return "" },
	},
	{
		Header: "Período",
		Value:  func(r domain.AggregatedRow) string { return r.Period },
		Total:  func(domain.CampaignTotals) string { return "" },
	},
	{
		Header: "Fondo",
		Value:  func(r domain.AggregatedRow) string { return FormatCurrency(r.Principal) },
		Total:  func(domain.CampaignTotals) string { return TotalLabel },
	},
	{
		Header: "Mora",
		Value:  func(r domain.AggregatedRow) string { return FormatCurrency(r.Penalty) },
		Total:  func(t domain.CampaignTotals) string { return FormatCurrency(t.Penalty) },
	},
	{
		Header: "Total Fondo",
		Value:  func(r domain.AggregatedRow) string { return FormatCurrency(r.PrincipalWithPenalty) },
		Total:  func(t domain.CampaignTotals) string { return FormatCurrency(t.PrincipalWithPenalty) },
	},
	{
		Header: "Total Admin.",
		Value:  func(r domain.AggregatedRow) string { return FormatCurrency(r.Administrative) },
		Total:  func(t domain.CampaignTotals) string { return FormatCurrency(t.Administrative) },
	},
	{
		Header: "Total",
		Value:  func(r domain.AggregatedRow) string { return FormatCurrency(r.Total) },
		Total:  func(t domain.CampaignTotals) string { return FormatCurrency(t.General) },
	},
}

func HasAddress(address string) bool {
	a := strings.TrimSpace(address)
	return a != "" && a != AddressPlaceholder
}

func validate(in Input) error {
	if strings.TrimSpace(in.SubjectName) == "" {
		return &domain.RenderError{Field: "subject_name", Message: "must not be empty"}
	}
	if strings.TrimSpace(string(in.Identifier)) == "" {
		return &domain.RenderError{Field: "identifier", Message: "must not be empty"}
	}
	if strings.TrimSpace(string(in.Campaign)) == "" {
		return &domain.RenderError{Field: "campaign", Message: "must not be empty"}
	}
	return nil
}

// BuildLayout lays out the header, detail table, totals row, summary block
// and footer. It only formats; all figures come from the aggregation.
func BuildLayout(in Input) (Layout, error) {
	if err := validate(in); err != nil {
		return Layout{}, err
	}

	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	paymentDate := strings.TrimSpace(in.PaymentDate)
	if paymentDate == "" {
		paymentDate = FormatDate(generated)
	}

	identifier := FormatIdentifier(in.Identifier)

	accountCode := identifier
	if len(in.Rows) > 0 {
		accountCode = in.Rows[0].AccountCode
	}

	info := []InfoRow{
		{Label: "Razón Social:", Value: in.SubjectName},
		{Label: "CUSSP:", Value: accountCode},
		{Label: "RUC:", Value: identifier},
		{Label: "Campaña:", Value: in.Campaign.String()},
		{Label: "Fecha de pago:", Value: paymentDate},
	}
	if HasAddress(in.Address) {
		info = slices.Insert(info, 2, InfoRow{Label: "Dirección:", Value: strings.TrimSpace(in.Address)})
	}

	layout := Layout{
		Info:         info,
		DetailHeader: make([]string, 0, len(detailColumns)),
		DetailRows:   make([][]string, 0, len(in.Rows)),
		TotalsRow:    make([]string, 0, len(detailColumns)),
		Footer:       "Documento generado el " + FormatDate(generated),
	}

	for _, col := range detailColumns {
		layout.DetailHeader = append(layout.DetailHeader, col.Header)
		layout.TotalsRow = append(layout.TotalsRow, col.Total(in.Totals))
	}

	for _, r := range in.Rows {
		cells := make([]string, 0, len(detailColumns))
		for _, col := range detailColumns {
			cells = append(cells, col.Value(r))
		}
		layout.DetailRows = append(layout.DetailRows, cells)
	}

	layout.Summary = []InfoRow{
		{Label: "Deuda previsional con intereses:", Value: FormatCurrency(in.Summary.PrincipalWithPenalty)},
		{Label: "Gastos de cobranza (15%):", Value: FormatCurrency(in.Summary.CollectionCost)},
		{Label: "IGV (18%):", Value: FormatCurrency(in.Summary.Tax)},
		{Label: "Total gastos administrativos:", Value: FormatCurrency(in.Summary.AdminExpense)},
		{Label: "TOTAL DEUDA:", Value: FormatCurrency(in.Summary.FinalTotal)},
	}

	return layout, nil
}
