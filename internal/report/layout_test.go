package report

import (
	"errors"
	"testing"
	"time"

	"liquidation-export/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleInput() Input {
	return Input{
		SubjectName: "EMPRESA SAC",
		Identifier:  "20212246698.0",
		Campaign:    domain.CampaignRedireccionamiento,
		Rows: []domain.AggregatedRow{
			{
				AccountCode:          "244681JACET6",
				Period:               "200903",
				Principal:            dec("97.5"),
				Penalty:              dec("499.58"),
				PrincipalWithPenalty: dec("622.63"),
				Administrative:       dec("25.55"),
				Total:                dec("648.18"),
			},
		},
		Totals: domain.CampaignTotals{
			PrincipalWithPenalty: dec("622.63"),
			Penalty:              dec("499.58"),
			Administrative:       dec("25.55"),
			General:              dec("648.18"),
		},
		Summary: domain.SummaryFigures{
			PrincipalWithPenalty: dec("622.63"),
			CollectionCost:       dec("93.3945"),
			Tax:                  dec("16.81101"),
			AdminExpense:         dec("110.20551"),
			FinalTotal:           dec("732.83551"),
		},
		GeneratedAt: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC),
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "S/. 732.84", FormatCurrency(dec("732.83551")))
	assert.Equal(t, "S/. 0.00", FormatCurrency(decimal.Zero))
	assert.Equal(t, "S/. 1.01", FormatCurrency(dec("1.005")))
	assert.Equal(t, "S/. -2.50", FormatCurrency(dec("-2.5")))
}

func TestBuildLayout_WithoutAddress(t *testing.T) {
	for _, address := range []string{"", "   ", AddressPlaceholder} {
		in := sampleInput()
		in.Address = address

		layout, err := BuildLayout(in)
		require.NoError(t, err)

		labels := make([]string, 0, len(layout.Info))
		for _, row := range layout.Info {
			labels = append(labels, row.Label)
		}
		assert.Equal(t, []string{"Razón Social:", "CUSSP:", "RUC:", "Campaña:", "Fecha de pago:"}, labels, "address %q", address)
	}
}

func TestBuildLayout_WithAddress(t *testing.T) {
	in := sampleInput()
	in.Address = "  Av. Arequipa 123, Lima "
	in.PaymentDate = "15/03/2026"

	layout, err := BuildLayout(in)
	require.NoError(t, err)
	require.Len(t, layout.Info, 6)

	assert.Equal(t, InfoRow{Label: "Dirección:", Value: "Av. Arequipa 123, Lima"}, layout.Info[2])
	assert.Equal(t, InfoRow{Label: "Fecha de pago:", Value: "15/03/2026"}, layout.Info[5])
}

func TestBuildLayout_HeaderValues(t *testing.T) {
	layout, err := BuildLayout(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, "EMPRESA SAC", layout.Info[0].Value)
	assert.Equal(t, "244681JACET6", layout.Info[1].Value)
	assert.Equal(t, "20212246698", layout.Info[2].Value)
	assert.Equal(t, "REDIRECCIONAMIENTO", layout.Info[3].Value)
	assert.Equal(t, "09/03/2026", layout.Info[4].Value)
	assert.Equal(t, "Documento generado el 09/03/2026", layout.Footer)
}

func TestBuildLayout_AccountCodeFallsBackToIdentifier(t *testing.T) {
	in := sampleInput()
	in.Rows = nil

	layout, err := BuildLayout(in)
	require.NoError(t, err)
	assert.Equal(t, "20212246698", layout.Info[1].Value)
	assert.Empty(t, layout.DetailRows)
	assert.Len(t, layout.TotalsRow, len(layout.DetailHeader))
}

func TestBuildLayout_TableAndSummary(t *testing.T) {
	layout, err := BuildLayout(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, []string{"CUSSP", "Período", "Fondo", "Mora", "Total Fondo", "Total Admin.", "Total"}, layout.DetailHeader)
	require.Len(t, layout.DetailRows, 1)
	assert.Equal(t,
		[]string{"244681JACET6", "200903", "S/. 97.50", "S/. 499.58", "S/. 622.63", "S/. 25.55", "S/. 648.18"},
		layout.DetailRows[0])
	assert.Equal(t,
		[]string{"", "", TotalLabel, "S/. 499.58", "S/. 622.63", "S/. 25.55", "S/. 648.18"},
		layout.TotalsRow)

	require.Len(t, layout.Summary, 5)
	assert.Equal(t, "S/. 622.63", layout.Summary[0].Value)
	assert.Equal(t, "S/. 93.39", layout.Summary[1].Value)
	assert.Equal(t, "S/. 16.81", layout.Summary[2].Value)
	assert.Equal(t, "S/. 110.21", layout.Summary[3].Value)
	assert.Equal(t, "S/. 732.84", layout.Summary[4].Value)
}

func TestBuildLayout_RejectsEmptyHeaderFields(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Input)
		field string
	}{
		{"subject", func(in *Input) { in.SubjectName = " " }, "subject_name"},
		{"identifier", func(in *Input) { in.Identifier = "" }, "identifier"},
		{"campaign", func(in *Input) { in.Campaign = "" }, "campaign"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleInput()
			tt.mod(&in)

			_, err := BuildLayout(in)
			var renderErr *domain.RenderError
			require.True(t, errors.As(err, &renderErr))
			assert.Equal(t, tt.field, renderErr.Field)
		})
	}
}
