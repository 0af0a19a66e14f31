package service

import (
	"errors"
	"testing"

	"liquidation-export/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func scenarioRecord() domain.DebtRecord {
	return domain.DebtRecord{
		Identifier:       "20212246698",
		Campaign:         domain.CampaignRedireccionamiento,
		SubjectName:      "EMPRESA DE PRUEBA S.A.C.",
		AccountCode:      "244681JACET6",
		Period:           "200903",
		Principal:        domain.ParseAmount("97.50"),
		Commission:       domain.ParseAmount("25.55"),
		Insurance:        domain.ParseAmount("0"),
		PensionFundFee:   domain.ParseAmount("0"),
		TotalWithPenalty: domain.ParseAmount("622.63"),
		Penalty:          domain.ParseAmount("499.58"),
	}
}

func zeroAdminRecord(code string) domain.DebtRecord {
	rec := scenarioRecord()
	rec.AccountCode = code
	rec.Principal = domain.ParseAmount("1000")
	rec.TotalWithPenalty = domain.ParseAmount("1500")
	rec.Commission = domain.ParseAmount("0")
	return rec
}

func TestAggregate_Scenario(t *testing.T) {
	liq, err := Aggregate([]domain.DebtRecord{scenarioRecord()})
	require.NoError(t, err)

	require.Len(t, liq.Rows, 1)
	row := liq.Rows[0]
	assert.Equal(t, "244681JACET6", row.AccountCode)
	assert.Equal(t, "200903", row.Period)
	assert.True(t, row.Administrative.Equal(dec("25.55")))
	assert.True(t, row.Total.Equal(dec("648.18")))

	assert.True(t, liq.Totals.PrincipalWithPenalty.Equal(dec("622.63")))
	assert.True(t, liq.Totals.Penalty.Equal(dec("499.58")))
	assert.True(t, liq.Totals.Administrative.Equal(dec("25.55")))
	assert.True(t, liq.Totals.General.Equal(dec("648.18")))

	assert.True(t, liq.Summary.FinalTotal.Equal(dec("732.83551")), liq.Summary.FinalTotal.String())
	assert.Equal(t, "732.84", liq.Summary.FinalTotal.StringFixed(2))
	assert.Equal(t, 1, liq.RecordCount)
	assert.Equal(t, 0, liq.ExcludedCount)
}

func TestAggregate_DropsZeroAdministrativeRows(t *testing.T) {
	records := []domain.DebtRecord{
		zeroAdminRecord("DROP1"),
		scenarioRecord(),
		zeroAdminRecord("DROP2"),
	}

	liq, err := Aggregate(records)
	require.NoError(t, err)

	require.Len(t, liq.Rows, 1)
	assert.Equal(t, "244681JACET6", liq.Rows[0].AccountCode)
	assert.Equal(t, 3, liq.RecordCount)
	assert.Equal(t, 2, liq.ExcludedCount)
	assert.True(t, liq.Totals.PrincipalWithPenalty.Equal(dec("622.63")))
}

func TestAggregate_AllDropped(t *testing.T) {
	liq, err := Aggregate([]domain.DebtRecord{zeroAdminRecord("A"), zeroAdminRecord("B")})
	require.NoError(t, err)

	assert.Empty(t, liq.Rows)
	assert.True(t, liq.Totals.General.IsZero())
	assert.True(t, liq.Totals.PrincipalWithPenalty.IsZero())
	assert.True(t, liq.Summary.FinalTotal.IsZero())
}

func TestAggregate_Empty(t *testing.T) {
	liq, err := Aggregate(nil)
	require.NoError(t, err)
	assert.Empty(t, liq.Rows)
	assert.True(t, liq.Totals.General.IsZero())
}

func TestAggregate_OrderPreserved(t *testing.T) {
	var records []domain.DebtRecord
	for _, code := range []string{"C", "A", "B"} {
		rec := scenarioRecord()
		rec.AccountCode = code
		records = append(records, rec)
	}

	liq, err := Aggregate(records)
	require.NoError(t, err)
	require.Len(t, liq.Rows, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{liq.Rows[0].AccountCode, liq.Rows[1].AccountCode, liq.Rows[2].AccountCode})
}

func TestAggregate_TotalFundFallbackAndPenaltyDefault(t *testing.T) {
	rec := scenarioRecord()
	rec.TotalWithPenalty = domain.Amount{}
	rec.TotalFund = domain.ParseAmount("100.10")
	rec.Penalty = domain.Amount{}

	liq, err := Aggregate([]domain.DebtRecord{rec})
	require.NoError(t, err)
	require.Len(t, liq.Rows, 1)
	assert.True(t, liq.Rows[0].PrincipalWithPenalty.Equal(dec("100.10")))
	assert.True(t, liq.Rows[0].Penalty.IsZero())
	assert.True(t, liq.Rows[0].Total.Equal(dec("125.65")))
}

func TestAggregate_TotalWithPenaltySupersedesTotalFund(t *testing.T) {
	rec := scenarioRecord()
	rec.TotalFund = domain.ParseAmount("1")

	liq, err := Aggregate([]domain.DebtRecord{rec})
	require.NoError(t, err)
	assert.True(t, liq.Rows[0].PrincipalWithPenalty.Equal(dec("622.63")))
}

func TestAggregate_DataErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *domain.DebtRecord)
		field  string
		reason string
	}{
		{
			name:   "missing commission",
			mutate: func(r *domain.DebtRecord) { r.Commission = domain.Amount{} },
			field:  domain.FieldCommission,
			reason: domain.ReasonMissing,
		},
		{
			name:   "non numeric insurance",
			mutate: func(r *domain.DebtRecord) { r.Insurance = domain.ParseAmount("n/a") },
			field:  domain.FieldInsurance,
			reason: domain.ReasonNotNumeric,
		},
		{
			name: "no total at all",
			mutate: func(r *domain.DebtRecord) {
				r.TotalWithPenalty = domain.Amount{}
				r.TotalFund = domain.Amount{}
			},
			field:  domain.FieldTotalFund,
			reason: domain.ReasonMissing,
		},
		{
			name:   "malformed preferred total",
			mutate: func(r *domain.DebtRecord) { r.TotalWithPenalty = domain.ParseAmount("abc") },
			field:  domain.FieldTotalWithPenalty,
			reason: domain.ReasonNotNumeric,
		},
		{
			name:   "malformed penalty",
			mutate: func(r *domain.DebtRecord) { r.Penalty = domain.ParseAmount("??") },
			field:  domain.FieldPenalty,
			reason: domain.ReasonNotNumeric,
		},
		{
			name:   "missing principal",
			mutate: func(r *domain.DebtRecord) { r.Principal = domain.Amount{} },
			field:  domain.FieldPrincipal,
			reason: domain.ReasonMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := scenarioRecord()
			bad := scenarioRecord()
			bad.AccountCode = "BAD"
			tt.mutate(&bad)

			_, err := Aggregate([]domain.DebtRecord{good, bad})
			require.Error(t, err)

			var dataErr *domain.DataError
			require.True(t, errors.As(err, &dataErr))
			assert.Equal(t, 1, dataErr.Index)
			assert.Equal(t, "BAD", dataErr.AccountCode)
			assert.Equal(t, tt.field, dataErr.Field)
			assert.Equal(t, tt.reason, dataErr.Reason)
		})
	}
}

func TestAggregate_RowTotalsSumToGeneralTotal(t *testing.T) {
	amounts := []string{"0.01", "10.005", "333.33", "1234.567", "0.995"}
	var records []domain.DebtRecord
	for i, a := range amounts {
		rec := scenarioRecord()
		rec.AccountCode = string(rune('A' + i))
		rec.TotalWithPenalty = domain.ParseAmount(a)
		rec.Insurance = domain.ParseAmount(a)
		records = append(records, rec)
	}

	liq, err := Aggregate(records)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, row := range liq.Rows {
		sum = sum.Add(row.Total)
	}
	assert.True(t, sum.Equal(liq.Totals.General))
}

func TestSummarize_FinalTotalFactor(t *testing.T) {
	for _, p := range []string{"0", "1", "622.63", "98765.4321", "0.01"} {
		s := Summarize(domain.CampaignTotals{PrincipalWithPenalty: dec(p)})
		assert.True(t, s.FinalTotal.Equal(dec(p).Mul(dec("1.177"))), "principal %s", p)
		assert.True(t, s.CollectionCost.Equal(dec(p).Mul(dec("0.15"))))
		assert.True(t, s.Tax.Equal(dec(p).Mul(dec("0.027"))))
		assert.True(t, s.AdminExpense.Equal(s.CollectionCost.Add(s.Tax)))
	}
}
