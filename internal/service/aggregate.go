package service

import (
	"liquidation-export/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	CollectionCostRate = decimal.RequireFromString("0.15")
	TaxRate            = decimal.RequireFromString("0.18")
)

// Aggregate turns the records of one (identifier, campaign) pair into
// report rows and totals. Records whose administrative total is exactly
// zero are left out of the rows and the totals; order is preserved.
func Aggregate(records []domain.DebtRecord) (domain.Liquidation, error) {
	liq := domain.Liquidation{
		Rows:        make([]domain.AggregatedRow, 0, len(records)),
		RecordCount: len(records),
	}

	totals := domain.CampaignTotals{
		PrincipalWithPenalty: decimal.Zero,
		Penalty:              decimal.Zero,
		Administrative:       decimal.Zero,
		General:              decimal.Zero,
	}

	for i, rec := range records {
		row, err := aggregateRecord(i, rec)
		if err != nil {
			return domain.Liquidation{}, err
		}

		if row.Administrative.IsZero() {
			liq.ExcludedCount++
			continue
		}

		liq.Rows = append(liq.Rows, row)

		totals.PrincipalWithPenalty = totals.PrincipalWithPenalty.Add(row.PrincipalWithPenalty)
		totals.Penalty = totals.Penalty.Add(row.Penalty)
		totals.Administrative = totals.Administrative.Add(row.Administrative)
		totals.General = totals.General.Add(row.Total)
	}

	liq.Totals = totals
	liq.Summary = Summarize(totals)

	return liq, nil
}

func Summarize(t domain.CampaignTotals) domain.SummaryFigures {
	collection := t.PrincipalWithPenalty.Mul(CollectionCostRate)
	tax := collection.Mul(TaxRate)
	adminExpense := collection.Add(tax)

	return domain.SummaryFigures{
		PrincipalWithPenalty: t.PrincipalWithPenalty,
		CollectionCost:       collection,
		Tax:                  tax,
		AdminExpense:         adminExpense,
		FinalTotal:           t.PrincipalWithPenalty.Add(adminExpense),
	}
}

func aggregateRecord(i int, rec domain.DebtRecord) (domain.AggregatedRow, error) {
	principal, err := requireAmount(i, rec, domain.FieldPrincipal, rec.Principal)
	if err != nil {
		return domain.AggregatedRow{}, err
	}
	commission, err := requireAmount(i, rec, domain.FieldCommission, rec.Commission)
	if err != nil {
		return domain.AggregatedRow{}, err
	}
	insurance, err := requireAmount(i, rec, domain.FieldInsurance, rec.Insurance)
	if err != nil {
		return domain.AggregatedRow{}, err
	}
	pensionFee, err := requireAmount(i, rec, domain.FieldPensionFundFee, rec.PensionFundFee)
	if err != nil {
		return domain.AggregatedRow{}, err
	}

	// a malformed preferred total is reported, not silently replaced
	var withPenalty decimal.Decimal
	switch {
	case rec.TotalWithPenalty.Valid:
		withPenalty = rec.TotalWithPenalty.Value
	case rec.TotalWithPenalty.Malformed():
		return domain.AggregatedRow{}, dataError(i, rec, domain.FieldTotalWithPenalty, rec.TotalWithPenalty)
	default:
		withPenalty, err = requireAmount(i, rec, domain.FieldTotalFund, rec.TotalFund)
		if err != nil {
			return domain.AggregatedRow{}, err
		}
	}

	penalty := decimal.Zero
	switch {
	case rec.Penalty.Valid:
		penalty = rec.Penalty.Value
	case rec.Penalty.Malformed():
		return domain.AggregatedRow{}, dataError(i, rec, domain.FieldPenalty, rec.Penalty)
	}

	admin := commission.Add(insurance).Add(pensionFee)

	return domain.AggregatedRow{
		AccountCode:          rec.AccountCode,
		Period:               rec.PeriodDisplay(),
		AffiliateName:        rec.AffiliateName,
		Principal:            principal,
		Penalty:              penalty,
		PrincipalWithPenalty: withPenalty,
		Administrative:       admin,
		Total:                withPenalty.Add(admin),
	}, nil
}

func requireAmount(i int, rec domain.DebtRecord, field string, a domain.Amount) (decimal.Decimal, error) {
	if a.Valid {
		return a.Value, nil
	}
	return decimal.Decimal{}, dataError(i, rec, field, a)
}

func dataError(i int, rec domain.DebtRecord, field string, a domain.Amount) *domain.DataError {
	reason := domain.ReasonMissing
	if a.Malformed() {
		reason = domain.ReasonNotNumeric
	}
	return &domain.DataError{
		Index:       i,
		AccountCode: rec.AccountCode,
		Field:       field,
		Value:       a.Raw,
		Reason:      reason,
	}
}
