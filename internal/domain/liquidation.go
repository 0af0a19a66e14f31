package domain

import "github.com/shopspring/decimal"

type AggregatedRow struct {
	AccountCode   string `json:"account_code"`
	Period        string `json:"period"`
	AffiliateName string `json:"affiliate_name,omitempty"`

	Principal            decimal.Decimal `json:"principal"`
	Penalty              decimal.Decimal `json:"penalty"`
	PrincipalWithPenalty decimal.Decimal `json:"principal_with_penalty"`
	Administrative       decimal.Decimal `json:"administrative"`
	Total                decimal.Decimal `json:"total"`
}

type CampaignTotals struct {
	PrincipalWithPenalty decimal.Decimal `json:"principal_with_penalty"`
	Penalty              decimal.Decimal `json:"penalty"`
	Administrative       decimal.Decimal `json:"administrative"`
	General              decimal.Decimal `json:"general"`
}

type SummaryFigures struct {
	PrincipalWithPenalty decimal.Decimal `json:"principal_with_penalty"`
	CollectionCost       decimal.Decimal `json:"collection_cost"`
	Tax                  decimal.Decimal `json:"tax"`
	AdminExpense         decimal.Decimal `json:"admin_expense"`
	FinalTotal           decimal.Decimal `json:"final_total"`
}

type Liquidation struct {
	Rows    []AggregatedRow `json:"rows"`
	Totals  CampaignTotals  `json:"totals"`
	Summary SummaryFigures  `json:"summary"`

	RecordCount   int `json:"record_count"`
	ExcludedCount int `json:"excluded_count"`
}
