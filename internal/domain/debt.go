package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a currency cell as it came from the source. A cell is either
// missing, malformed (Raw keeps the text that failed to parse) or valid.
type Amount struct {
	Value decimal.Decimal `json:"value"`
	Raw   string          `json:"raw,omitempty"`
	Valid bool            `json:"valid"`
}

func AmountOf(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

// ParseAmount treats blank cells and pandas-style "nan" as missing.
func ParseAmount(raw string) Amount {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none":
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{Raw: s}
	}
	return AmountOf(d)
}

func (a Amount) Missing() bool {
	return !a.Valid && a.Raw == ""
}

func (a Amount) Malformed() bool {
	return !a.Valid && a.Raw != ""
}

// Record field names used in DataError.
const (
	FieldPrincipal        = "principal_amount"
	FieldCommission       = "commission_amount"
	FieldInsurance        = "insurance_amount"
	FieldPensionFundFee   = "pension_fund_fee_amount"
	FieldTotalFund        = "total_fund_amount"
	FieldTotalWithPenalty = "total_with_penalty_amount"
	FieldPenalty          = "penalty_amount"
)

type DebtRecord struct {
	Identifier  Identifier `json:"identifier"`
	Campaign    Campaign   `json:"campaign"`
	SubjectName string     `json:"subject_name"`
	AccountCode string     `json:"account_code"`
	Period      string     `json:"period"`

	Principal      Amount `json:"principal_amount"`
	Commission     Amount `json:"commission_amount"`
	Insurance      Amount `json:"insurance_amount"`
	PensionFundFee Amount `json:"pension_fund_fee_amount"`

	// TotalWithPenalty supersedes TotalFund when present.
	TotalFund        Amount `json:"total_fund_amount"`
	TotalWithPenalty Amount `json:"total_with_penalty_amount"`

	// Penalty defaults to zero when missing.
	Penalty Amount `json:"penalty_amount"`

	AffiliateName string `json:"affiliate_name,omitempty"`
}

// PeriodDisplay returns the YYYYMM part of the operation period.
func (r DebtRecord) PeriodDisplay() string {
	p := []rune(r.Period)
	if len(p) < 6 {
		return r.Period
	}
	return string(p[len(p)-6:])
}
