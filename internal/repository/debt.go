package repository

import (
	"context"
	"database/sql"

	"liquidation-export/internal/domain"

	"go.uber.org/zap"
)

const debtRecordsQuery = `
	SELECT
		COALESCE(dr.ruc::text, ''),
		dr.campaign,
		COALESCE(dr.subject_name, ''),
		COALESCE(dr.account_code, ''),
		COALESCE(dr.period::text, ''),
		dr.principal_amount::text,
		dr.commission_amount::text,
		dr.insurance_amount::text,
		dr.pension_fund_fee_amount::text,
		dr.total_fund_amount::text,
		dr.total_with_penalty_amount::text,
		dr.penalty_amount::text,
		COALESCE(dr.affiliate_name, '')
	FROM debt_records dr
	ORDER BY dr.id
`

// DebtRecordRepository reads the debt dataset from the debt_records table.
// Amounts are selected as text so that malformed legacy values reach the
// aggregation step instead of failing the scan. Rows with an unusable ruc
// are skipped with a warning, as in the XLSX source.
type DebtRecordRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewDebtRecordRepository(db *sql.DB, log *zap.Logger) *DebtRecordRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &DebtRecordRepository{db: db, log: log}
}

func (r *DebtRecordRepository) Name() string {
	return "postgres:debt_records"
}

// Fingerprint is empty: the table is queried directly and never snapshotted.
func (r *DebtRecordRepository) Fingerprint(ctx context.Context) (string, error) {
	return "", nil
}

func (r *DebtRecordRepository) Load(ctx context.Context) ([]domain.DebtRecord, error) {
	rows, err := r.db.QueryContext(ctx, debtRecordsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DebtRecord

	for n := 1; rows.Next(); n++ {
		var (
			rawID, campaign                          string
			rec                                      domain.DebtRecord
			principal, commission, insurance, afpFee sql.NullString
			totalFund, totalWithPenalty, penalty     sql.NullString
		)

		if err := rows.Scan(
			&rawID,
			&campaign,
			&rec.SubjectName,
			&rec.AccountCode,
			&rec.Period,
			&principal,
			&commission,
			&insurance,
			&afpFee,
			&totalFund,
			&totalWithPenalty,
			&penalty,
			&rec.AffiliateName,
		); err != nil {
			return nil, err
		}

		id, err := domain.ParseIdentifier(rawID)
		if err != nil {
			r.log.Warn("skipping row with invalid identifier", zap.Int("row", n), zap.String("value", rawID))
			continue
		}

		rec.Identifier = id
		rec.Campaign = domain.NormalizeCampaign(campaign)
		rec.Principal = nullAmount(principal)
		rec.Commission = nullAmount(commission)
		rec.Insurance = nullAmount(insurance)
		rec.PensionFundFee = nullAmount(afpFee)
		rec.TotalFund = nullAmount(totalFund)
		rec.TotalWithPenalty = nullAmount(totalWithPenalty)
		rec.Penalty = nullAmount(penalty)

		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func nullAmount(s sql.NullString) domain.Amount {
	if !s.Valid {
		return domain.Amount{}
	}
	return domain.ParseAmount(s.String)
}
