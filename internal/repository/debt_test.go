package repository

import (
	"context"
	"errors"
	"testing"

	"liquidation-export/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var debtRecordColumns = []string{
	"ruc", "campaign", "subject_name", "account_code", "period",
	"principal_amount", "commission_amount", "insurance_amount", "pension_fund_fee_amount",
	"total_fund_amount", "total_with_penalty_amount", "penalty_amount", "affiliate_name",
}

func newMockRepository(t *testing.T) (*DebtRecordRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewDebtRecordRepository(db, nil), mock
}

func TestDebtRecordRepository_Load(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows(debtRecordColumns).
		AddRow("20212246698", "redireccionamiento", "EMPRESA SAC", "A1", "200903",
			"100.50", "1.20", "0.80", "2", "110.00", nil, nil, "JUAN PEREZ").
		AddRow("20212246698.0", "PRESUNTA", "EMPRESA SAC", "A2", "200904",
			nil, "abc", "0", "0", nil, "55.10", "5.10", "")

	mock.ExpectQuery("FROM debt_records dr").WillReturnRows(rows)

	records, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, domain.Identifier("20212246698"), first.Identifier)
	assert.Equal(t, domain.CampaignRedireccionamiento, first.Campaign)
	assert.Equal(t, "100.5", first.Principal.Value.String())
	assert.True(t, first.TotalFund.Valid)
	assert.True(t, first.TotalWithPenalty.Missing())
	assert.True(t, first.Penalty.Missing())
	assert.Equal(t, "JUAN PEREZ", first.AffiliateName)

	second := records[1]
	assert.Equal(t, domain.Identifier("20212246698"), second.Identifier)
	assert.True(t, second.Principal.Missing())
	assert.True(t, second.Commission.Malformed())
	assert.Equal(t, "abc", second.Commission.Raw)
	assert.True(t, second.TotalWithPenalty.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDebtRecordRepository_LoadSkipsInvalidIdentifier(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows(debtRecordColumns).
		AddRow("", "PRESUNTA", "SIN RUC", "X1", "200901", "1", "1", "1", "1", "1", nil, nil, "").
		AddRow("RUC-INVALIDO", "PRESUNTA", "MAL RUC", "X2", "200901", "1", "1", "1", "1", "1", nil, nil, "").
		AddRow("20100000001", "PRESUNTA", "EMPRESA", "B1", "200901", "1", "1", "1", "1", "1", nil, nil, "")

	mock.ExpectQuery("FROM debt_records dr").WillReturnRows(rows)

	records, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "B1", records[0].AccountCode)
}

func TestDebtRecordRepository_QueryError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("FROM debt_records dr").WillReturnError(errors.New("relation does not exist"))

	_, err := repo.Load(context.Background())
	assert.Error(t, err)
}

func TestDebtRecordRepository_NoFingerprint(t *testing.T) {
	repo, _ := newMockRepository(t)

	fp, err := repo.Fingerprint(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fp)
	assert.Equal(t, "postgres:debt_records", repo.Name())
}
