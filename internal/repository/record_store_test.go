package repository

import (
	"testing"

	"liquidation-export/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id domain.Identifier, campaign domain.Campaign, code string) domain.DebtRecord {
	return domain.DebtRecord{
		Identifier:  id,
		Campaign:    campaign,
		SubjectName: "EMPRESA " + string(id),
		AccountCode: code,
		Period:      "200903",
		Commission:  domain.ParseAmount("0"),
	}
}

func sampleStore() *RecordStore {
	return NewRecordStore([]domain.DebtRecord{
		record("20212246698", domain.CampaignRedireccionamiento, "A1"),
		record("20100000001", domain.CampaignPresunta, "B1"),
		record("20212246698", domain.CampaignPresunta, "A2"),
		record("20212246698", domain.CampaignRedireccionamiento, "A3"),
		record("9000", domain.CampaignPrejudicialFlujo, "C1"),
	})
}

func TestRecordStore_RecordsForPreservesOrder(t *testing.T) {
	s := sampleStore()

	got := s.RecordsFor("20212246698", domain.CampaignRedireccionamiento)
	require.Len(t, got, 2)
	assert.Equal(t, "A1", got[0].AccountCode)
	assert.Equal(t, "A3", got[1].AccountCode)
}

func TestRecordStore_RecordsForToleratesLegacyIdentifier(t *testing.T) {
	s := sampleStore()

	for _, id := range []domain.Identifier{"20212246698.0", "2.0212246698E+10", " 20212246698"} {
		got := s.RecordsFor(id, "redireccionamiento")
		assert.Len(t, got, 2, "id %q", id)
	}
}

func TestRecordStore_MissIsEmpty(t *testing.T) {
	s := sampleStore()

	got := s.RecordsFor("11111111111", domain.CampaignPresunta)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	assert.Empty(t, s.RecordsFor("20100000001", domain.CampaignDeudaRealTotal))
}

func TestRecordStore_ResultsAreCopies(t *testing.T) {
	s := sampleStore()

	got := s.RecordsFor("20212246698", domain.CampaignRedireccionamiento)
	got[0].AccountCode = "CHANGED"

	again := s.RecordsFor("20212246698", domain.CampaignRedireccionamiento)
	assert.Equal(t, "A1", again[0].AccountCode)

	ids := s.DistinctIdentifiers()
	ids[0] = "0"
	assert.Equal(t, domain.Identifier("9000"), s.DistinctIdentifiers()[0])
}

func TestRecordStore_DistinctIdentifiersSortedNumerically(t *testing.T) {
	s := sampleStore()

	assert.Equal(t, []domain.Identifier{"9000", "20100000001", "20212246698"}, s.DistinctIdentifiers())
	assert.Equal(t, 5, s.Len())
}

func TestRecordStore_CampaignsFor(t *testing.T) {
	s := sampleStore()

	assert.Equal(t,
		[]domain.Campaign{domain.CampaignRedireccionamiento, domain.CampaignPresunta},
		s.CampaignsFor("20212246698.0"))
	assert.Empty(t, s.CampaignsFor("1"))
}

func TestRecordStore_SearchIdentifiers(t *testing.T) {
	s := sampleStore()

	assert.Equal(t, []domain.Identifier{"20100000001", "20212246698"}, s.SearchIdentifiers("20", 0))
	assert.Equal(t, []domain.Identifier{"20212246698"}, s.SearchIdentifiers("2246", 0))
	assert.Equal(t, []domain.Identifier{"9000"}, s.SearchIdentifiers("9000", 0))
	assert.Len(t, s.SearchIdentifiers("", 2), 2)
	assert.Len(t, s.SearchIdentifiers("0", 1), 1)
	assert.Empty(t, s.SearchIdentifiers("777", 0))
}

func TestRecordStore_CampaignCaseCounts(t *testing.T) {
	s := sampleStore()

	counts := s.CampaignCaseCounts()
	assert.Equal(t, 2, counts[domain.CampaignPresunta])
	assert.Equal(t, 1, counts[domain.CampaignRedireccionamiento])
	assert.Equal(t, 1, counts[domain.CampaignPrejudicialFlujo])
	assert.Equal(t, 0, counts[domain.CampaignDeudaRealTotal])
}
