package repository

import (
	"sort"
	"strings"

	"liquidation-export/internal/domain"
)

type recordKey struct {
	id       domain.Identifier
	campaign domain.Campaign
}

// RecordStore is the in-memory debt dataset. It is built once and never
// mutated afterwards, so one instance can be shared by every request.
type RecordStore struct {
	records     []domain.DebtRecord
	byKey       map[recordKey][]int
	campaigns   map[domain.Identifier][]domain.Campaign
	identifiers []domain.Identifier
}

func NewRecordStore(records []domain.DebtRecord) *RecordStore {
	s := &RecordStore{
		records:   make([]domain.DebtRecord, 0, len(records)),
		byKey:     make(map[recordKey][]int),
		campaigns: make(map[domain.Identifier][]domain.Campaign),
	}

	for _, rec := range records {
		if id, err := domain.ParseIdentifier(rec.Identifier); err == nil {
			rec.Identifier = id
		}
		rec.Campaign = domain.NormalizeCampaign(string(rec.Campaign))

		idx := len(s.records)
		s.records = append(s.records, rec)

		key := recordKey{id: rec.Identifier, campaign: rec.Campaign}
		if _, seen := s.byKey[key]; !seen {
			if _, known := s.campaigns[rec.Identifier]; !known {
				s.identifiers = append(s.identifiers, rec.Identifier)
			}
			s.campaigns[rec.Identifier] = append(s.campaigns[rec.Identifier], rec.Campaign)
		}
		s.byKey[key] = append(s.byKey[key], idx)
	}

	sort.Slice(s.identifiers, func(i, j int) bool {
		return s.identifiers[i].Less(s.identifiers[j])
	})

	return s
}

// RecordsFor returns the records of one identifier and campaign in source
// order. A miss yields an empty slice.
func (s *RecordStore) RecordsFor(id domain.Identifier, campaign domain.Campaign) []domain.DebtRecord {
	key := recordKey{id: normalizeID(id), campaign: domain.NormalizeCampaign(string(campaign))}

	idxs := s.byKey[key]
	out := make([]domain.DebtRecord, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, s.records[i])
	}
	return out
}

func (s *RecordStore) DistinctIdentifiers() []domain.Identifier {
	return append([]domain.Identifier(nil), s.identifiers...)
}

// CampaignsFor lists the campaigns of an identifier in first-seen order.
func (s *RecordStore) CampaignsFor(id domain.Identifier) []domain.Campaign {
	return append([]domain.Campaign(nil), s.campaigns[normalizeID(id)]...)
}

func (s *RecordStore) HasIdentifier(id domain.Identifier) bool {
	_, ok := s.campaigns[normalizeID(id)]
	return ok
}

// SearchIdentifiers does substring matching on identifiers. An exact match
// comes first, the rest keep numeric order. limit <= 0 means no limit.
func (s *RecordStore) SearchIdentifiers(fragment string, limit int) []domain.Identifier {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		out := s.DistinctIdentifiers()
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return out
	}

	exact := normalizeID(domain.Identifier(fragment))

	var out []domain.Identifier
	if s.HasIdentifier(exact) {
		out = append(out, exact)
	}
	for _, id := range s.identifiers {
		if limit > 0 && len(out) >= limit {
			break
		}
		if id == exact {
			continue
		}
		if strings.Contains(string(id), fragment) {
			out = append(out, id)
		}
	}
	return out
}

// CampaignCaseCounts counts distinct identifiers per campaign.
func (s *RecordStore) CampaignCaseCounts() map[domain.Campaign]int {
	counts := make(map[domain.Campaign]int)
	for key := range s.byKey {
		counts[key.campaign]++
	}
	return counts
}

func (s *RecordStore) Len() int {
	return len(s.records)
}

func normalizeID(id domain.Identifier) domain.Identifier {
	if n, err := domain.ParseIdentifier(id); err == nil {
		return n
	}
	return id
}
