package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrUnknownCampaign   = errors.New("unknown campaign")
)

// Identifier is a taxpayer id (RUC) in canonical integer form.
// Legacy spreadsheets store it as a float, so "20212246698.0",
// "2.0212246698E+10" and 20212246698.0 all normalize to "20212246698".
type Identifier string

func ParseIdentifier(v any) (Identifier, error) {
	switch t := v.(type) {
	case Identifier:
		return ParseIdentifier(string(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", ErrInvalidIdentifier
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, t)
		}
		return identifierFromDecimal(d)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", fmt.Errorf("%w: %v", ErrInvalidIdentifier, t)
		}
		return identifierFromDecimal(decimal.NewFromFloat(t))
	case float32:
		return ParseIdentifier(float64(t))
	case int:
		return identifierFromDecimal(decimal.NewFromInt(int64(t)))
	case int64:
		return identifierFromDecimal(decimal.NewFromInt(t))
	case decimal.Decimal:
		return identifierFromDecimal(t)
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidIdentifier, v)
	}
}

func MustIdentifier(v any) Identifier {
	id, err := ParseIdentifier(v)
	if err != nil {
		panic(err)
	}
	return id
}

// fractional part is dropped, same as the legacy int(float(ruc)) conversion
func identifierFromDecimal(d decimal.Decimal) (Identifier, error) {
	if d.Sign() <= 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidIdentifier, d.String())
	}
	return Identifier(d.Truncate(0).String()), nil
}

func (id Identifier) String() string {
	return string(id)
}

// Less orders identifiers numerically; canonical form has no leading zeros.
func (id Identifier) Less(other Identifier) bool {
	if len(id) != len(other) {
		return len(id) < len(other)
	}
	return id < other
}

type Campaign string

const (
	CampaignPresunta           Campaign = "PRESUNTA"
	CampaignDeudaRealTotal     Campaign = "DEUDA REAL TOTAL"
	CampaignRedireccionamiento Campaign = "REDIRECCIONAMIENTO"
	CampaignPrejudicialFlujo   Campaign = "PREJUDICIAL FLUJO"
)

var Campaigns = []Campaign{
	CampaignPresunta,
	CampaignDeudaRealTotal,
	CampaignRedireccionamiento,
	CampaignPrejudicialFlujo,
}

// NormalizeCampaign upper-cases a label and collapses separators
// ("deuda_real  total" -> "DEUDA REAL TOTAL") without checking membership.
func NormalizeCampaign(s string) Campaign {
	s = strings.ReplaceAll(s, "_", " ")
	return Campaign(strings.ToUpper(strings.Join(strings.Fields(s), " ")))
}

func ParseCampaign(s string) (Campaign, error) {
	c := NormalizeCampaign(s)
	if !c.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCampaign, s)
	}
	return c, nil
}

func (c Campaign) Known() bool {
	for _, k := range Campaigns {
		if c == k {
			return true
		}
	}
	return false
}

func (c Campaign) String() string {
	return string(c)
}

// Abbrev is the campaign part of the liquidation file name.
func (c Campaign) Abbrev() string {
	s := strings.ToUpper(strings.ReplaceAll(string(c), " ", "_"))
	if r := []rune(s); len(r) > 10 {
		return string(r[:10])
	}
	return s
}
