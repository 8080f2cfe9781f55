package rateengine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRateCard reads a YAML rate card. Fields left out of the file keep their
// default values; an empty path returns DefaultRateCard.
//
//	vendors:
//	  - {code: DELHIVERY, name: Delhivery, base: 180, per_kg: 55, tat: "2-3 days"}
//	fuel_surcharge_pct: 12
func LoadRateCard(path string) (RateCard, error) {
	card := DefaultRateCard()
	if strings.TrimSpace(path) == "" {
		return card, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return card, fmt.Errorf("read rate card: %w", err)
	}
	return ParseRateCard(raw)
}

// ParseRateCard decodes YAML on top of the default card.
func ParseRateCard(raw []byte) (RateCard, error) {
	card := DefaultRateCard()
	defaults := card.Vendors
	card.Vendors = nil
	if err := yaml.Unmarshal(raw, &card); err != nil {
		return DefaultRateCard(), fmt.Errorf("parse rate card: %w", err)
	}
	if len(card.Vendors) == 0 {
		card.Vendors = defaults
	}
	for i, v := range card.Vendors {
		if strings.TrimSpace(v.Code) == "" {
			return DefaultRateCard(), fmt.Errorf("parse rate card: vendor %d has no code", i)
		}
		card.Vendors[i].Code = strings.ToUpper(v.Code)
		if v.Name == "" {
			card.Vendors[i].Name = v.Code
		}
	}
	return card, nil
}
