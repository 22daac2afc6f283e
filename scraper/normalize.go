package scraper

import (
	"strconv"
	"strings"

	"bookflipfinder/models"
)

// ParsePrice strips currency symbols and grouping commas from a scraped
// price string and parses the remainder.
func ParsePrice(text string) (float64, bool) {
	cleaned := strings.TrimSpace(text)
	for _, symbol := range []string{"$", "£", "€", "Â£", "USD", ","} {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// NormalizeAvailability maps free-form availability text onto the
// canonical states stored on a price observation.
func NormalizeAvailability(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	switch {
	case lowered == "":
		return models.AvailabilityUnknown
	case strings.Contains(lowered, "out of stock"), strings.Contains(lowered, "unavailable"):
		return models.AvailabilityOutOfStock
	case strings.Contains(lowered, "limited"), strings.Contains(lowered, "only"), strings.Contains(lowered, "left in stock"):
		return models.AvailabilityLimited
	case strings.Contains(lowered, "in stock"), strings.Contains(lowered, "available"):
		return models.AvailabilityInStock
	default:
		return models.AvailabilityUnknown
	}
}

// NormalizeCondition maps scraped condition text onto the canonical
// condition values, defaulting to new.
func NormalizeCondition(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(lowered, "refurb"):
		return models.ConditionRefurbished
	case strings.Contains(lowered, "used"), strings.Contains(lowered, "pre-owned"):
		return models.ConditionUsed
	default:
		return models.ConditionNew
	}
}
