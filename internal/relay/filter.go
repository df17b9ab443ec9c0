package relay

import (
	"strings"

	"relay_bot/internal/model"
)

// matchFilters decides relay eligibility for one subscription. Without
// active filters every message passes. With filters present, keywords
// combine with OR: the first case-insensitive substring match wins and is
// returned as the matched-filter label.
func matchFilters(text string, filters []model.Filter) (string, bool) {
	if len(filters) == 0 {
		return "", true
	}
	lower := strings.ToLower(text)
	for _, f := range filters {
		if strings.Contains(lower, strings.ToLower(f.Keyword)) {
			return f.Keyword, true
		}
	}
	return "", false
}
