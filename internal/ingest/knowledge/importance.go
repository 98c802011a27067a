package knowledge

import "github.com/kotodama-ai/transcript-rag/pkg/types"

// scoreImportance implements the fixed-weight importance heuristic:
// +2 for any quotes, +1 for any people entity, +2 if any concept is in the
// high-value set, +1 if the summary exceeds 100 characters. Bucketed: >=4
// high, >=2 medium, else low.
func scoreImportance(quotes []string, entities types.Entities, summary string) types.Importance {
	score := 0
	if len(quotes) > 0 {
		score += 2
	}
	if len(entities.People) > 0 {
		score += 1
	}
	for _, c := range entities.Concepts {
		if highValueConcepts[c] {
			score += 2
			break
		}
	}
	if len([]rune(summary)) > 100 {
		score += 1
	}

	switch {
	case score >= 4:
		return types.ImportanceHigh
	case score >= 2:
		return types.ImportanceMedium
	default:
		return types.ImportanceLow
	}
}
