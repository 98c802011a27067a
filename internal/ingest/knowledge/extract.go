package knowledge

import (
	"regexp"
	"strings"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

var (
	ageRe    = regexp.MustCompile(`\d{1,2}歳`)
	moneyRe  = regexp.MustCompile(`\d+万`)
	quoteRe  = regexp.MustCompile(`「[^」]*」`)
)

// extractEntities scans text for known people, concepts, organisations,
// ages, and monetary amounts. Each returned slice is deduplicated. People,
// concepts, and organisations come out in catalogue order; ages and amounts
// come out in the order they first appear in text.
func extractEntities(text string) types.Entities {
	return types.Entities{
		People:        dedupMatches(text, knownPeople),
		Concepts:      dedupMatches(text, knownConcepts),
		Organizations: dedupMatches(text, knownOrganizations),
		Ages:          dedupRegex(text, ageRe),
		Numbers:       dedupRegex(text, moneyRe),
	}
}

func dedupMatches(text string, candidates []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		if !seen[c] && strings.Contains(text, c) {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func dedupRegex(text string, re *regexp.Regexp) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range re.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// extractQuotes returns every 「…」-quoted substring plus sentences ending
// in a fixed advice/principle pattern, deduplicated.
func extractQuotes(text string) []string {
	seen := make(map[string]bool)
	var quotes []string

	for _, m := range quoteRe.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			quotes = append(quotes, m)
		}
	}

	for _, sentence := range splitSentences(text) {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		for _, suffix := range advicePatternSuffixes {
			if strings.HasSuffix(strings.TrimRight(trimmed, "。！？"), suffix) && !seen[trimmed] {
				seen[trimmed] = true
				quotes = append(quotes, trimmed)
				break
			}
		}
	}
	return quotes
}

func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		switch r {
		case '。', '！', '？':
			sentences = append(sentences, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		sentences = append(sentences, b.String())
	}
	return sentences
}

// classifyType returns the KnowledgeObject type for text: the first
// matching category wins, checked in order advice -> principle ->
// biographical_event -> anecdote -> general.
func classifyType(text string) types.KnowledgeType {
	switch {
	case containsAny(text, "べき", "してはいけない", "ことが大切"):
		return types.KnowledgeAdvice
	case containsAny(text, "原則", "法則", "黄金率", "価値観"):
		return types.KnowledgePrinciple
	case containsAny(text, "歳", "生まれ", "当時", "若い頃"):
		return types.KnowledgeBiographical
	case containsAny(text, "エピソード", "思い出", "出来事", "ある日"):
		return types.KnowledgeAnecdote
	default:
		return types.KnowledgeGeneral
	}
}

func containsAny(text string, substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
