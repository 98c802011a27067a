package knowledge

import "github.com/kotodama-ai/transcript-rag/internal/transcript/phonetic"

// nameFolder folds near-duplicate person/organisation name variants (okurigana
// spelling drift, honorific suffixes) into a single canonical spelling across
// an entire extraction run, using phonetic similarity.
type nameFolder struct {
	matcher    *phonetic.Matcher
	canonical  []string
}

func newNameFolder() *nameFolder {
	return &nameFolder{matcher: phonetic.New()}
}

// fold returns the canonical spelling for name: either an existing canonical
// entry it phonetically matches, or name itself registered as a new
// canonical entry.
func (f *nameFolder) fold(name string) string {
	if len(f.canonical) > 0 {
		if match, _, ok := f.matcher.Match(name, f.canonical); ok {
			return match
		}
	}
	f.canonical = append(f.canonical, name)
	return name
}

// foldAll applies fold to each name in names, preserving order and dropping
// duplicates produced by folding.
func (f *nameFolder) foldAll(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		canon := f.fold(n)
		if !seen[canon] {
			seen[canon] = true
			out = append(out, canon)
		}
	}
	return out
}
