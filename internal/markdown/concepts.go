package markdown

import (
	"regexp"
	"sort"
	"strings"
)

var wordRe = regexp.MustCompile(`[A-Za-z][A-Za-z0-9_-]{2,}`)

// stopwords excluded from concept extraction. Superset of the
// distillation's smaller list: supplements it with the fuller set used
// for the same purpose elsewhere in the original implementation.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "from": true, "into": true, "your": true, "guide": true,
	"docs": true, "markdown": true, "are": true, "was": true, "were": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "can": true, "shall": true,
	"not": true, "but": true, "also": true, "than": true, "then": true,
	"when": true, "where": true, "how": true, "what": true, "which": true,
	"who": true, "whom": true, "why": true, "all": true, "each": true,
	"every": true, "both": true, "few": true, "more": true, "most": true,
	"other": true, "some": true, "such": true, "only": true, "own": true,
	"same": true, "too": true, "very": true, "just": true, "use": true,
	"using": true, "used": true,
}

// extractConcepts ranks body tokens by frequency, adding 2 for every
// occurrence in a heading on top of the count from the body text
// (which includes the heading lines), and returns the top 10 lowercased,
// stopword-filtered concepts. Ties break alphabetically for
// determinism.
func extractConcepts(body string, headingTexts []string) []string {
	counts := map[string]int{}
	for _, w := range wordRe.FindAllString(body, -1) {
		lw := strings.ToLower(w)
		if stopwords[lw] {
			continue
		}
		counts[lw]++
	}
	for _, h := range headingTexts {
		for _, w := range wordRe.FindAllString(h, -1) {
			lw := strings.ToLower(w)
			if stopwords[lw] {
				continue
			}
			counts[lw] += 2
		}
	}

	type kv struct {
		word  string
		count int
	}
	ranked := make([]kv, 0, len(counts))
	for w, c := range counts {
		ranked = append(ranked, kv{w, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	n := 10
	if len(ranked) < n {
		n = len(ranked)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].word
	}
	return out
}
