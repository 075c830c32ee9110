package advisor

import (
	"sort"
	"strings"

	"github.com/david/funding-advisor/internal/models"
)

const defaultKeywordTopN = 50

// KeywordCandidates scans the canonical dataset for literal token-overlap
// matches. It exists to widen recall: narrow domain terms (exact program
// acronyms in particular) are often poorly represented in the embedding
// space but match trivially as text.
func KeywordCandidates(rows []models.Program, query, domainPref string, topN int) []models.Program {
	if len(rows) == 0 || strings.TrimSpace(query) == "" {
		return nil
	}
	if topN <= 0 {
		topN = defaultKeywordTopN
	}

	tokens := uniqueTokens(query)
	domainTokens := uniqueTokens(domainPref)

	type scored struct {
		program models.Program
		score   int
	}
	var hits []scored
	for _, row := range rows {
		hay := keywordHaystack(row)
		score := 0
		for tok := range tokens {
			if strings.Contains(hay, tok) {
				score++
			}
		}
		for tok := range domainTokens {
			if strings.Contains(hay, tok) {
				score += 2
				break
			}
		}
		if score > 0 {
			hits = append(hits, scored{program: row, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > topN {
		hits = hits[:topN]
	}

	out := make([]models.Program, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.program)
	}
	return out
}

func keywordHaystack(p models.Program) string {
	fields := []string{
		p.Name, p.Title, p.Program, p.Call,
		p.Description, p.Domain, p.Eligibility, p.Location,
	}
	return strings.ToLower(strings.Join(fields, " "))
}

func uniqueTokens(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range wordRe.FindAllString(strings.ToLower(s), -1) {
		tokens[tok] = struct{}{}
	}
	return tokens
}
