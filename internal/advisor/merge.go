package advisor

import (
	"sort"
	"time"

	"github.com/david/funding-advisor/internal/models"
)

// HybridMerge deduplicates and merges vector candidates with keyword-backfill
// candidates into one ranked shortlist of at most `want` entries.
//
// Vector candidates arrive already scored and deadline-filtered; keyword
// candidates go through the same deadline/scoring treatment here before they
// are allowed in. The sort is stable, so ties keep the relative order of the
// concatenation (vector results first).
func HybridMerge(vectorCandidates, keywordCandidates []models.Program, params QueryParams, now time.Time, want int) models.Shortlist {
	seen := make(map[string]struct{}, len(vectorCandidates))
	for _, c := range vectorCandidates {
		seen[c.DedupeKey()] = struct{}{}
	}

	var additions []models.Program
	for _, c := range keywordCandidates {
		if _, dup := seen[c.DedupeKey()]; dup {
			continue
		}
		c.DeadlineAt = ParseDeadline(c.Deadline)
		c.DaysLeft = DaysLeft(c.DeadlineAt, now)
		if Expired(c.DeadlineAt, now) {
			continue
		}
		c.RelevanceScore = ComputeRelevanceScore(c, params, now)
		additions = append(additions, c)
	}

	merged := make(models.Shortlist, 0, len(vectorCandidates)+len(additions))
	merged = append(merged, vectorCandidates...)
	merged = append(merged, additions...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})

	if len(merged) > want {
		merged = merged[:want]
	}
	for i := range merged {
		merged[i].ID = i + 1
	}
	return merged
}
